// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/lawlens/internal/services/auth"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register creates an account.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	user, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, bearer, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token": bearer,
		"user":  userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// GoogleLogin exchanges a Google ID token for a bearer token, creating
// the account on first contact.
func (h *Handlers) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id_token is required")
	}

	user, bearer, err := h.auth.GoogleLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token": bearer,
		"user":  userResponse{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// ForgotPassword starts a reset cycle by mailing a one-time code.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.recovery.Request(c.Request().Context(), req.Email); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "reset code sent"})
}

// ResendOTP reissues the one-time code for a pending reset cycle.
func (h *Handlers) ResendOTP(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.recovery.Resend(c.Request().Context(), req.Email); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "reset code sent"})
}

// VerifyOTP redeems the one-time code and returns the reset token for
// the final step.
func (h *Handlers) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.OTP == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and otp are required")
	}

	resetToken, err := h.recovery.Verify(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message":     "code verified",
		"reset_token": resetToken,
	})
}

// ResetPassword sets a new password using the reset token.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.ResetToken == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, reset_token and new_password are required")
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return serviceError(auth.ErrWeakPassword)
	}

	if err := h.recovery.Complete(c.Request().Context(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
