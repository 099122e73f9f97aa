// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"codeberg.org/oliverandrich/lawlens/internal/identity"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all endpoints. Document routes run behind the
// identity resolver so anonymous and authenticated callers are both
// accounted for.
func RegisterRoutes(e *echo.Echo, h *Handlers, resolver *identity.Resolver) {
	e.GET("/health", h.Health)

	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/google-login", h.GoogleLogin)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/resend-otp", h.ResendOTP)
	authGroup.POST("/verify-otp", h.VerifyOTP)
	authGroup.POST("/reset-password", h.ResetPassword)

	docs := e.Group("/documents", resolver.Middleware())
	docs.POST("/upload", h.Upload)
	docs.GET("/history", h.History)
	docs.GET("/:id", h.Get)
	docs.DELETE("/:id", h.Delete)
}
