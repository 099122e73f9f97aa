// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIDTokenVerifier validates Google ID tokens against the configured
// OAuth client id.
type GoogleIDTokenVerifier struct {
	clientID string
}

// NewGoogleVerifier creates a verifier for the given OAuth client id.
func NewGoogleVerifier(clientID string) (*GoogleIDTokenVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	return &GoogleIDTokenVerifier{clientID: clientID}, nil
}

// Verify checks signature, expiry and audience of the ID token and
// extracts the holder's email and display name.
func (v *GoogleIDTokenVerifier) Verify(ctx context.Context, raw string) (string, string, error) {
	payload, err := idtoken.Validate(ctx, raw, v.clientID)
	if err != nil {
		return "", "", fmt.Errorf("id token validation failed: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", "", errors.New("id token has no email claim")
	}
	name, _ := payload.Claims["name"].(string)
	if name == "" {
		name = email
	}

	return email, name, nil
}
