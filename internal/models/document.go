// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Document is a stored analysis record. OwnerKey is the identity key the
// upload was accounted against: the user id for authenticated uploads,
// the client IP for anonymous ones, so anonymous visitors keep a history
// too. UserID is only set for authenticated uploads.
type Document struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string    `db:"id" json:"id"`
	OwnerKey    string    `db:"owner_key" json:"-"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Summary     string    `db:"summary" json:"summary"`
	Risks       string    `db:"risks" json:"risks"`
	KeyPoints   string    `db:"key_points" json:"key_points"`
	Analysis    string    `db:"analysis" json:"analysis"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
