// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/lawlens/internal/models"
)

// CreateDocument inserts a new analysis record.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner_key, user_id, filename, content_type, size_bytes, summary, risks, key_points, analysis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.OwnerKey, doc.UserID, doc.Filename, doc.ContentType,
		doc.SizeBytes, doc.Summary, doc.Risks, doc.KeyPoints, doc.Analysis)
	return err
}

// GetDocument retrieves a document by ID, scoped to its owner.
func (r *Repository) GetDocument(ctx context.Context, id, ownerKey string) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc,
		`SELECT * FROM documents WHERE id = ? AND owner_key = ?`, id, ownerKey)
	if err != nil {
		return nil, wrapError(err)
	}
	return &doc, nil
}

// ListDocuments returns all documents for an owner, newest first.
func (r *Repository) ListDocuments(ctx context.Context, ownerKey string) ([]models.Document, error) {
	docs := []models.Document{}
	err := r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE owner_key = ? ORDER BY created_at DESC, id DESC`, ownerKey)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document owned by the given identity. Returns
// ErrNotFound when nothing was deleted.
func (r *Repository) DeleteDocument(ctx context.Context, id, ownerKey string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND owner_key = ?`, id, ownerKey)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
