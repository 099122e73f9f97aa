// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"codeberg.org/oliverandrich/lawlens/internal/identity"
	"codeberg.org/oliverandrich/lawlens/internal/models"
	"codeberg.org/oliverandrich/lawlens/internal/quota"
	"codeberg.org/oliverandrich/lawlens/internal/services/analysis"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// documentResponse is the wire shape of a stored analysis. Risks and
// key points are decoded from their stored JSON form.
type documentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Summary     string    `json:"summary"`
	Risks       []string  `json:"risks"`
	KeyPoints   []string  `json:"key_points"`
	Analysis    string    `json:"analysis,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toDocumentResponse(doc *models.Document) documentResponse {
	resp := documentResponse{
		ID:          doc.ID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		Summary:     doc.Summary,
		Risks:       []string{},
		KeyPoints:   []string{},
		Analysis:    doc.Analysis,
		CreatedAt:   doc.CreatedAt,
	}
	if doc.Risks != "" {
		_ = json.Unmarshal([]byte(doc.Risks), &resp.Risks)
	}
	if doc.KeyPoints != "" {
		_ = json.Unmarshal([]byte(doc.KeyPoints), &resp.KeyPoints)
	}
	return resp
}

// Upload accepts a document, charges the quota, runs the analysis and
// stores the result. A rejected or failed analysis does not refund the
// quota unit; only an explicit delete does.
func (h *Handlers) Upload(c echo.Context) error {
	id, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not resolved")
	}

	if err := h.quota.Acquire(id.Key, id.Authenticated); err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			slog.Info("upload_rejected", "key", id.Key, "retry_after", exceeded.RetryAfter)
			return quotaError(exceeded)
		}
		return serviceError(err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serviceError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return serviceError(err)
	}

	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}

	text, err := analysis.ExtractText(data, contentType)
	if err != nil {
		return serviceError(err)
	}

	result, err := h.analyzer.Analyze(c.Request().Context(), text)
	if err != nil {
		return serviceError(err)
	}

	risks, err := json.Marshal(result.Risks)
	if err != nil {
		return serviceError(err)
	}
	keyPoints, err := json.Marshal(result.KeyPoints)
	if err != nil {
		return serviceError(err)
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		OwnerKey:    id.Key,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Summary:     result.Summary,
		Risks:       string(risks),
		KeyPoints:   string(keyPoints),
		Analysis:    result.Raw,
	}
	if id.Authenticated {
		userID := id.UserID
		doc.UserID = &userID
	}
	if err := h.repo.CreateDocument(c.Request().Context(), doc); err != nil {
		return serviceError(err)
	}

	slog.Info("document_analyzed", "id", doc.ID, "key", id.Key, "filename", doc.Filename)
	return c.JSON(http.StatusCreated, map[string]any{
		"document":  toDocumentResponse(doc),
		"remaining": h.quota.Remaining(id.Key, id.Authenticated),
	})
}

// History lists the caller's stored analyses, newest first.
func (h *Handlers) History(c echo.Context) error {
	id, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not resolved")
	}

	docs, err := h.repo.ListDocuments(c.Request().Context(), id.Key)
	if err != nil {
		return serviceError(err)
	}

	responses := make([]documentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, toDocumentResponse(&docs[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": responses})
}

// Get returns one stored analysis.
func (h *Handlers) Get(c echo.Context) error {
	id, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not resolved")
	}

	doc, err := h.repo.GetDocument(c.Request().Context(), c.Param("id"), id.Key)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"document": toDocumentResponse(doc)})
}

// Delete removes a stored analysis and hands the quota unit back.
func (h *Handlers) Delete(c echo.Context) error {
	id, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "identity not resolved")
	}

	docID := c.Param("id")
	if err := h.repo.DeleteDocument(c.Request().Context(), docID, id.Key); err != nil {
		return serviceError(err)
	}

	h.quota.Reclaim(id.Key, id.Authenticated)
	slog.Info("document_deleted", "id", docID, "key", id.Key)
	return c.JSON(http.StatusOK, map[string]string{"message": "document deleted"})
}
