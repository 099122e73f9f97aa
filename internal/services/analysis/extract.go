// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package analysis turns uploaded documents into text and text into a
// structured risk analysis.
package analysis

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedType is returned for content types we cannot extract.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrNoText is returned when extraction yields nothing to analyze.
	ErrNoText = errors.New("unable to extract text from the document")
)

// Supported content types.
const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeText = "text/plain"
)

// SupportedType reports whether uploads of this content type are accepted.
func SupportedType(contentType string) bool {
	switch normalizeType(contentType) {
	case TypePDF, TypeDOCX, TypeText:
		return true
	}
	return false
}

// ExtractText pulls the plain text out of an uploaded document. Empty
// results are an error: there is nothing to analyze.
func ExtractText(data []byte, contentType string) (string, error) {
	var text string
	var err error

	switch normalizeType(contentType) {
	case TypePDF:
		text, err = extractPDF(data)
	case TypeDOCX:
		text, err = extractDOCX(data)
	case TypeText:
		text = string(data)
	default:
		return "", ErrUnsupportedType
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// normalizeType strips parameters like "; charset=utf-8".
func normalizeType(contentType string) string {
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX reads word/document.xml from the OOXML container and
// collects the text runs, with a newline per paragraph.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open docx body: %w", err)
			}
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("docx has no document body")
	}
	defer document.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(document)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx body: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if el.Name.Local == "t" {
				inText = false
			}
			if el.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
	return sb.String(), nil
}
