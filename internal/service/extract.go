package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quillbase/quillbase/internal/domain"
)

// ExtractText pulls plain text out of an uploaded file. PDFs are parsed;
// plain text and markdown pass through as-is. Anything else is rejected with
// ErrUnsupportedFileType before a document row is ever created.
func ExtractText(filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrNoFile
	}

	switch {
	case isPDF(filename, contentType):
		return extractPDFText(data)
	case isPlainText(filename, contentType):
		return string(data), nil
	default:
		return "", domain.ErrUnsupportedFileType
	}
}

func isPDF(filename, contentType string) bool {
	if mediaType(contentType) == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func isPlainText(filename, contentType string) bool {
	if strings.HasPrefix(mediaType(contentType), "text/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// mediaType strips parameters like "; charset=utf-8" from a Content-Type.
func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to parse PDF", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to extract PDF text", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	return buf.String(), nil
}
