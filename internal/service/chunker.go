package service

import (
	"strings"
	"unicode/utf8"

	"github.com/quillbase/quillbase/internal/domain"
)

// ChunkConfig controls how document text is split for embedding.
type ChunkConfig struct {
	Size     int
	Overlap  int
	MinChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:     800,
		Overlap:  100,
		MinChars: 20,
	}
}

// ChunkText splits text into spans of up to size runes, each starting
// size-overlap runes after the previous one. The final span may be shorter.
// Chunking is a pure function of its inputs: identical input always yields
// identical chunks, so re-uploading a document is idempotent.
//
// size must be strictly greater than overlap; anything else would never
// advance and is rejected up front.
func ChunkText(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || size <= overlap {
		return nil, domain.ErrInvalidChunkConfig
	}

	if text == "" {
		return []string{}, nil
	}

	runes := []rune(text)
	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)

	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks, nil
}

// FilterChunks drops spans whose trimmed length is below minChars. Such spans
// are noise (whitespace-only page breaks from PDF extraction and the like)
// and are never embedded or stored.
func FilterChunks(chunks []string, minChars int) []string {
	kept := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if utf8.RuneCountInString(strings.TrimSpace(chunk)) < minChars {
			continue
		}
		kept = append(kept, chunk)
	}
	return kept
}
