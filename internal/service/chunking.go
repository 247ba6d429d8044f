package service

import (
	"strings"

	"github.com/helix-kb/helix/internal/domain"
)

// ChunkConfig controls how document text is split for embedding.
type ChunkConfig struct {
	MaxChars int
	Overlap  int
}

// DefaultChunkConfig provides the standard chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1000,
		Overlap:  200,
	}
}

// Validate rejects configurations that cannot make forward progress.
func (c ChunkConfig) Validate() error {
	if c.MaxChars <= 0 {
		return domain.ErrInvalidChunkConfig
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChars {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// chunkText splits text into overlapping windows of at most cfg.MaxChars
// runes. A window is cut early at the nearest sentence terminator, but only
// when that lies past the window midpoint so chunks stay near the target
// size. Consecutive chunks overlap by up to cfg.Overlap runes.
func chunkText(text string, cfg ChunkConfig) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil, nil
	}

	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}, nil
	}

	chunks := make([]string, 0, len(runes)/cfg.MaxChars+1)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			for i := end - 1; i > start+cfg.MaxChars/2; i-- {
				if runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		next := end - cfg.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}
