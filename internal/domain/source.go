package domain

import (
	"strings"
	"time"
)

// SourceStatus tracks a source through its indexing lifecycle.
type SourceStatus string

const (
	SourceStatusPending    SourceStatus = "pending"
	SourceStatusProcessing SourceStatus = "processing"
	SourceStatusCompleted  SourceStatus = "completed"
	SourceStatusError      SourceStatus = "error"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s SourceStatus) IsValid() bool {
	switch s {
	case SourceStatusPending, SourceStatusProcessing, SourceStatusCompleted, SourceStatusError:
		return true
	}
	return false
}

// Source is a catalog entry for an indexed document or web page.
// The extracted text lives in Content; its vectors live in the chunk index
// keyed by the source ID.
type Source struct {
	ID          string
	URL         string
	Title       string
	Description string
	Content     string
	Status      SourceStatus
	ScrapedAt   *time.Time
	CreatedAt   time.Time
}

const (
	SourceKindWebsite  = "Website"
	SourceKindDocument = "Document"
)

// Kind infers a human-readable source kind from the URL scheme.
func (s *Source) Kind() string {
	if strings.HasPrefix(s.URL, "http://") || strings.HasPrefix(s.URL, "https://") {
		return SourceKindWebsite
	}
	return SourceKindDocument
}

// HasContent reports whether the source carries indexable text.
func (s *Source) HasContent() bool {
	return strings.TrimSpace(s.Content) != ""
}
