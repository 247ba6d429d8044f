package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/telemetry"
)

// IngestCatalog is the slice of the source catalog the ingestion path needs.
type IngestCatalog interface {
	Create(ctx context.Context, src *domain.Source) error
	GetByURL(ctx context.Context, url string) (*domain.Source, error)
	UpdateStatus(ctx context.Context, id string, status domain.SourceStatus) error
	UpdateContent(ctx context.Context, id string, title, description, content string, scrapedAt time.Time) error
}

// PageFetcher fetches a URL and returns its title and extracted text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (title, text string, err error)
}

// Ingestor drives sources through the pending/processing/completed lifecycle.
type Ingestor struct {
	catalog IngestCatalog
	index   *EmbeddingIndex
	fetcher PageFetcher
	ids     UUIDGenerator
}

func NewIngestor(catalog IngestCatalog, index *EmbeddingIndex, fetcher PageFetcher) *Ingestor {
	return &Ingestor{
		catalog: catalog,
		index:   index,
		fetcher: fetcher,
		ids:     &DefaultUUIDGenerator{},
	}
}

// ScrapeAndIndex registers the URL, fetches it, stores the extracted text and
// indexes it. Re-submitting a known URL returns the existing source instead
// of scraping twice. Failures leave the source in error status so it shows up
// in audits rather than vanishing.
func (g *Ingestor) ScrapeAndIndex(ctx context.Context, url string) (*domain.Source, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, domain.ErrInvalidURL
	}

	if existing, err := g.catalog.GetByURL(ctx, url); err == nil {
		return existing, nil
	}

	src := &domain.Source{
		ID:        g.ids.NewID(),
		URL:       url,
		Status:    domain.SourceStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.catalog.Create(ctx, src); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to register source", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "Ingestor.ScrapeAndIndex", telemetry.SpanAttributes{
		SourceID:  src.ID,
		Operation: "scrape",
	})
	defer span.End()

	if err := g.process(ctx, src); err != nil {
		span.SetError(err)
		g.markError(ctx, src)
		return src, err
	}
	return src, nil
}

func (g *Ingestor) process(ctx context.Context, src *domain.Source) error {
	if err := g.catalog.UpdateStatus(ctx, src.ID, domain.SourceStatusProcessing); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to update source status", err)
	}
	src.Status = domain.SourceStatusProcessing

	title, text, err := g.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to fetch page", err)
	}

	now := time.Now().UTC()
	if err := g.catalog.UpdateContent(ctx, src.ID, title, "", text, now); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store content", err)
	}
	src.Title = title
	src.Content = text
	src.ScrapedAt = &now

	if _, err := g.index.Add(ctx, text, ChunkMetadataForSource(src)); err != nil {
		return err
	}

	if err := g.catalog.UpdateStatus(ctx, src.ID, domain.SourceStatusCompleted); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to update source status", err)
	}
	src.Status = domain.SourceStatusCompleted
	return nil
}

// IndexDocument registers pre-extracted text (a file upload) as a completed
// source and indexes it. The url must be a file:// identifier unique to the
// document.
func (g *Ingestor) IndexDocument(ctx context.Context, url, title, text string) (*domain.Source, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "file://") {
		return nil, domain.ErrInvalidURL
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}

	if existing, err := g.catalog.GetByURL(ctx, url); err == nil {
		return existing, nil
	}

	now := time.Now().UTC()
	src := &domain.Source{
		ID:        g.ids.NewID(),
		URL:       url,
		Title:     title,
		Content:   text,
		Status:    domain.SourceStatusPending,
		CreatedAt: now,
	}
	if err := g.catalog.Create(ctx, src); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to register source", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "Ingestor.IndexDocument", telemetry.SpanAttributes{
		SourceID:  src.ID,
		Operation: "document_upload",
	})
	defer span.End()

	if err := g.catalog.UpdateContent(ctx, src.ID, title, "", text, now); err != nil {
		g.markError(ctx, src)
		return src, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store content", err)
	}

	if _, err := g.index.Add(ctx, text, ChunkMetadataForSource(src)); err != nil {
		g.markError(ctx, src)
		return src, err
	}

	if err := g.catalog.UpdateStatus(ctx, src.ID, domain.SourceStatusCompleted); err != nil {
		return src, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to update source status", err)
	}
	src.Status = domain.SourceStatusCompleted
	return src, nil
}

func (g *Ingestor) markError(ctx context.Context, src *domain.Source) {
	if err := g.catalog.UpdateStatus(ctx, src.ID, domain.SourceStatusError); err != nil {
		log.Printf("ingest: failed to mark source %s as error: %v", src.ID, err)
		return
	}
	src.Status = domain.SourceStatusError
}
