package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/telemetry"
)

// ReconcilerCatalog is the slice of the source catalog the reconciler needs.
type ReconcilerCatalog interface {
	List(ctx context.Context, status domain.SourceStatus, limit int) ([]*domain.Source, error)
	Delete(ctx context.Context, id string) error
}

// Reconciler keeps the vector index consistent with the source catalog.
// Every operation is idempotent and safe to re-run.
type Reconciler struct {
	index   *EmbeddingIndex
	catalog ReconcilerCatalog
}

func NewReconciler(index *EmbeddingIndex, catalog ReconcilerCatalog) *Reconciler {
	return &Reconciler{
		index:   index,
		catalog: catalog,
	}
}

// DeleteSource removes a source's vectors and then its catalog row. Vectors
// go first: if their deletion fails the catalog row remains available for a
// retry, so no completed entry is left with partially removed vectors.
func (r *Reconciler) DeleteSource(ctx context.Context, sourceID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.DeleteSource", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "delete_source",
	})
	defer span.End()

	deleted, err := r.index.DeleteBySource(ctx, sourceID)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	if err := r.catalog.Delete(ctx, sourceID); err != nil {
		// A concurrent delete already removed the row; the operation
		// is idempotent, so that is not a failure.
		if errors.Is(err, domain.ErrSourceNotFound) {
			return deleted, nil
		}
		return deleted, domain.NewDomainErrorWithCause(domain.ErrCodeConsistency, "vectors deleted but catalog delete failed", err)
	}

	return deleted, nil
}

// AuditReport describes catalog/index drift.
type AuditReport struct {
	// Orphans maps source ids that no longer exist in the catalog to the
	// chunk ids still carrying them.
	Orphans map[string][]string
	// Missing lists completed sources with content that have no vectors.
	Missing []string
	// TotalVectors is the index size at snapshot time.
	TotalVectors int
	// VectorsBySource counts vectors per source id.
	VectorsBySource map[string]int
}

// Audit snapshots the index and the catalog and reports drift in both
// directions. Membership checks are hash-set lookups, linear in index size.
func (r *Reconciler) Audit(ctx context.Context) (*AuditReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.Audit", telemetry.SpanAttributes{
		Operation: "audit",
	})
	defer span.End()

	sources, err := r.catalog.List(ctx, "", 0)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConsistency, "failed to list catalog", err)
	}

	refs, err := r.index.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	valid := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		valid[src.ID] = struct{}{}
	}

	report := &AuditReport{
		Orphans:         make(map[string][]string),
		VectorsBySource: make(map[string]int, len(valid)),
		TotalVectors:    len(refs),
	}

	indexed := make(map[string]struct{})
	for _, ref := range refs {
		if ref.SourceID == "" {
			continue
		}
		indexed[ref.SourceID] = struct{}{}
		report.VectorsBySource[ref.SourceID]++
		if _, ok := valid[ref.SourceID]; !ok {
			report.Orphans[ref.SourceID] = append(report.Orphans[ref.SourceID], ref.ID)
		}
	}

	for _, src := range sources {
		if src.Status != domain.SourceStatusCompleted || !src.HasContent() {
			continue
		}
		if _, ok := indexed[src.ID]; !ok {
			report.Missing = append(report.Missing, src.ID)
		}
	}

	return report, nil
}

// FindOrphans returns every vector whose source id is absent from the
// catalog, grouped by source id. It only reports; deletion requires an
// explicit PurgeOrphans call from the caller.
func (r *Reconciler) FindOrphans(ctx context.Context) (map[string][]string, error) {
	report, err := r.Audit(ctx)
	if err != nil {
		return nil, err
	}
	return report.Orphans, nil
}

// PurgeOrphans deletes the chunks named in the orphan map. The map comes
// from FindOrphans; passing it back is the caller's confirmation step.
func (r *Reconciler) PurgeOrphans(ctx context.Context, orphans map[string][]string) (int64, error) {
	var ids []string
	for _, chunkIDs := range orphans {
		ids = append(ids, chunkIDs...)
	}
	return r.index.DeleteByIDs(ctx, ids)
}

// ReindexReport summarizes a reindex run.
type ReindexReport struct {
	Indexed int
	Skipped int
	Failed  int
	// FailedSources lists source ids that could not be indexed, including
	// completed entries with empty content.
	FailedSources []string
}

// ReindexMissing indexes every completed catalog entry that has no vectors.
// Already-indexed sources are skipped; completed sources with empty content
// are reported as failed rather than silently dropped. Running it twice
// leaves the set of indexed source ids unchanged.
func (r *Reconciler) ReindexMissing(ctx context.Context) (*ReindexReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.ReindexMissing", telemetry.SpanAttributes{
		Operation: "reindex_missing",
	})
	defer span.End()

	refs, err := r.index.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		indexed[ref.SourceID] = struct{}{}
	}

	sources, err := r.catalog.List(ctx, domain.SourceStatusCompleted, 0)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConsistency, "failed to list catalog", err)
	}

	report := &ReindexReport{}
	for _, src := range sources {
		if _, ok := indexed[src.ID]; ok {
			report.Skipped++
			continue
		}
		if !src.HasContent() {
			report.Failed++
			report.FailedSources = append(report.FailedSources, src.ID)
			continue
		}

		if _, err := r.index.Add(ctx, src.Content, ChunkMetadataForSource(src)); err != nil {
			log.Printf("reindex: failed to index source %s: %v", src.ID, err)
			report.Failed++
			report.FailedSources = append(report.FailedSources, src.ID)
			continue
		}
		report.Indexed++
	}

	return report, nil
}

// Document chunk source types.
const (
	SourceTypeDocumentUpload = "document_upload"
	SourceTypeWebScrape      = "web_scrape"
)

// ChunkMetadataForSource builds the document-level metadata inherited by
// every chunk of a catalog entry.
func ChunkMetadataForSource(src *domain.Source) domain.ChunkMetadata {
	title := src.Title
	if title == "" {
		title = "Untitled"
	}
	sourceType := SourceTypeWebScrape
	if strings.HasPrefix(src.URL, "file://") {
		sourceType = SourceTypeDocumentUpload
	}
	return domain.ChunkMetadata{
		SourceID:   src.ID,
		Title:      title,
		URL:        src.URL,
		SourceType: sourceType,
	}
}
