package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helix-kb/helix/internal/domain"
)

// MockReconcilerCatalog is a mock implementation of ReconcilerCatalog
type MockReconcilerCatalog struct {
	mock.Mock
}

func (m *MockReconcilerCatalog) List(ctx context.Context, status domain.SourceStatus, limit int) ([]*domain.Source, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Source), args.Error(1)
}

func (m *MockReconcilerCatalog) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestReconciler(embedder *MockEmbedder, store *MockChunkStore, catalog *MockReconcilerCatalog) *Reconciler {
	return NewReconciler(NewEmbeddingIndex(embedder, store), catalog)
}

func TestDeleteSourceRemovesVectorsFirst(t *testing.T) {
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(new(MockEmbedder), store, catalog)

	store.On("DeleteBySource", mock.Anything, "src-1").Return(int64(4), nil)
	catalog.On("Delete", mock.Anything, "src-1").Return(nil)

	deleted, err := reconciler.DeleteSource(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
}

func TestDeleteSourceIdempotent(t *testing.T) {
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(new(MockEmbedder), store, catalog)

	// Second run: vectors already gone, catalog row already gone.
	store.On("DeleteBySource", mock.Anything, "src-1").Return(int64(0), nil)
	catalog.On("Delete", mock.Anything, "src-1").Return(domain.ErrSourceNotFound)

	deleted, err := reconciler.DeleteSource(context.Background(), "src-1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAuditDetectsOrphansAndMissing(t *testing.T) {
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(new(MockEmbedder), store, catalog)

	now := time.Now()
	catalog.On("List", mock.Anything, domain.SourceStatus(""), 0).Return([]*domain.Source{
		{ID: "live", Status: domain.SourceStatusCompleted, Content: "text", CreatedAt: now},
		{ID: "unindexed", Status: domain.SourceStatusCompleted, Content: "text", CreatedAt: now},
		{ID: "empty", Status: domain.SourceStatusCompleted, Content: "", CreatedAt: now},
		{ID: "pending", Status: domain.SourceStatusPending, Content: "text", CreatedAt: now},
	}, nil)

	store.On("ListAll", mock.Anything).Return([]domain.ChunkRef{
		{ID: "c1", SourceID: "live"},
		{ID: "c2", SourceID: "live"},
		{ID: "c3", SourceID: "ghost"},
		{ID: "c4", SourceID: "ghost"},
	}, nil)

	report, err := reconciler.Audit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalVectors)
	assert.Equal(t, 2, report.VectorsBySource["live"])
	require.Contains(t, report.Orphans, "ghost")
	assert.ElementsMatch(t, []string{"c3", "c4"}, report.Orphans["ghost"])
	assert.NotContains(t, report.Orphans, "live")

	// Only completed sources with content count as missing.
	assert.Equal(t, []string{"unindexed"}, report.Missing)
}

func TestPurgeOrphansDeletesByID(t *testing.T) {
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(new(MockEmbedder), store, catalog)

	store.On("DeleteByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 2
	})).Return(int64(2), nil)

	deleted, err := reconciler.PurgeOrphans(context.Background(), map[string][]string{
		"ghost": {"c3", "c4"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestPurgeOrphansEmpty(t *testing.T) {
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(new(MockEmbedder), store, catalog)

	deleted, err := reconciler.PurgeOrphans(context.Background(), map[string][]string{})
	require.NoError(t, err)
	assert.Zero(t, deleted)
	store.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}

func TestReindexMissing(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	catalog := new(MockReconcilerCatalog)
	reconciler := newTestReconciler(embedder, store, catalog)

	now := time.Now()
	store.On("ListAll", mock.Anything).Return([]domain.ChunkRef{
		{ID: "c1", SourceID: "indexed"},
	}, nil)
	catalog.On("List", mock.Anything, domain.SourceStatusCompleted, 0).Return([]*domain.Source{
		{ID: "indexed", URL: "https://a", Status: domain.SourceStatusCompleted, Content: "text", CreatedAt: now},
		{ID: "missing", URL: "https://b", Title: "B", Status: domain.SourceStatusCompleted, Content: "fresh text", CreatedAt: now},
		{ID: "hollow", URL: "https://c", Status: domain.SourceStatusCompleted, Content: "", CreatedAt: now},
	}, nil)

	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testEmbedding(), nil)

	var inserted []domain.DocumentChunk
	store.On("InsertChunks", mock.Anything, mock.AnythingOfType("[]domain.DocumentChunk")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]domain.DocumentChunk)
		}).
		Return(nil)

	report, err := reconciler.ReindexMissing(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"hollow"}, report.FailedSources)

	require.NotEmpty(t, inserted)
	assert.Equal(t, "missing", inserted[0].Meta.SourceID)
	assert.Equal(t, "B", inserted[0].Meta.Title)
	assert.Equal(t, SourceTypeWebScrape, inserted[0].Meta.SourceType)
}

func TestChunkMetadataForSource(t *testing.T) {
	web := ChunkMetadataForSource(&domain.Source{ID: "1", URL: "https://example.com", Title: "Site"})
	assert.Equal(t, SourceTypeWebScrape, web.SourceType)
	assert.Equal(t, "Site", web.Title)

	doc := ChunkMetadataForSource(&domain.Source{ID: "2", URL: "file:///notes.txt"})
	assert.Equal(t, SourceTypeDocumentUpload, doc.SourceType)
	assert.Equal(t, "Untitled", doc.Title)
}
