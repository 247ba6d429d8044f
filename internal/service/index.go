package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/helix-kb/helix/internal/domain"
)

const (
	// maxSearchCandidates caps how many candidates are pulled from the
	// backend before truncating to the caller's limit.
	maxSearchCandidates = 20
	defaultSearchLimit  = 5
)

// Embedder defines the interface for generating embeddings
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore defines the persistence interface for embedding records.
// InsertChunks must write all chunks atomically or none.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievalResult, error)
	DeleteBySource(ctx context.Context, sourceID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	ListAll(ctx context.Context) ([]domain.ChunkRef, error)
}

// EmbeddingIndex chunks documents, embeds each chunk and stores the records
// in the vector backend. It is safe for concurrent use; the embedder and the
// store are long-lived shared clients.
type EmbeddingIndex struct {
	embedder Embedder
	store    ChunkStore
	chunkCfg ChunkConfig
	ids      UUIDGenerator
}

func NewEmbeddingIndex(embedder Embedder, store ChunkStore) *EmbeddingIndex {
	return NewEmbeddingIndexWithConfig(embedder, store, DefaultChunkConfig())
}

func NewEmbeddingIndexWithConfig(embedder Embedder, store ChunkStore, cfg ChunkConfig) *EmbeddingIndex {
	return &EmbeddingIndex{
		embedder: embedder,
		store:    store,
		chunkCfg: cfg,
		ids:      &DefaultUUIDGenerator{},
	}
}

var pageMarkerRe = regexp.MustCompile(`^\[PAGE (\d+)\]`)

func pageNumber(chunk string) int {
	m := pageMarkerRe.FindStringSubmatch(chunk)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Add chunks the text, embeds every chunk and writes the records in a single
// batch. It returns the ids of all chunks written, in chunk order.
func (x *EmbeddingIndex) Add(ctx context.Context, text string, meta domain.ChunkMetadata) ([]string, error) {
	chunks, err := chunkText(text, x.chunkCfg)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	now := time.Now().UTC()
	records := make([]domain.DocumentChunk, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := x.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to embed chunk", err)
		}

		chunkMeta := meta
		chunkMeta.ChunkIndex = i
		chunkMeta.TotalChunks = len(chunks)
		chunkMeta.PageNumber = pageNumber(chunk)

		id := x.ids.NewID()
		ids = append(ids, id)
		records = append(records, domain.DocumentChunk{
			ID:        id,
			Content:   chunk,
			Embedding: embedding,
			Meta:      chunkMeta,
			CreatedAt: now,
		})
	}

	if err := x.store.InsertChunks(ctx, records); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to store chunks", err)
	}

	return ids, nil
}

// Search embeds the query and returns the k most relevant chunks, most
// relevant first. It over-fetches candidates so callers can filter without
// starving the result set.
func (x *EmbeddingIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k <= 0 {
		k = defaultSearchLimit
	}

	embedding, err := x.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to embed query", err)
	}

	candidates := 2 * k
	if candidates > maxSearchCandidates {
		candidates = maxSearchCandidates
	}

	results, err := x.store.SearchSimilar(ctx, embedding, candidates)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "similarity search failed", err)
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteBySource removes every chunk belonging to the source and returns the
// number deleted. Deleting an absent source returns zero, not an error.
func (x *EmbeddingIndex) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	count, err := x.store.DeleteBySource(ctx, sourceID)
	if err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to delete source vectors", err)
	}
	return count, nil
}

// DeleteByIDs removes specific chunks; used by the reconciler's orphan purge.
func (x *EmbeddingIndex) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := x.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to delete vectors", err)
	}
	return count, nil
}

// ListAll snapshots every chunk id with its source id. Unbounded; only the
// reconciler and maintenance tooling should call it.
func (x *EmbeddingIndex) ListAll(ctx context.Context) ([]domain.ChunkRef, error) {
	refs, err := x.store.ListAll(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndex, "failed to list index", err)
	}
	return refs, nil
}
