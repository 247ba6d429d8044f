package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helix-kb/helix/internal/domain"
)

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkStore is a mock implementation of ChunkStore
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) InsertChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievalResult, error) {
	args := m.Called(ctx, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievalResult), args.Error(1)
}

func (m *MockChunkStore) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	args := m.Called(ctx, sourceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChunkStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChunkStore) ListAll(ctx context.Context) ([]domain.ChunkRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChunkRef), args.Error(1)
}

func testEmbedding() []float32 {
	return make([]float32, 1536)
}

func TestIndexAddReturnsAllChunkIDs(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testEmbedding(), nil)

	var inserted []domain.DocumentChunk
	store.On("InsertChunks", mock.Anything, mock.AnythingOfType("[]domain.DocumentChunk")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]domain.DocumentChunk)
		}).
		Return(nil)

	text := strings.Repeat("a", 2500)
	ids, err := index.Add(context.Background(), text, domain.ChunkMetadata{SourceID: "src-1", Title: "Doc"})
	require.NoError(t, err)

	assert.Len(t, ids, 3)
	require.Len(t, inserted, 3)
	for i, c := range inserted {
		assert.Equal(t, ids[i], c.ID)
		assert.Equal(t, "src-1", c.Meta.SourceID)
		assert.Equal(t, i, c.Meta.ChunkIndex)
		assert.Equal(t, 3, c.Meta.TotalChunks)
	}
}

func TestIndexAddEmptyDocument(t *testing.T) {
	index := NewEmbeddingIndex(new(MockEmbedder), new(MockChunkStore))

	_, err := index.Add(context.Background(), "   ", domain.ChunkMetadata{SourceID: "src-1"})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestIndexAddPageMarker(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).Return(testEmbedding(), nil)

	var inserted []domain.DocumentChunk
	store.On("InsertChunks", mock.Anything, mock.AnythingOfType("[]domain.DocumentChunk")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).([]domain.DocumentChunk)
		}).
		Return(nil)

	_, err := index.Add(context.Background(), "[PAGE 7] content from page seven", domain.ChunkMetadata{SourceID: "src-1"})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, 7, inserted[0].Meta.PageNumber)
}

func TestIndexAddEmbeddingFailure(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	embedder.On("GenerateEmbedding", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, errors.New("rate limited"))

	_, err := index.Add(context.Background(), "some content", domain.ChunkMetadata{SourceID: "src-1"})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeIndex, domainErr.Code)
	store.AssertNotCalled(t, "InsertChunks", mock.Anything, mock.Anything)
}

func TestSearchOverFetchesAndTruncates(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	embedder.On("GenerateEmbedding", mock.Anything, "query").Return(testEmbedding(), nil)

	candidates := make([]domain.RetrievalResult, 10)
	for i := range candidates {
		candidates[i] = domain.RetrievalResult{Content: "chunk", Distance: float64(i) * 0.1}
	}
	store.On("SearchSimilar", mock.Anything, mock.Anything, 10).Return(candidates, nil)

	results, err := index.Search(context.Background(), "query", 5)
	require.NoError(t, err)

	assert.Len(t, results, 5)
	store.AssertCalled(t, "SearchSimilar", mock.Anything, mock.Anything, 10)
}

func TestSearchCandidateCap(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	embedder.On("GenerateEmbedding", mock.Anything, "query").Return(testEmbedding(), nil)
	store.On("SearchSimilar", mock.Anything, mock.Anything, 20).Return([]domain.RetrievalResult{}, nil)

	_, err := index.Search(context.Background(), "query", 15)
	require.NoError(t, err)

	// 2*15 exceeds the cap; candidates stay at 20.
	store.AssertCalled(t, "SearchSimilar", mock.Anything, mock.Anything, 20)
}

func TestSearchEmptyQuery(t *testing.T) {
	index := NewEmbeddingIndex(new(MockEmbedder), new(MockChunkStore))

	_, err := index.Search(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestDeleteBySourceAbsent(t *testing.T) {
	embedder := new(MockEmbedder)
	store := new(MockChunkStore)
	index := NewEmbeddingIndex(embedder, store)

	store.On("DeleteBySource", mock.Anything, "ghost").Return(int64(0), nil)

	count, err := index.DeleteBySource(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, count)
}
