//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/testutil"
)

func newSource(url string, status domain.SourceStatus) *domain.Source {
	return &domain.Source{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    status,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestSourceRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSourceRepository(pool)

	src := newSource("https://example.com/one", domain.SourceStatusPending)
	src.Title = "One"
	require.NoError(t, repo.Create(ctx, src))

	byID, err := repo.GetByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.URL, byID.URL)
	assert.Equal(t, "One", byID.Title)
	assert.Equal(t, domain.SourceStatusPending, byID.Status)

	byURL, err := repo.GetByURL(ctx, src.URL)
	require.NoError(t, err)
	assert.Equal(t, src.ID, byURL.ID)
}

func TestSourceRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSourceRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestSourceRepository_ListNewestFirstWithStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSourceRepository(pool)

	older := newSource("https://example.com/older", domain.SourceStatusCompleted)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	require.NoError(t, repo.Create(ctx, older))

	newer := newSource("https://example.com/newer", domain.SourceStatusCompleted)
	require.NoError(t, repo.Create(ctx, newer))

	pending := newSource("https://example.com/pending", domain.SourceStatusPending)
	require.NoError(t, repo.Create(ctx, pending))

	completed, err := repo.List(ctx, domain.SourceStatusCompleted, 0)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, newer.ID, completed[0].ID)
	assert.Equal(t, older.ID, completed[1].ID)

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := repo.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSourceRepository_UpdateStatusAndContent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSourceRepository(pool)

	src := newSource("https://example.com/page", domain.SourceStatusPending)
	require.NoError(t, repo.Create(ctx, src))

	require.NoError(t, repo.UpdateStatus(ctx, src.ID, domain.SourceStatusProcessing))

	scrapedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateContent(ctx, src.ID, "Page", "A page", "page text", scrapedAt))
	require.NoError(t, repo.UpdateStatus(ctx, src.ID, domain.SourceStatusCompleted))

	got, err := repo.GetByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStatusCompleted, got.Status)
	assert.Equal(t, "Page", got.Title)
	assert.Equal(t, "page text", got.Content)
	require.NotNil(t, got.ScrapedAt)
	assert.True(t, got.ScrapedAt.Equal(scrapedAt))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, src.ID, domain.SourceStatus("bogus")), domain.ErrInvalidSourceStatus)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), domain.SourceStatusCompleted), domain.ErrSourceNotFound)
}

func TestSourceRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSourceRepository(pool)

	src := newSource("https://example.com/gone", domain.SourceStatusCompleted)
	require.NoError(t, repo.Create(ctx, src))

	require.NoError(t, repo.Delete(ctx, src.ID))
	assert.ErrorIs(t, repo.Delete(ctx, src.ID), domain.ErrSourceNotFound)
}
