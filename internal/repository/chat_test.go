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

func newSession(title string) *domain.ChatSession {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestChatRepository_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChatRepository(pool)

	session := newSession("New Chat")
	require.NoError(t, repo.CreateSession(ctx, session))

	got, err := repo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Chat", got.Title)

	require.NoError(t, repo.TouchSession(ctx, session.ID, "Configuring TLS"))

	got, err = repo.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Configuring TLS", got.Title)
	assert.True(t, got.UpdatedAt.After(session.UpdatedAt) || got.UpdatedAt.Equal(session.UpdatedAt))

	require.NoError(t, repo.DeleteSession(ctx, session.ID))
	_, err = repo.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatRepository_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChatRepository(pool)

	ghost := uuid.NewString()
	_, err := repo.GetSession(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.TouchSession(ctx, ghost, "x"), domain.ErrSessionNotFound)
	assert.ErrorIs(t, repo.DeleteSession(ctx, ghost), domain.ErrSessionNotFound)
}

func TestChatRepository_ListSessionsRecentFirst(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChatRepository(pool)

	stale := newSession("Stale")
	stale.UpdatedAt = stale.UpdatedAt.Add(-time.Hour)
	require.NoError(t, repo.CreateSession(ctx, stale))

	fresh := newSession("Fresh")
	require.NoError(t, repo.CreateSession(ctx, fresh))

	sessions, err := repo.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, fresh.ID, sessions[0].ID)
	assert.Equal(t, stale.ID, sessions[1].ID)

	limited, err := repo.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, fresh.ID, limited[0].ID)
}

func TestChatRepository_MessagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChatRepository(pool)

	session := newSession("New Chat")
	require.NoError(t, repo.CreateSession(ctx, session))

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   "how do I configure TLS?",
		CreatedAt: now,
	}
	assistant := &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      domain.RoleAssistant,
		Content:   "Set the cert paths in the config.",
		Sources: []domain.Citation{
			{URL: "https://example.com/tls", Title: "TLS Guide", Relevance: 0.92},
		},
		CreatedAt: now.Add(time.Second),
	}
	require.NoError(t, repo.InsertMessage(ctx, user))
	require.NoError(t, repo.InsertMessage(ctx, assistant))

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Empty(t, messages[0].Sources)

	assert.Equal(t, domain.RoleAssistant, messages[1].Role)
	require.Len(t, messages[1].Sources, 1)
	assert.Equal(t, "https://example.com/tls", messages[1].Sources[0].URL)
	assert.InDelta(t, 0.92, messages[1].Sources[0].Relevance, 0.0001)
}

func TestChatRepository_DeleteSessionCascadesMessages(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChatRepository(pool)

	session := newSession("New Chat")
	require.NoError(t, repo.CreateSession(ctx, session))
	require.NoError(t, repo.InsertMessage(ctx, &domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      domain.RoleUser,
		Content:   "hello",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}))

	require.NoError(t, repo.DeleteSession(ctx, session.ID))

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
