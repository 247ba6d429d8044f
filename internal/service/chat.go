package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/telemetry"
)

const (
	defaultSessionListLimit = 15
	maxTitleLength          = 50
	fallbackTitle           = "New Chat"
)

// ChatRepository persists chat sessions and their messages.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)
	ListSessions(ctx context.Context, limit int) ([]*domain.ChatSession, error)
	TouchSession(ctx context.Context, id string, title string) error
	DeleteSession(ctx context.Context, id string) error
	InsertMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error)
}

// Answerer produces a grounded answer for a user query.
type Answerer interface {
	RetrieveAndAnswer(ctx context.Context, query string) (*Answer, error)
}

// Exchange is one user turn and the assistant's reply, both persisted.
type Exchange struct {
	User        *domain.ChatMessage
	Assistant   *domain.ChatMessage
	IsInventory bool
}

// ChatService manages chat sessions and routes messages through the engine.
type ChatService struct {
	repo   ChatRepository
	engine Answerer
	titler TextGenerator
	ids    UUIDGenerator
}

func NewChatService(repo ChatRepository, engine Answerer, titler TextGenerator) *ChatService {
	return &ChatService{
		repo:   repo,
		engine: engine,
		titler: titler,
		ids:    &DefaultUUIDGenerator{},
	}
}

// CreateSession opens a new chat session with the fallback title. The real
// title is generated from the first message.
func (s *ChatService) CreateSession(ctx context.Context) (*domain.ChatSession, error) {
	now := time.Now().UTC()
	session := &domain.ChatSession{
		ID:        s.ids.NewID(),
		Title:     fallbackTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to create session", err)
	}
	return session, nil
}

func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.repo.GetSession(ctx, id)
}

// ListSessions returns the most recently updated sessions. A non-positive
// limit applies the default.
func (s *ChatService) ListSessions(ctx context.Context, limit int) ([]*domain.ChatSession, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}
	sessions, err := s.repo.ListSessions(ctx, limit)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list sessions", err)
	}
	return sessions, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *ChatService) ListMessages(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list messages", err)
	}
	return msgs, nil
}

// SendMessage persists the user turn, generates the grounded answer and
// persists the assistant turn. The first message of a session also sets the
// session title.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}

	ctx, span := telemetry.StartSpan(ctx, "ChatService.SendMessage", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "send_message",
	})
	defer span.End()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list messages", err)
	}
	isFirst := len(existing) == 0

	userMsg := &domain.ChatMessage{
		ID:        s.ids.NewID(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store message", err)
	}

	answer, err := s.engine.RetrieveAndAnswer(ctx, content)
	if err != nil {
		return nil, err
	}

	assistantMsg := &domain.ChatMessage{
		ID:        s.ids.NewID(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   answer.Answer,
		Sources:   answer.Citations,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store message", err)
	}

	title := session.Title
	if isFirst {
		title = s.generateTitle(ctx, content)
	}
	if err := s.repo.TouchSession(ctx, sessionID, title); err != nil {
		log.Printf("chat: failed to update session %s: %v", sessionID, err)
	}

	return &Exchange{
		User:        userMsg,
		Assistant:   assistantMsg,
		IsInventory: answer.IsInventory,
	}, nil
}

const titlePromptTemplate = `Generate a short, descriptive title (max 5 words) for this conversation starter:

"%s"

Title:`

// generateTitle derives a session title from the opening message. Title
// generation is best-effort; failures fall back to the default title.
func (s *ChatService) generateTitle(ctx context.Context, firstMessage string) string {
	if s.titler == nil {
		return fallbackTitle
	}
	raw, err := s.titler.GenerateTitle(ctx, fmt.Sprintf(titlePromptTemplate, firstMessage))
	if err != nil {
		log.Printf("chat: title generation failed: %v", err)
		return fallbackTitle
	}
	title := strings.Trim(strings.TrimSpace(SanitizeResponse(raw)), `"`)
	if title == "" {
		return fallbackTitle
	}
	// Truncate on runes so a multibyte character is never split.
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title
}
