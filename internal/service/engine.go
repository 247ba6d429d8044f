package service

import (
	"context"
	"strings"

	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/telemetry"
)

// TextGenerator defines the interface to the language-model endpoint.
type TextGenerator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
	GenerateTitle(ctx context.Context, prompt string) (string, error)
}

// Answer is a consolidated response: the model's answer plus the ranked
// sources that backed it.
type Answer struct {
	Answer      string
	Citations   []domain.Citation
	IsInventory bool
}

// Engine is the retrieval-and-synthesis facade exposed to the HTTP layer
// and the CLI.
type Engine struct {
	index      *EmbeddingIndex
	retriever  *Retriever
	reconciler *Reconciler
	llm        TextGenerator
}

func NewEngine(index *EmbeddingIndex, retriever *Retriever, reconciler *Reconciler, llm TextGenerator) *Engine {
	return &Engine{
		index:      index,
		retriever:  retriever,
		reconciler: reconciler,
		llm:        llm,
	}
}

// RetrieveAndAnswer retrieves context for the query, builds the prompt and
// returns the sanitized answer with citations. Zero retrieval results still
// produce an answer; the model falls back to general knowledge.
func (e *Engine) RetrieveAndAnswer(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "Engine.RetrieveAndAnswer", telemetry.SpanAttributes{
		Operation: "retrieve_and_answer",
	})
	defer span.End()

	ret, err := e.retriever.Retrieve(ctx, query, defaultSearchLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	prompt := BuildPrompt(query, ret)
	raw, err := e.llm.GenerateAnswer(ctx, prompt)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeLLM, "answer generation failed", err)
	}

	return &Answer{
		Answer:      SanitizeResponse(raw),
		Citations:   Citations(ret.Results),
		IsInventory: ret.IsInventory,
	}, nil
}

// IndexDocument chunks and indexes pre-extracted text, returning all chunk ids.
func (e *Engine) IndexDocument(ctx context.Context, text string, meta domain.ChunkMetadata) ([]string, error) {
	return e.index.Add(ctx, text, meta)
}

// RemoveSource deletes a source's vectors and its catalog entry, returning
// the number of vectors removed.
func (e *Engine) RemoveSource(ctx context.Context, sourceID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.RemoveSource", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "remove_source",
	})
	defer span.End()

	return e.reconciler.DeleteSource(ctx, sourceID)
}

// Audit reports catalog/index drift for maintenance tooling.
func (e *Engine) Audit(ctx context.Context) (*AuditReport, error) {
	return e.reconciler.Audit(ctx)
}
