package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helix-kb/helix/internal/api"
	"github.com/helix-kb/helix/internal/domain"
	"github.com/helix-kb/helix/internal/service"
)

type QueryService interface {
	RetrieveAndAnswer(ctx context.Context, query string) (*service.Answer, error)
}

type QueryHandler struct {
	svc QueryService
}

func NewQueryHandler(svc QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResponse struct {
	Answer      string            `json:"answer"`
	Sources     []domain.Citation `json:"sources"`
	IsInventory bool              `json:"is_inventory"`
}

// Query answers a one-off question without a chat session.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.svc.RetrieveAndAnswer(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			api.Error(w, http.StatusBadRequest, "query is required")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Answer:      answer.Answer,
		Sources:     answer.Citations,
		IsInventory: answer.IsInventory,
	})
}
