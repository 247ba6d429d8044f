package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helix-kb/helix/internal/api"
	"github.com/helix-kb/helix/internal/domain"
)

type SourceCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	List(ctx context.Context, status domain.SourceStatus, limit int) ([]*domain.Source, error)
}

type SourceRemover interface {
	RemoveSource(ctx context.Context, sourceID string) (int64, error)
}

type SourceHandler struct {
	catalog SourceCatalog
	remover SourceRemover
}

func NewSourceHandler(catalog SourceCatalog, remover SourceRemover) *SourceHandler {
	return &SourceHandler{catalog: catalog, remover: remover}
}

type SourceResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	ScrapedAt string `json:"scraped_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

func sourceToResponse(s *domain.Source) *SourceResponse {
	resp := &SourceResponse{
		ID:        s.ID,
		URL:       s.URL,
		Title:     s.Title,
		Kind:      s.Kind(),
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ScrapedAt != nil {
		resp.ScrapedAt = s.ScrapedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.SourceStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		api.Error(w, http.StatusBadRequest, "invalid status")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	sources, err := h.catalog.List(r.Context(), status, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*SourceResponse, 0, len(sources))
	for _, s := range sources {
		out = append(out, sourceToResponse(s))
	}
	api.Success(w, http.StatusOK, out)
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	source, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, sourceToResponse(source))
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.remover.RemoveSource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]int64{"vectors_deleted": deleted})
}
