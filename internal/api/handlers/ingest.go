package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helix-kb/helix/internal/api"
	"github.com/helix-kb/helix/internal/domain"
)

type IngestService interface {
	ScrapeAndIndex(ctx context.Context, url string) (*domain.Source, error)
	IndexDocument(ctx context.Context, url, title, text string) (*domain.Source, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type ScrapeRequest struct {
	URL string `json:"url"`
}

// Scrape registers a URL, fetches it and indexes the extracted text.
func (h *IngestHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source, err := h.svc.ScrapeAndIndex(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			api.Error(w, http.StatusBadRequest, "url must start with http:// or https://")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sourceToResponse(source))
}

type UploadDocumentRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// UploadDocument indexes pre-extracted document text under a file:// URL.
func (h *IngestHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	var req UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source, err := h.svc.IndexDocument(r.Context(), req.URL, req.Title, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			api.Error(w, http.StatusBadRequest, "url must start with file://")
			return
		}
		if errors.Is(err, domain.ErrEmptyDocument) {
			api.Error(w, http.StatusBadRequest, "text is required")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sourceToResponse(source))
}
