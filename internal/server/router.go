package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helix-kb/helix/internal/api"
	"github.com/helix-kb/helix/internal/api/handlers"
	"github.com/helix-kb/helix/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler       *handlers.QueryHandler
	ChatHandler        *handlers.ChatHandler
	SourceHandler      *handlers.SourceHandler
	IngestHandler      *handlers.IngestHandler
	MaintenanceHandler *handlers.MaintenanceHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/query", cfg.QueryHandler.Query)

	r.Route("/chat/sessions", func(r chi.Router) {
		r.Post("/", cfg.ChatHandler.CreateSession)
		r.Get("/", cfg.ChatHandler.ListSessions)
		r.Get("/{id}", cfg.ChatHandler.GetSession)
		r.Delete("/{id}", cfg.ChatHandler.DeleteSession)
		r.Get("/{id}/messages", cfg.ChatHandler.ListMessages)
		r.Post("/{id}/messages", cfg.ChatHandler.SendMessage)
	})

	r.Route("/sources", func(r chi.Router) {
		r.Get("/", cfg.SourceHandler.List)
		r.Get("/{id}", cfg.SourceHandler.Get)
		r.Delete("/{id}", cfg.SourceHandler.Delete)
	})

	r.Post("/scrape", cfg.IngestHandler.Scrape)
	r.Post("/documents", cfg.IngestHandler.UploadDocument)

	r.Route("/maintenance", func(r chi.Router) {
		r.Post("/audit", cfg.MaintenanceHandler.Audit)
		r.Post("/reindex", cfg.MaintenanceHandler.Reindex)
	})

	return r
}
