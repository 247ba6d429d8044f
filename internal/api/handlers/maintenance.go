package handlers

import (
	"context"
	"net/http"

	"github.com/helix-kb/helix/internal/api"
	"github.com/helix-kb/helix/internal/service"
)

type MaintenanceService interface {
	Audit(ctx context.Context) (*service.AuditReport, error)
	ReindexMissing(ctx context.Context) (*service.ReindexReport, error)
}

type MaintenanceHandler struct {
	svc MaintenanceService
}

func NewMaintenanceHandler(svc MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

type AuditResponse struct {
	TotalVectors    int                 `json:"total_vectors"`
	VectorsBySource map[string]int      `json:"vectors_by_source"`
	Orphans         map[string][]string `json:"orphans"`
	Missing         []string            `json:"missing"`
}

func (h *MaintenanceHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Audit(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, AuditResponse{
		TotalVectors:    report.TotalVectors,
		VectorsBySource: report.VectorsBySource,
		Orphans:         report.Orphans,
		Missing:         report.Missing,
	})
}

type ReindexResponse struct {
	Indexed       int      `json:"indexed"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	FailedSources []string `json:"failed_sources,omitempty"`
}

func (h *MaintenanceHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ReindexMissing(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, ReindexResponse{
		Indexed:       report.Indexed,
		Skipped:       report.Skipped,
		Failed:        report.Failed,
		FailedSources: report.FailedSources,
	})
}
