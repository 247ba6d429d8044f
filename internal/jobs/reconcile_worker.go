package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/helix-kb/helix/internal/service"
	"github.com/helix-kb/helix/internal/telemetry"
)

// ReconcileProcessor runs the consistency sweep on each worker tick. Orphaned
// vectors are reported but never purged automatically; missing sources are
// reindexed.
type ReconcileProcessor struct {
	reconciler *service.Reconciler
}

func NewReconcileProcessor(reconciler *service.Reconciler) *ReconcileProcessor {
	return &ReconcileProcessor{reconciler: reconciler}
}

func (p *ReconcileProcessor) ProcessJobs(ctx context.Context) error {
	orphans, err := p.reconciler.FindOrphans(ctx)
	if err != nil {
		return err
	}
	for sourceID, chunkIDs := range orphans {
		log.Printf("reconcile: source %s has %d orphaned vectors", sourceID, len(chunkIDs))
	}
	if len(orphans) > 0 {
		telemetry.CaptureMessage(ctx, fmt.Sprintf("reconcile: %d sources have orphaned vectors", len(orphans)))
	}

	report, err := p.reconciler.ReindexMissing(ctx)
	if err != nil {
		return err
	}
	if report.Indexed > 0 || report.Failed > 0 {
		log.Printf("reconcile: reindexed %d sources, %d failed, %d skipped",
			report.Indexed, report.Failed, report.Skipped)
	}
	return nil
}
