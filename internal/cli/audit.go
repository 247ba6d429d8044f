package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helix-kb/helix/internal/config"
	"github.com/helix-kb/helix/internal/database"
)

// AuditCmd returns the audit command
func AuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit catalog/index consistency",
		Long:  "Report orphaned vectors and completed sources missing from the index",
		RunE:  runAudit,
	}

	cmd.Flags().Bool("purge", false, "Delete orphaned vectors after confirmation")

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	app, err := buildApp(cfg, pool)
	if err != nil {
		return err
	}

	report, err := app.reconciler.Audit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total vectors: %d\n", report.TotalVectors)
	fmt.Printf("Sources with vectors: %d\n", len(report.VectorsBySource))
	fmt.Printf("Orphaned source ids: %d\n", len(report.Orphans))
	for sourceID, chunkIDs := range report.Orphans {
		fmt.Printf("  %s: %d vectors\n", sourceID, len(chunkIDs))
	}
	fmt.Printf("Completed sources missing from index: %d\n", len(report.Missing))
	for _, id := range report.Missing {
		fmt.Printf("  %s\n", id)
	}

	purge, _ := cmd.Flags().GetBool("purge")
	if !purge || len(report.Orphans) == 0 {
		return nil
	}

	fmt.Print("Delete all orphaned vectors? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("aborted")
		return nil
	}

	deleted, err := app.reconciler.PurgeOrphans(ctx, report.Orphans)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d orphaned vectors\n", deleted)
	return nil
}
