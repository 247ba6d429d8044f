package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helix-kb/helix/internal/config"
	"github.com/helix-kb/helix/internal/database"
)

// ReindexCmd returns the reindex command
func ReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Reindex completed sources missing from the vector index",
		RunE:  runReindex,
	}
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to reindex")
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

	report, err := app.reconciler.ReindexMissing(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed: %d\n", report.Indexed)
	fmt.Printf("Skipped: %d\n", report.Skipped)
	fmt.Printf("Failed:  %d\n", report.Failed)
	for _, id := range report.FailedSources {
		fmt.Printf("  failed: %s\n", id)
	}
	return nil
}
