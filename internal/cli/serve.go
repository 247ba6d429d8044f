package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/helix-kb/helix/internal/api/handlers"
	"github.com/helix-kb/helix/internal/config"
	"github.com/helix-kb/helix/internal/database"
	"github.com/helix-kb/helix/internal/jobs"
	"github.com/helix-kb/helix/internal/openai"
	"github.com/helix-kb/helix/internal/repository"
	"github.com/helix-kb/helix/internal/scrape"
	"github.com/helix-kb/helix/internal/server"
	"github.com/helix-kb/helix/internal/service"
	"github.com/helix-kb/helix/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the helix API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	applyPortFlag(cmd, cfg)

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required to serve")
	}

	app, err := buildApp(cfg, pool)
	if err != nil {
		return err
	}

	var reconcileWorker *jobs.Worker
	if cfg.ReconcileInterval > 0 {
		processor := jobs.NewReconcileProcessor(app.reconciler)
		reconcileWorker = jobs.NewWorker(processor, cfg.ReconcileInterval)
		go reconcileWorker.Start(ctx)
		log.Println("reconcile worker started")
	}

	routerCfg := server.RouterConfig{
		QueryHandler:       handlers.NewQueryHandler(app.engine),
		ChatHandler:        handlers.NewChatHandler(app.chat),
		SourceHandler:      handlers.NewSourceHandler(app.sources, app.engine),
		IngestHandler:      handlers.NewIngestHandler(app.ingestor),
		MaintenanceHandler: handlers.NewMaintenanceHandler(app.reconciler),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reconcileWorker != nil {
		reconcileWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// applyPortFlag lets an explicit --port override the configured port, even
// when the flag value equals its default.
func applyPortFlag(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("port") {
		return
	}
	if port, err := cmd.Flags().GetString("port"); err == nil && port != "" {
		cfg.Port = port
	}
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database is at version %d", version)
	}

	return nil
}

// app bundles the wired services shared by serve and the maintenance commands.
type app struct {
	engine     *service.Engine
	chat       *service.ChatService
	ingestor   *service.Ingestor
	reconciler *service.Reconciler
	sources    *repository.SourceRepository
}

func buildApp(cfg *config.Config, pool *pgxpool.Pool) (*app, error) {
	sourceRepo := repository.NewSourceRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	chatRepo := repository.NewChatRepository(pool)

	embedClient := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		Timeout:        cfg.EmbedTimeout,
	})
	llmClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.ChatModel,
		Timeout:   cfg.LLMTimeout,
	})

	chunkCfg := service.ChunkConfig{MaxChars: cfg.ChunkMaxChars, Overlap: cfg.ChunkOverlap}
	if err := chunkCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk config: %w", err)
	}

	index := service.NewEmbeddingIndexWithConfig(embedClient, chunkRepo, chunkCfg)
	retriever := service.NewRetriever(index, sourceRepo)
	reconciler := service.NewReconciler(index, sourceRepo)
	engine := service.NewEngine(index, retriever, reconciler, llmClient)

	scraper := scrape.NewScraper(cfg.ScrapeTimeout)
	ingestor := service.NewIngestor(sourceRepo, index, scraper)
	chat := service.NewChatService(chatRepo, engine, llmClient)

	return &app{
		engine:     engine,
		chat:       chat,
		ingestor:   ingestor,
		reconciler: reconciler,
		sources:    sourceRepo,
	}, nil
}
