package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medassist/medassist/internal/config"
	domainanalytics "github.com/medassist/medassist/internal/domain/analytics"
	"github.com/medassist/medassist/internal/domain/knowledge"
	"github.com/medassist/medassist/internal/domain/patient"
	"github.com/medassist/medassist/internal/domain/payment"
	"github.com/medassist/medassist/internal/domain/queryhistory"
	"github.com/medassist/medassist/internal/domain/settings"
	"github.com/medassist/medassist/internal/domain/upload"
	"github.com/medassist/medassist/internal/llm"
	"github.com/medassist/medassist/internal/platform/analytics"
	"github.com/medassist/medassist/internal/platform/auth"
	"github.com/medassist/medassist/internal/platform/db"
	"github.com/medassist/medassist/internal/platform/middleware"
	"github.com/medassist/medassist/internal/rag"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medassist-server",
		Short: "MedAssist medical assistant API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MedAssist API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate down - keep as warning
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Roll back by applying a new forward migration instead.")
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the medical knowledge base with a starter corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			svc := knowledge.NewService(knowledge.NewRepoPG(pool), logger)

			if !force {
				count, err := svc.Count(ctx)
				if err != nil {
					return err
				}
				if count > 0 {
					fmt.Printf("Knowledge base already has %d entries; use --force to seed anyway.\n", count)
					return nil
				}
			}

			added := 0
			for _, e := range starterCorpus() {
				entry := e
				if err := svc.Add(ctx, &entry); err != nil {
					return fmt.Errorf("seeding %q: %w", entry.Title, err)
				}
				added++
			}
			fmt.Printf("Seeded %d knowledge entries.\n", added)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Seed even if the knowledge base is not empty")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Generation backend. Initialize never fails hard: when the model
	// server is unreachable the client runs degraded and the RAG layer
	// falls back to canned answers.
	llmClient := llm.New(llm.Config{
		BaseURL:      cfg.OllamaURL,
		Model:        cfg.OllamaModel,
		APIKey:       cfg.OllamaAPIKey,
		SystemPrompt: cfg.LLMSystemPrompt,
		Temperature:  cfg.LLMTemperature,
		TopP:         cfg.LLMTopP,
		MaxTokens:    cfg.LLMMaxTokens,
		Timeout:      cfg.LLMTimeout(),
	}, logger)
	if err := llmClient.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("generation backend unavailable; responses will use fallbacks")
	}
	defer llmClient.Shutdown()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
	}))
	e.Use(middleware.Sanitize())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M", "25M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Auth middleware
	switch cfg.ResolvedAuthMode() {
	case "development":
		e.Use(auth.DevAuthMiddleware())
	case "jwt":
		e.Use(auth.JWTMiddleware(cfg.JWTSecret))
	default:
		e.Use(auth.APIKeyMiddleware(cfg.APIKey))
	}

	// Usage tracking
	tracker := analytics.NewUsageTracker(10000)
	e.Use(analytics.UsageMiddleware(tracker))

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Domain services
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	knowledgeSvc := knowledge.NewService(knowledge.NewRepoPG(pool), logger)
	historySvc := queryhistory.NewService(queryhistory.NewRepoPG(pool))
	paymentSvc := payment.NewService(payment.NewRepoPG(pool))
	uploadSvc := upload.NewService(upload.NewRepoPG(pool), cfg.UploadDir, logger)
	settingsSvc := settings.NewService(settings.NewRepoPG(pool))

	orchestrator := rag.NewOrchestrator(patientSvc, knowledgeSvc, historySvc, llmClient, logger)

	// Handlers
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	knowledge.NewHandler(knowledgeSvc).RegisterRoutes(apiV1)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)
	upload.NewHandler(uploadSvc).RegisterRoutes(apiV1)
	settings.NewHandler(settingsSvc, pool).RegisterRoutes(apiV1)
	rag.NewHandler(orchestrator, pool).RegisterRoutes(apiV1)
	domainanalytics.NewHandler(domainanalytics.NewRepoPG(pool), llmClient).RegisterRoutes(apiV1)
	analytics.NewUsageHandler(tracker).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
