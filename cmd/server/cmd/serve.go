package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/books/internal/api"
	"github.com/Togather-Foundation/books/internal/auth"
	"github.com/Togather-Foundation/books/internal/config"
	"github.com/Togather-Foundation/books/internal/domain/books"
	"github.com/Togather-Foundation/books/internal/metrics"
	"github.com/Togather-Foundation/books/internal/storage/postgres"
	"github.com/Togather-Foundation/books/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Books API HTTP server",
	Long: `Start the Books API HTTP server and begin accepting requests.

The server will:
- Load configuration from environment variables
- Apply pending database migrations (DATABASE_AUTO_MIGRATE)
- Seed an empty catalogue with the default books (DATABASE_SEED)
- Handle graceful shutdown on SIGINT/SIGTERM

Required environment:
  DATABASE_URL              PostgreSQL connection string
  API_KEY or API_KEY_HASH   shared secret guarding write endpoints

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug --log-format console`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8000)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("env", cfg.Environment).Msg("starting Books API")

	metrics.Init(Version, GitCommit, BuildDate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info().Msg("database migrations applied")
	}

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}
	service := books.NewService(repo.Books())

	if cfg.Database.SeedOnStart {
		if err := seedCatalogue(ctx, service, books.DefaultSeed, logger); err != nil {
			return err
		}
	}

	verifier, err := auth.NewVerifier(cfg.Auth.APIKey, cfg.Auth.APIKeyHash)
	if err != nil {
		return fmt.Errorf("api key: %w", err)
	}

	handler := api.NewRouter(ctx, api.Deps{
		Config:    cfg,
		Logger:    logger,
		Books:     service,
		Health:    repo,
		Verifier:  verifier,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return metrics.NewDBCollector(pool).Run(gctx, 15*time.Second)
	})
	group.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, cfg.Server.ShutdownTimeout, logger)
	})

	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	return cfg, nil
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

func seedCatalogue(ctx context.Context, service *books.Service, inputs []books.BookInput, logger zerolog.Logger) error {
	inserted, err := service.Seed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if inserted > 0 {
		metrics.BookWrites.WithLabelValues("seed").Add(float64(inserted))
		logger.Info().Int("books", inserted).Msg("seeded empty catalogue")
	}
	return nil
}

func gracefulShutdown(server *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
