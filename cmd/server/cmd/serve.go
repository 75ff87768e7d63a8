package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/expopass/server/internal/api"
	"github.com/expopass/server/internal/api/handlers"
	"github.com/expopass/server/internal/auth"
	"github.com/expopass/server/internal/config"
	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/jobs"
	"github.com/expopass/server/internal/metrics"
	"github.com/expopass/server/internal/search"
	"github.com/expopass/server/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the location HTTP server",
	Long: `Start the location HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Connect to PostgreSQL and, when configured, the Redis search index
- Start River background workers for usage reconciliation and reindexing
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Override config with flags if provided
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting location server")

	metrics.Init(Version, GitCommit, BuildDate)

	pool, err := openPool(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	store, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	var (
		indexer    locations.Indexer = search.Noop{}
		searcher   handlers.Searcher
		searchPing func(ctx context.Context) error
		reindexer  jobs.Reindexer
	)
	if redisIndexer, client := buildIndexer(cfg); redisIndexer != nil {
		defer client.Close()
		indexer = redisIndexer
		searcher = redisIndexer
		searchPing = redisIndexer.Ping
		reindexer = redisIndexer
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("search index enabled")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; postal-code search disabled")
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Server.BaseURL)

	handler := api.NewRouter(cfg, logger, api.Deps{
		Store:      store,
		Indexer:    indexer,
		Searcher:   searcher,
		Pool:       pool,
		JWT:        jwtManager,
		Version:    Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		SearchPing: searchPing,
	})

	// Start River background job workers
	policy := jobs.NewRetryPolicy(cfg.Jobs.RetryReconciliation, cfg.Jobs.RetryReindex)
	workers := jobs.NewWorkers(locations.NewReconcileService(store), store, reindexer, logger)
	riverClient, err := jobs.NewClient(pool, workers, policy, slog.Default(), jobs.NewPeriodicJobs(cfg.Jobs.ReconcileInterval, policy))
	if err != nil {
		return fmt.Errorf("river client: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("river background job workers started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
		} else {
			logger.Info().Msg("river workers stopped")
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	// Override logging from flags if provided
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}

func openPool(cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.Database.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdle > 0 {
		poolCfg.MinConns = int32(cfg.Database.MaxIdle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return pool, nil
}

// buildIndexer returns nils when search is not configured.
func buildIndexer(cfg config.Config) (*search.RedisIndexer, *redis.Client) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return search.NewRedisIndexer(client), client
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
