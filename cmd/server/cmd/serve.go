package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alumni-informatik/events-server/internal/api"
	"github.com/alumni-informatik/events-server/internal/config"
	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/metrics"
	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
	"github.com/alumni-informatik/events-server/internal/uploads"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the events HTTP server",
	Long: `Start the events HTTP server and begin accepting requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Initialize the events JSON document and the upload directory
- Serve the public listing, the admin area, and the JSON feed
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  events-server serve

  # Start on a specific host and port
  events-server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  events-server serve --log-level debug

  # Start with a config file
  events-server serve --config /etc/events-server/config.yaml`,
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
	logger.Info().Msg("starting events server")

	metrics.Init(Version, GitCommit, BuildDate)

	store, err := jsonfile.New(cfg.Storage.EventsFile, cfg.Storage.LockTimeout)
	if err != nil {
		return fmt.Errorf("event store init failed: %w", err)
	}

	ingest, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.PublicPath, cfg.Uploads.MaxImageBytes)
	if err != nil {
		return fmt.Errorf("upload directory init failed: %w", err)
	}

	service := events.NewService(store, ingest, cfg.Location())

	// Materialize the document and seed the events gauge.
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	collection, err := store.Load(initCtx)
	initCancel()
	if err != nil {
		return fmt.Errorf("events file not readable: %w", err)
	}
	metrics.EventsTotal.Set(float64(len(collection)))
	logger.Info().Int("events", len(collection)).Str("file", store.Path()).Msg("event store ready")

	router, err := api.NewRouter(api.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Service:   service,
		Version:   Version,
		GitCommit: GitCommit,
	})
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	shutdown(server, logger)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
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

func shutdown(server *http.Server, logger zerolog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
