// @title           Call Orchestration API
// @version         1.0
// @description     Outbound IVR call orchestration service.
// @description     Places automated calls, tracks their lifecycle and streams
// @description     live transcripts with resolved answers over WebSocket.

// @host      localhost:3001
// @BasePath  /v1

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/config"
	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/domain/resolution"
	"github.com/openivr/call-server/internal/domain/retry"
	"github.com/openivr/call-server/internal/infrastructure/observability"
	"github.com/openivr/call-server/internal/infrastructure/oracle"
	"github.com/openivr/call-server/internal/infrastructure/store"
	"github.com/openivr/call-server/internal/infrastructure/telephony"
	"github.com/openivr/call-server/internal/infrastructure/webhook"
	"github.com/openivr/call-server/internal/interfaces/httpserver"
	"github.com/openivr/call-server/internal/interfaces/httpserver/handlers"
	"github.com/openivr/call-server/internal/logger"
	"github.com/openivr/call-server/internal/worker"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the application.
func (a *Application) Start(ctx context.Context) error {
	// Run HTTP server (blocks until context cancelled)
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize telephony clients
	control, err := telephony.NewClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telephony client")
	}
	analysis, err := telephony.NewAnalysisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis client")
	}

	// Initialize session store (mutex-based, no goroutine)
	sessionStore := store.NewMemoryStore(log)

	// Terminal status webhook (disabled when no URL is configured)
	notifier := webhook.NewNotifier(cfg.StatusWebhookURL, cfg.StatusWebhookTimeout, log)

	// Segment fetcher shared by the poller and the stream handler
	fetcher := worker.NewFetcher(
		sessionStore,
		analysis,
		cfg.SegmentPageSize,
		cfg.SegmentPageDelay,
		retry.AnalysisNotReadyPolicy(),
		log,
	)

	pollPolicy := retry.Policy{
		MaxRetries:      cfg.StatusPollRetries,
		InitialDelay:    cfg.StatusPollInterval,
		MaxDelay:        cfg.StatusPollInterval,
		BackoffStrategy: retry.BackoffFixed,
	}
	poller := worker.NewPoller(ctx, sessionStore, control, fetcher, notifier, pollPolicy, log)

	// Answer resolution pipeline
	oracleClient := oracle.NewClient(cfg, log)
	pipeline := resolution.NewPipeline(sessionStore, oracleClient, cfg.OracleTimeout, log)

	// Initialize call service
	callService := call.NewService(sessionStore, control, poller, log)

	// Initialize handlers
	callHandler := handlers.NewCallHandler(callService)
	streamHandler := handlers.NewStreamHandler(
		sessionStore,
		fetcher,
		pipeline,
		cfg.StreamInterval,
		cfg.StreamFetchCadence,
		log,
	)
	handlerProvider := handlers.NewProvider(callHandler, streamHandler)

	// Initialize HTTP server
	httpServer := httpserver.New(cfg, log, handlerProvider)

	// Create and start application
	app := NewApplication(httpServer, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
