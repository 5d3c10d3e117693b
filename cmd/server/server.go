package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"imessage-mcp/internal/domain/messaging"
	"imessage-mcp/internal/infrastructure/config"
	"imessage-mcp/internal/infrastructure/logger"
	_ "imessage-mcp/internal/infrastructure/metrics" // Register Prometheus metrics
	"imessage-mcp/internal/interfaces/httpserver"
	"imessage-mcp/internal/interfaces/httpserver/routes/mcp"
)

type Application struct {
	config       *config.Config
	httpServer   *httpserver.HTTPServer
	mcpRoute     *mcp.MCPRoute
	bridgeClient messaging.BridgeClient

	shutdownOnce sync.Once
}

// Start serves the configured transport until ctx is cancelled. Cleanup runs
// exactly once no matter which path exits first.
func (app *Application) Start(ctx context.Context) error {
	defer app.Shutdown()

	if app.config.IsStdio() {
		return app.mcpRoute.ServeStdio(ctx)
	}

	log.Info().Str("http_port", app.config.HTTPPort).Msg("Server listening")
	return app.httpServer.Run(ctx)
}

// Shutdown releases the bridge handle. Guarded to run at most once.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		if err := app.bridgeClient.Close(); err != nil {
			log.Warn().Err(err).Msg("bridge close failed")
		}
		log.Info().Msg("shutdown complete")
	})
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("info", "json", os.Stderr)
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Over stdio the protocol owns stdout; diagnostics go to stderr.
	var sink io.Writer = os.Stdout
	if cfg.IsStdio() {
		sink = os.Stderr
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, sink)
	log.Info().
		Str("transport", cfg.MCPTransport).
		Str("log_level", cfg.LogLevel).
		Msg("Starting iMessage MCP server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create application with dependency injection
	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Server terminated")
	}
}
