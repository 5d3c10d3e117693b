package infrastructure

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	"imessage-mcp/internal/domain/messaging"
	"imessage-mcp/internal/infrastructure/auth"
	"imessage-mcp/internal/infrastructure/config"
	imessageclient "imessage-mcp/internal/infrastructure/imessage"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Bridge client
	ProvideBridgeClient,

	// Auth validator
	ProvideAuthValidator,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideBridgeClient provides the iMessage bridge client
func ProvideBridgeClient(cfg *config.Config) messaging.BridgeClient {
	return imessageclient.NewClient(imessageclient.ClientConfig{
		BaseURL:       cfg.BridgeURL,
		APIKey:        cfg.BridgeAPIKey,
		DefaultRegion: cfg.DefaultRegion,
	})
}

// ProvideAuthValidator provides the auth validator
func ProvideAuthValidator(ctx context.Context, cfg *config.Config) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log.Logger)
}
