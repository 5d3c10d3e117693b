package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the iMessage MCP server
type Config struct {
	MCPTransport  string `env:"MCP_TRANSPORT" envDefault:"stdio"` // stdio or http
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8091"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"` // json or console
	BridgeURL     string `env:"BRIDGE_URL" envDefault:"http://localhost:1234"`
	BridgeAPIKey  string `env:"BRIDGE_API_KEY"`
	DefaultRegion string `env:"DEFAULT_REGION" envDefault:"US"` // region for national-format phone numbers
	AuthJWKSURL   string `env:"AUTH_JWKS_URL"`                  // enables bearer auth on the HTTP transport when set
}

// IsStdio reports whether the MCP server speaks the stdio line protocol.
func (c *Config) IsStdio() bool {
	return c.MCPTransport != "http"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
