//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"imessage-mcp/internal/domain"
	"imessage-mcp/internal/infrastructure"
	"imessage-mcp/internal/interfaces"
	"imessage-mcp/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "config", "httpServer", "mcpRoute", "bridgeClient"),
	)
	return nil, nil
}
