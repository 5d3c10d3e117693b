package routes

import (
	"github.com/google/wire"

	"imessage-mcp/internal/interfaces/httpserver/routes/mcp"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	mcp.NewMessagingMCP,
	mcp.NewMCPRoute,
)
