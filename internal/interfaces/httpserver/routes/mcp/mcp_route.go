package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdlog "log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"imessage-mcp/internal/interfaces/httpserver/responses"
	"imessage-mcp/utils/platformerrors"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,
}

type MCPRoute struct {
	messagingMCP *MessagingMCP
	mcpServer    *mcpserver.MCPServer
	httpHandler  http.Handler
}

func NewMCPRoute(
	messagingMCP *MessagingMCP,
) *MCPRoute {
	server := mcpserver.NewMCPServer("imessage-mcp", "1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	messagingMCP.RegisterTools(server)

	return &MCPRoute{
		messagingMCP: messagingMCP,
		mcpServer:    server,
		httpHandler:  mcpserver.NewStreamableHTTPServer(server, mcpserver.WithStateLess(true)),
	}
}

func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP
// server. Unknown tool names and unregistered methods surface as JSON-RPC
// protocol faults from the SDK; tool-level failures stay inside error-flagged
// results.
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Force acceptable content types for the streamable handler even if the
	// client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

// ServeStdio runs the MCP server over the stdio line protocol until ctx is
// cancelled. SDK error output goes through zerolog, never stdout.
func (route *MCPRoute) ServeStdio(ctx context.Context) error {
	stdioServer := mcpserver.NewStdioServer(route.mcpServer)
	stdioServer.SetErrorLogger(stdlog.New(log.Logger, "", 0))

	log.Info().Msg("MCP server listening on stdio")
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			readErr := platformerrors.AsError(reqCtx.Request.Context(), platformerrors.LayerRoute, err, "failed to read MCP request body")
			responses.HandleError(reqCtx, readErr, "failed to read MCP request body")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "empty MCP request body", "5d2e7b90-41ac-4f68-9c03-8a6f3e1d7b25")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}

		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid MCP request payload", "8a4c6e13-25fd-4907-b1e8-0d9b7f2c5a61")
			return
		}

		if payload.Method == "" {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "missing method field in MCP request", "1f9b3d57-68ea-4c20-a5d4-7c0e2b8f6a93")
			return
		}

		if !allowedMethods[payload.Method] {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unsupported MCP method: "+payload.Method, "6b0d4f28-93ce-4a71-b6e5-2f8a1c7d9e04")
			return
		}

		reqCtx.Next()
	}
}
