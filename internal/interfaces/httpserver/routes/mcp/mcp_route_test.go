package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func guardRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/mcp", MCPMethodGuard(allowedMCPMethods), func(c *gin.Context) {
		c.String(http.StatusOK, "passed")
	})
	return router
}

func TestMCPMethodGuard(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "allowed method", body: `{"jsonrpc":"2.0","method":"tools/call","id":1}`, wantStatus: http.StatusOK},
		{name: "tools list", body: `{"jsonrpc":"2.0","method":"tools/list","id":1}`, wantStatus: http.StatusOK},
		{name: "unsupported method", body: `{"jsonrpc":"2.0","method":"resources/list","id":1}`, wantStatus: http.StatusBadRequest},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":1}`, wantStatus: http.StatusBadRequest},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: "{", wantStatus: http.StatusBadRequest},
	}

	router := guardRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMCPMethodGuardPreservesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var seen string
	router.POST("/mcp", MCPMethodGuard(allowedMCPMethods), func(c *gin.Context) {
		buf := make([]byte, 256)
		n, _ := c.Request.Body.Read(buf)
		seen = string(buf[:n])
		c.Status(http.StatusOK)
	})

	body := `{"jsonrpc":"2.0","method":"ping","id":7}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	if seen != body {
		t.Fatalf("guard consumed the request body: got %q", seen)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestMCPMethodGuardBodyReadFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	reqCtx, _ := gin.CreateTestContext(rec)
	reqCtx.Request = httptest.NewRequest(http.MethodPost, "/mcp", failingReader{})

	MCPMethodGuard(allowedMCPMethods)(reqCtx)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"code"`) {
		t.Fatalf("expected a typed error payload, got %s", rec.Body.String())
	}
}

// jsonRPCPayload strips a server-sent-events framing if the streamable
// handler chose that encoding for the response.
func jsonRPCPayload(body string) string {
	if idx := strings.Index(body, "data: "); idx >= 0 {
		body = body[idx+len("data: "):]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[:nl]
		}
	}
	return strings.TrimSpace(body)
}

func TestServeMCPUnknownToolName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	route := NewMCPRoute(newMessagingMCP(&stubBridge{}))
	router := gin.New()
	route.RegisterRouter(router.Group("/v1"))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete_message","arguments":{}}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code >= http.StatusInternalServerError {
		t.Fatalf("unexpected status %d (body %s)", rec.Code, rec.Body.String())
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	payload := jsonRPCPayload(rec.Body.String())
	if err := json.Unmarshal([]byte(payload), &rpcResp); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}

	if rpcResp.Error == nil {
		t.Fatalf("expected a protocol fault for the unregistered tool, got result %s", rpcResp.Result)
	}
	if !strings.Contains(rpcResp.Error.Message, "not found") {
		t.Fatalf("fault should report the tool as not found, got %q", rpcResp.Error.Message)
	}
	if len(rpcResp.Result) != 0 {
		t.Fatalf("protocol fault must not carry a result, got %s", rpcResp.Result)
	}
}
