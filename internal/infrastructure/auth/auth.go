package auth

import (
	"context"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"imessage-mcp/internal/infrastructure/config"
	"imessage-mcp/internal/interfaces/httpserver/responses"
	"imessage-mcp/utils/platformerrors"
)

// unauthenticated paths; health and metrics scrapes never carry tokens
var openPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Validator authenticates bearer tokens against a JWKS endpoint. A nil
// Validator disables auth entirely, which is the default for local stdio use.
type Validator struct {
	jwks   *keyfunc.JWKS
	logger zerolog.Logger
}

// NewValidator builds a JWKS-backed validator when AUTH_JWKS_URL is set,
// otherwise returns nil and the HTTP server runs unauthenticated.
func NewValidator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Validator, error) {
	if cfg.AuthJWKSURL == "" {
		return nil, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			logger.Warn().Err(err).Msg("JWKS refresh failed")
		},
	})
	if err != nil {
		return nil, err
	}

	return &Validator{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// Ready reports whether key material is available.
func (v *Validator) Ready() bool {
	return v != nil && v.jwks != nil && len(v.jwks.KIDs()) > 0
}

// Middleware rejects requests without a valid bearer token.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		if openPaths[reqCtx.Request.URL.Path] {
			reqCtx.Next()
			return
		}

		header := reqCtx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized,
				"missing bearer token", "2e6a9c41-8d0f-4b57-a3e2-1c5b7d9f0a38")
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(raw, v.jwks.Keyfunc)
		if err != nil || !token.Valid {
			v.logger.Warn().Err(err).Msg("rejected bearer token")
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized,
				"invalid bearer token", "9b3d5f17-42ca-4e80-b6a9-7e0c1d8f2a54")
			return
		}

		reqCtx.Set("auth_token", token)
		reqCtx.Next()
	}
}
