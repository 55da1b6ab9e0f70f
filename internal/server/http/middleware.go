package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/presentation/http/response"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

const (
	headerPermissionsPolicy = "Permissions-Policy"
	permissionsPolicy       = "geolocation=(), microphone=(), camera=()"
)

// publicPaths lists routes reachable without an API key.
func publicPaths(cfg config.Config) middleware.Skipper {
	open := map[string]struct{}{"/health": {}, DocsPath: {}, OpenAPIPath: {}}
	if cfg.Observability.EnableMetrics && cfg.Observability.PrometheusPath != "" {
		open[cfg.Observability.PrometheusPath] = struct{}{}
	}
	return func(c echo.Context) bool {
		_, ok := open[c.Request().URL.Path]
		return ok
	}
}

// SecurityHeaders sets the fixed response hardening headers.
func SecurityHeaders() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.SecureWithConfig(middleware.SecureConfig{
			XSSProtection:      "1; mode=block",
			ContentTypeNosniff: "nosniff",
			XFrameOptions:      "DENY",
			ReferrerPolicy:     "no-referrer",
		}),
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				h := c.Response().Header()
				h.Set(headerPermissionsPolicy, permissionsPolicy)
				h.Del(echo.HeaderServer)
				h.Del("X-Powered-By")
				return next(c)
			}
		},
	}
}

// CORS restricts cross-origin access to the configured origins.
func CORS(cfg config.Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Security.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, cfg.Auth.Header},
	})
}

// APIKeyAuth rejects requests whose key header is absent or does not match
// the configured key. An empty configured key rejects everything.
func APIKeyAuth(cfg config.Config, logger *zap.Logger) echo.MiddlewareFunc {
	expected := []byte(cfg.Auth.APIKey)
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper:   publicPaths(cfg),
		KeyLookup: "header:" + cfg.Auth.Header,
		Validator: func(key string, c echo.Context) (bool, error) {
			if len(expected) == 0 {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(key)), expected) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			var missing *middleware.ErrKeyAuthMissing
			if errors.As(err, &missing) {
				return response.New(c).WithError(errorbank.Unauthorized("API key is missing")).Build()
			}
			logger.Warn("rejected api key",
				zap.String("path", c.Request().URL.Path),
				zap.String("remote_ip", c.RealIP()),
			)
			return response.New(c).WithError(errorbank.Unauthorized("invalid API key")).Build()
		},
	})
}

// RateLimit caps each API key at the configured requests per minute. Callers
// without a key fall back to their address.
func RateLimit(cfg config.Config, logger *zap.Logger) echo.MiddlewareFunc {
	rl := cfg.Security.RateLimit
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(rl.RequestsPerMinute) / 60),
		Burst:     rl.Burst,
		ExpiresIn: rl.ExpiresIn,
	})
	header := cfg.Auth.Header
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: publicPaths(cfg),
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if key := strings.TrimSpace(c.Request().Header.Get(header)); key != "" {
				return key, nil
			}
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.New(c).WithError(errorbank.Internal("rate limiter unavailable", errorbank.WithCause(err))).Build()
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("rate limit exceeded", zap.String("path", c.Request().URL.Path))
			return response.New(c).WithError(errorbank.TooManyRequests("rate limit exceeded")).Build()
		},
	})
}
