// Package api provides the TAML REST and WebSocket playground server.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/suin/go-taml/core/cache"
	"github.com/suin/go-taml/internal/logging"
	"github.com/suin/go-taml/internal/server"
)

// Start starts the API server with the given configuration.
func Start(cfg Config) error {
	ServerConfig = cfg

	// Validate authentication configuration
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}

	// Validate TLS configuration if enabled
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	// Size the parse and render caches
	if cfg.CacheEntries > 0 {
		documents = cache.NewDocumentCache(cache.Config{MaxSize: cfg.CacheEntries})
		renderings = cache.NewRenderCache(cfg.CacheEntries)
	}

	// Initialize WebSocket hub and rate limiter
	GlobalHub = NewHub()
	go GlobalHub.Run()
	GlobalWebSocketRateLimiter = NewWebSocketRateLimiter()

	// Setup routes
	mux := setupRoutes()

	// Log server startup with appropriate protocol
	protocol := "http"
	wsProtocol := "ws"
	if cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
		logging.Info("TLS enabled", "cert_file", server.AbsPath(cfg.TLS.CertFile))
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"cache_entries", cfg.CacheEntries)

	// Build middleware chain with security headers
	cspConfig := server.APICSPConfig()
	var handler http.Handler = server.SecurityHeadersWithCSP(cspConfig, mux)

	// Apply authentication middleware if configured
	if cfg.Auth.Enabled {
		handler = AuthMiddleware(cfg.Auth, handler)
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required")
	} else {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", false,
			"note", "all requests allowed")
	}

	// Apply rate limiting if configured
	if cfg.RateLimitRequests > 0 {
		rateLimitConfig := RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		}
		if rateLimitConfig.BurstSize == 0 {
			rateLimitConfig.BurstSize = DefaultBurstSize
		}
		rateLimiter := NewRateLimiter(rateLimitConfig)
		handler = rateLimiter.Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rateLimitConfig.RequestsPerMinute,
			"burst_size", rateLimitConfig.BurstSize)
	}

	// Apply CORS middleware (outermost)
	corsConfig := server.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	}
	handler = server.CORSMiddlewareWithConfig(corsConfig, handler)
	if len(cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	// Apply logging middleware
	handler = logging.CombinedMiddleware(handler)

	// Start server with or without TLS
	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/tags", handleTags)
	mux.HandleFunc("/renderers", handleRenderers)
	mux.HandleFunc("/parse", handleParse)
	mux.HandleFunc("/render", handleRender)
	mux.HandleFunc("/convert", handleConvert)
	mux.HandleFunc("/ws", SecureWebSocketHandler(GlobalHub, webSocketConfig(), GlobalWebSocketRateLimiter))

	return mux
}

// webSocketConfig derives the WebSocket security settings from the active
// server configuration.
func webSocketConfig() WebSocketSecurityConfig {
	wsConfig := DefaultWebSocketSecurityConfig()
	if len(ServerConfig.AllowedOrigins) > 0 {
		wsConfig.AllowedOrigins = ServerConfig.AllowedOrigins
	}
	wsConfig.RequireAuth = ServerConfig.Auth.Enabled
	wsConfig.AuthConfig = ServerConfig.Auth
	return wsConfig
}
