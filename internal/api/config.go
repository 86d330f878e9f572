package api

import (
	"github.com/BurntSushi/toml"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/internal/validation"
)

// Defaults applied by DefaultConfig.
const (
	DefaultPort         = 8080
	DefaultCacheEntries = 1024
	DefaultBurstSize    = 10
)

// Config holds server configuration.
type Config struct {
	Port              int        `toml:"port"`
	RateLimitRequests int        `toml:"rate_limit_requests"` // Requests per minute (0 = disabled)
	RateLimitBurst    int        `toml:"rate_limit_burst"`    // Burst size
	AllowedOrigins    []string   `toml:"allowed_origins"`     // CORS and WebSocket origins (empty = allow all)
	CacheEntries      int        `toml:"cache_entries"`       // Max entries in the parse and render caches
	RequestSizeLimit  int64      `toml:"request_size_limit"`  // Max request body size in bytes
	Auth              AuthConfig `toml:"auth"`                // Authentication configuration
	TLS               TLSConfig  `toml:"tls"`                 // TLS configuration
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`   // Enable HTTPS
	CertFile string `toml:"cert_file"` // Path to TLS certificate file
	KeyFile  string `toml:"key_file"`  // Path to TLS private key file
}

// ServerConfig is the active server configuration.
var ServerConfig = DefaultConfig()

// DefaultConfig returns the configuration used when no file or flags
// override it. The body limit leaves room for entity escaping and JSON
// overhead on top of the largest accepted markup input.
func DefaultConfig() Config {
	return Config{
		Port:             DefaultPort,
		RateLimitBurst:   DefaultBurstSize,
		CacheEntries:     DefaultCacheEntries,
		RequestSizeLimit: validation.MaxFileSize,
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}

	return cfg, nil
}
