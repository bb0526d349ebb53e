package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FOODSCAN_ prefix), flags, or YAML config files.
type Config struct {
	CatalogURL      string        `default:"https://world.openfoodfacts.org/api/v2" usage:"Product catalog base URL" flag:"catalog-url"`
	PricesURL       string        `default:"https://prices.openfoodfacts.org/api/v1" usage:"Pricing service base URL" flag:"prices-url"`
	SessionURL      string        `default:"https://prices.openfoodfacts.org/api/v1/session" usage:"Pricing service login endpoint" flag:"session-url"`
	Languages       []string      `default:"en" usage:"Language fallback order for product lookups"`
	Pricing         bool          `default:"true" usage:"Enable price enrichment"`
	CredentialsFile string        `usage:"Path to the credential file (discovered upward from the working directory when empty)" flag:"credentials-file"`
	HTTPTimeout     time.Duration `default:"10s" usage:"Outbound HTTP request timeout" flag:"http-timeout"`
	Cache           CacheConfig
	Serve           ServeConfig
}

// CacheConfig controls the product cache backend.
type CacheConfig struct {
	Backend   string        `default:"memory" usage:"Product cache backend: off, memory, or redis"`
	TTL       time.Duration `default:"24h" usage:"Cached product lifetime"`
	RedisAddr string        `default:"localhost:6379" usage:"Redis address for the redis backend" flag:"redis-addr"`
}

// ServeConfig controls the serve-mode HTTP server.
type ServeConfig struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FOODSCAN",
		Files:     []string{"config.yaml", "/etc/foodscan/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Cache.Backend {
	case "off", "memory", "redis":
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like PORT to the application's
// FOODSCAN_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Serve.Addr == "0.0.0.0:8080" {
		c.Serve.Addr = "0.0.0.0:" + port
	}
}
