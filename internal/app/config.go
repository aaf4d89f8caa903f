package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete gateway configuration, loadable from
// environment variables (PAPERCART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string        `default:"127.0.0.1:8378" usage:"Gateway listen address"`
	UpstreamURL string        `usage:"Remote storefront API base URL (PAPERCART_UPSTREAM_URL)" flag:"upstream-url"`
	DataDir     string        `default:"" usage:"Durable client storage directory (defaults to the user config dir)" flag:"data-dir"`
	CouponPack  string        `default:"" usage:"Path to a bloom coupon pack for local pre-screening (optional)" flag:"coupon-pack"`
	CatalogTTL  time.Duration `default:"5m" usage:"Product catalog cache TTL" flag:"catalog-ttl"`
	Redis       RedisConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RedisConfig selects the Redis storage backend. An empty Addr keeps the
// default file-backed store.
type RedisConfig struct {
	Addr     string `default:"" usage:"Redis address; empty uses the file store"`
	Password string `default:"" usage:"Redis password"`
	DB       int    `default:"0" usage:"Redis database number"`
}

// CORSConfig controls Cross-Origin Resource Sharing for the browser UI.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PAPERCART",
		Files:     []string{"config.yaml", "/etc/papercart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required: set PAPERCART_UPSTREAM_URL or UPSTREAM_URL")
	}
	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve user config dir")
		}
		cfg.DataDir = filepath.Join(base, "papercart")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps standard environment variable names onto the
// PAPERCART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.UpstreamURL == "" {
		if v := os.Getenv("UPSTREAM_URL"); v != "" {
			c.UpstreamURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "127.0.0.1:8378" {
		c.Addr = "127.0.0.1:" + port
	}
}
