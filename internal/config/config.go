// Package config loads the storefront settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"storefront/internal/cart"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Cart     CartConfig     `yaml:"cart"`
	Brands   BrandsConfig   `yaml:"brands"`
	Orders   OrdersConfig   `yaml:"orders"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	MetricsToken string `yaml:"metrics_token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type UpstreamConfig struct {
	// Offline serves the built-in demo catalog instead of calling BaseURL.
	Offline   bool          `yaml:"offline"`
	BaseURL   string        `yaml:"base_url"`
	ImagesURL string        `yaml:"images_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
}

type CartConfig struct {
	IdleTTL        time.Duration `yaml:"idle_ttl"`
	SweepEvery     time.Duration `yaml:"sweep_every"`
	MaxAddQuantity int           `yaml:"max_add_quantity"`

	// MaxLineQuantity bounds a single line reached through add or update.
	MaxLineQuantity int `yaml:"max_line_quantity"`
}

type BrandsConfig struct {
	WritesPerMinute int `yaml:"writes_per_minute"`
}

type OrdersConfig struct {
	PageSize int `yaml:"page_size"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Probability float64 `yaml:"probability"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Log:    LogConfig{Level: "info"},
		Upstream: UpstreamConfig{
			BaseURL:   "https://giancarlo.alwaysdata.net",
			ImagesURL: "https://giancarlo.alwaysdata.net/images",
			Timeout:   5 * time.Second,
		},
		Cache: CacheConfig{TTL: 30 * time.Second, RedisPrefix: "storefront:"},
		Cart: CartConfig{
			IdleTTL:         2 * time.Hour,
			SweepEvery:      time.Minute,
			MaxAddQuantity:  99,
			MaxLineQuantity: 999,
		},
		Brands:  BrandsConfig{WritesPerMinute: 30},
		Orders:  OrdersConfig{PageSize: 20},
		Tracing: TracingConfig{Probability: 1.0},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.MetricsToken, "METRICS_TOKEN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Upstream.BaseURL, "UPSTREAM_URL")
	setString(&c.Upstream.ImagesURL, "UPSTREAM_IMAGES_URL")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Tracing.Endpoint, "OTEL_ENDPOINT")

	if v := os.Getenv("UPSTREAM_OFFLINE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("UPSTREAM_OFFLINE: %w", err)
		}
		c.Upstream.Offline = b
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("UPSTREAM_TIMEOUT: %w", err)
		}
		c.Upstream.Timeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if !c.Upstream.Offline && c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required unless upstream.offline is set")
	}
	if c.Cart.IdleTTL <= 0 {
		return fmt.Errorf("cart.idle_ttl must be positive")
	}
	if c.Cart.MaxAddQuantity < 1 {
		return fmt.Errorf("cart.max_add_quantity must be at least 1")
	}
	if c.Cart.MaxLineQuantity < c.Cart.MaxAddQuantity || c.Cart.MaxLineQuantity > cart.MaxLineQuantity {
		return fmt.Errorf("cart.max_line_quantity must be within [max_add_quantity,%d]", cart.MaxLineQuantity)
	}
	if c.Brands.WritesPerMinute < 1 {
		return fmt.Errorf("brands.writes_per_minute must be at least 1")
	}
	if c.Tracing.Probability < 0 || c.Tracing.Probability > 1 {
		return fmt.Errorf("tracing.probability must be within [0,1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
