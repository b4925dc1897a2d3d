package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	DB      DBConfig
	Redis   RedisConfig
	Metrics MetricsConfig
	Pricing PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	// DeviceID namespaces the redis keys of this installation.
	DeviceID string `envconfig:"STOREFRONT_DEVICE_ID" default:"local"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the commerce REST API.
type APIConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_API_URL" default:"https://your-store.com/wp-json/wc/v3"`
	Timeout        time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
	ConsumerKey    string        `envconfig:"STOREFRONT_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"STOREFRONT_CONSUMER_SECRET"`

	// BreakerFailures consecutive transport or 5xx failures open the circuit; 0 disables it.
	BreakerFailures uint32        `envconfig:"STOREFRONT_API_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"STOREFRONT_API_BREAKER_COOLDOWN" default:"30s"`
}

// HasConsumerCredentials reports whether the static key pair fallback is usable.
func (a APIConfig) HasConsumerCredentials() bool {
	return strings.TrimSpace(a.ConsumerKey) != "" && strings.TrimSpace(a.ConsumerSecret) != ""
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) url", EnvAPIURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", EnvAPIURL)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvAPITimeout)
	}
	if a.BreakerFailures > 0 && a.BreakerCooldown <= 0 {
		return fmt.Errorf("%s must be positive when the breaker is enabled", EnvAPIBreakerCooldown)
	}
	return nil
}

// StorageConfig selects the backend behind the key-value store.
type StorageConfig struct {
	Driver string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"sqlite"`
}

func (s StorageConfig) validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageMemory, StorageSQLite, StoragePostgres:
		return nil
	case StorageRedis:
		if cfg.Redis.URL == "" && cfg.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
		return nil
	default:
		return fmt.Errorf("unknown %s %q", EnvStorageDriver, s.Driver)
	}
}

// Normalized returns the lower-cased driver name.
func (s StorageConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig holds the percentage rates applied when the cart is priced locally.
type PricingConfig struct {
	TaxRate      decimal.Decimal `envconfig:"STOREFRONT_TAX_RATE" default:"0"`
	ShippingRate decimal.Decimal `envconfig:"STOREFRONT_SHIPPING_RATE" default:"0"`
}

func (p PricingConfig) validate() error {
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvTaxRate)
	}
	if p.ShippingRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvShippingRate)
	}
	return nil
}

type MetricsConfig struct {
	Enabled bool `envconfig:"STOREFRONT_METRICS_ENABLED" default:"false"`
}
