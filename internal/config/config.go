// Package config loads the runtime configuration of the Souq API from the
// environment (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully resolved service configuration.
type Config struct {
	AppPort    string
	AppBaseURL string

	Database DatabaseConfig

	JWTSecret string

	// RootDomain is the apex the storefront subdomains hang off, e.g. "souq.app".
	RootDomain string
	// PathRoutingHosts lists hosts that cannot carry wildcard subdomains
	// (preview deployments and the like); stores are addressed as /store/{slug} there.
	PathRoutingHosts []string

	RedisAddr      string
	TenantCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Stripe StripeConfig

	LoginRatePerMinute int
	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds the connection and pool settings.
type DatabaseConfig struct {
	URL             string
	Driver          string // postgres (lib/pq) | pgx
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StripeConfig holds the platform payment-provider credentials.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	// PriceIDs maps a plan name (pro, business) to a provider price id.
	PriceIDs map[string]string
}

// Plans that can be bought through the payment provider.
var paidPlans = []string{"pro", "business"}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	v.AutomaticEnv()
	return LoadFrom(v)
}

// LoadFrom builds a Config from an already populated viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		AppPort:    v.GetString("APP_PORT"),
		AppBaseURL: strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWTSecret:        v.GetString("JWT_SECRET"),
		RootDomain:       strings.ToLower(strings.TrimPrefix(v.GetString("ROOT_DOMAIN"), ".")),
		PathRoutingHosts: splitList(v.GetString("PATH_ROUTING_HOSTS")),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		TenantCacheTTL:   v.GetDuration("TENANT_CACHE_TTL"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		Stripe: StripeConfig{
			SecretKey:      v.GetString("STRIPE_SECRET_KEY"),
			PublishableKey: v.GetString("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
			PriceIDs:       map[string]string{},
		},
		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		TrustProxyHeaders:  v.GetBool("TRUST_PROXY_HEADERS"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
	}
	for _, plan := range paidPlans {
		if id := v.GetString("STRIPE_PRICE_" + strings.ToUpper(plan)); id != "" {
			cfg.Stripe.PriceIDs[plan] = id
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RootDomain == "" {
		return errors.New("ROOT_DOMAIN is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_MAX_OPEN_CONNS", 30)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("ROOT_DOMAIN", "localhost")
	v.SetDefault("TENANT_CACHE_TTL", time.Minute)
	v.SetDefault("KAFKA_TOPIC", "souq.events")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
