package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreSpanner = "spanner"
	StoreMySQL   = "mysql"
	StoreMemory  = "memory"
)

type Config struct {
	ServiceID       string
	HTTPPort        int
	SiteURL         string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	Prices              domain.PriceTable
	RequestTimeout      time.Duration

	StoreDriver     string
	SpannerProject  string
	SpannerInstance string
	SpannerDatabase string
	MySQLDSN        string

	// RedisURL selects the Redis processed-event log; when empty the log
	// lives in the configured store
	RedisURL      string
	EventDedupTTL time.Duration
}

// SpannerDatabasePath is the fully qualified database name
func (c Config) SpannerDatabasePath() string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", c.SpannerProject, c.SpannerInstance, c.SpannerDatabase)
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		SiteURL  string `yaml:"site_url"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"service"`
	Stripe struct {
		SecretKey        string `yaml:"secret_key"`
		WebhookSecret    string `yaml:"webhook_secret"`
		RequestTimeoutMS int    `yaml:"request_timeout_ms"`
		Prices           struct {
			Basic    string `yaml:"basic"`
			Standard string `yaml:"standard"`
			Premium  string `yaml:"premium"`
		} `yaml:"prices"`
	} `yaml:"stripe"`
	Store struct {
		Driver  string `yaml:"driver"`
		Spanner struct {
			Project  string `yaml:"project"`
			Instance string `yaml:"instance"`
			Database string `yaml:"database"`
		} `yaml:"spanner"`
		MySQL struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
	} `yaml:"store"`
	Redis struct {
		URL                string `yaml:"url"`
		EventDedupTTLHours int    `yaml:"event_dedup_ttl_hours"`
	} `yaml:"redis"`
}

// LoadConfig layers defaults, the YAML file at path, the dotenv file at
// envFile and the process environment, later sources winning. Both files
// are optional.
func LoadConfig(path, envFile string) (Config, error) {
	cfg := Config{
		ServiceID:       "paywall",
		HTTPPort:        8080,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  10 * time.Second,
		StoreDriver:     StoreSpanner,
		EventDedupTTL:   7 * 24 * time.Hour,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var f configFile
			if err := yaml.Unmarshal(raw, &f); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
			if err := applyFile(&cfg, f); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read env file: %w", err)
		}
	}
	env := &envSource{dotenv: dotenv}

	cfg.ServiceID = env.string("SERVICE_ID", cfg.ServiceID)
	cfg.HTTPPort = env.int("HTTP_PORT", cfg.HTTPPort)
	cfg.SiteURL = env.string("SITE_URL", cfg.SiteURL)
	if raw := env.string("LOG_LEVEL", ""); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	cfg.StripeSecretKey = env.string("STRIPE_SECRET_KEY", cfg.StripeSecretKey)
	cfg.StripeWebhookSecret = env.string("STRIPE_WEBHOOK_SECRET", cfg.StripeWebhookSecret)
	cfg.Prices.Basic = env.string("PUBLIC_STRIPE_PRICE_ID_BASIC", cfg.Prices.Basic)
	cfg.Prices.Standard = env.string("PUBLIC_STRIPE_PRICE_ID_STANDARD", cfg.Prices.Standard)
	cfg.Prices.Premium = env.string("PUBLIC_STRIPE_PRICE_ID_PREMIUM", cfg.Prices.Premium)
	cfg.RequestTimeout = time.Duration(env.int("REQUEST_TIMEOUT_MS", int(cfg.RequestTimeout.Milliseconds()))) * time.Millisecond
	cfg.StoreDriver = strings.ToLower(env.string("STORE_DRIVER", cfg.StoreDriver))
	cfg.SpannerProject = env.string("SPANNER_PROJECT", cfg.SpannerProject)
	cfg.SpannerInstance = env.string("SPANNER_INSTANCE", cfg.SpannerInstance)
	cfg.SpannerDatabase = env.string("SPANNER_DATABASE", cfg.SpannerDatabase)
	cfg.MySQLDSN = env.string("MYSQL_DSN", cfg.MySQLDSN)
	cfg.RedisURL = env.string("REDIS_URL", cfg.RedisURL)
	cfg.EventDedupTTL = time.Duration(env.int("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	if err := errors.Join(env.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the runtime cannot start with. A missing
// webhook secret is allowed; the webhook endpoint reports it per request.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT_MS must be positive"))
	}
	if c.EventDedupTTL <= 0 {
		errs = append(errs, errors.New("EVENT_DEDUP_TTL_HOURS must be positive"))
	}
	switch c.StoreDriver {
	case StoreSpanner:
		if c.SpannerProject == "" || c.SpannerInstance == "" || c.SpannerDatabase == "" {
			errs = append(errs, errors.New("spanner store requires SPANNER_PROJECT, SPANNER_INSTANCE and SPANNER_DATABASE"))
		}
	case StoreMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("mysql store requires MYSQL_DSN"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyFile copies the values set in f. Zero numbers mean unset; out of range
// ones are left for Validate to report.
func applyFile(cfg *Config, f configFile) error {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort != 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.Service.LogLevel)); err != nil {
			return fmt.Errorf("service.log_level: %w", err)
		}
	}
	if f.Stripe.RequestTimeoutMS != 0 {
		cfg.RequestTimeout = time.Duration(f.Stripe.RequestTimeoutMS) * time.Millisecond
	}
	if f.Store.Driver != "" {
		cfg.StoreDriver = f.Store.Driver
	}
	if f.Redis.EventDedupTTLHours != 0 {
		cfg.EventDedupTTL = time.Duration(f.Redis.EventDedupTTLHours) * time.Hour
	}
	cfg.SiteURL = f.Service.SiteURL
	cfg.StripeSecretKey = f.Stripe.SecretKey
	cfg.StripeWebhookSecret = f.Stripe.WebhookSecret
	cfg.Prices = domain.PriceTable{
		Basic:    f.Stripe.Prices.Basic,
		Standard: f.Stripe.Prices.Standard,
		Premium:  f.Stripe.Prices.Premium,
	}
	cfg.SpannerProject = f.Store.Spanner.Project
	cfg.SpannerInstance = f.Store.Spanner.Instance
	cfg.SpannerDatabase = f.Store.Spanner.Database
	cfg.MySQLDSN = f.Store.MySQL.DSN
	cfg.RedisURL = f.Redis.URL
	return nil
}

// envSource reads the process environment first and the dotenv file second.
// Values that fail to parse are collected in errs.
type envSource struct {
	dotenv map[string]string
	errs   []error
}

func (e *envSource) string(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if v := e.dotenv[name]; v != "" {
		return v
	}
	return fallback
}

func (e *envSource) int(name string, fallback int) int {
	raw := e.string(name, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", name, raw))
		return fallback
	}
	return v
}
