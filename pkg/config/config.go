package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/chat-storefront-service/pkg/db"
)

type Config struct {
	HTTPAddr string    `yaml:"http_addr"`
	LogLevel string    `yaml:"log_level"`
	DB       db.Config `yaml:"db"`

	AdminID        int64  `yaml:"admin_id"`
	AdminJWTSecret string `yaml:"admin_jwt_secret"`

	TransportURL   string `yaml:"transport_url"`
	TransportToken string `yaml:"transport_token"`
	GatewaySecret  string `yaml:"gateway_secret"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	ExchangeRate decimal.Decimal `yaml:"-"`
	EventRate    float64         `yaml:"event_rate"`
	EventBurst   int             `yaml:"event_burst"`
}

func defaults() Config {
	return Config{
		HTTPAddr:     ":8080",
		LogLevel:     "info",
		DB:           db.Config{Driver: db.DriverPostgres, Port: 5432, SSLMode: "disable"},
		SessionTTL:   30 * time.Minute,
		ExchangeRate: decimal.RequireFromString("1.16"),
		EventRate:    20,
		EventBurst:   40,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DB_DRIVER", &cfg.DB.Driver)
	str("DB_HOST", &cfg.DB.Host)
	str("DB_USER", &cfg.DB.User)
	str("DB_PASSWORD", &cfg.DB.Password)
	str("DB_NAME", &cfg.DB.DBName)
	str("DB_SSLMODE", &cfg.DB.SSLMode)
	str("DB_PATH", &cfg.DB.Path)
	str("ADMIN_JWT_SECRET", &cfg.AdminJWTSecret)
	str("TRANSPORT_URL", &cfg.TransportURL)
	str("TRANSPORT_TOKEN", &cfg.TransportToken)
	str("GATEWAY_SECRET", &cfg.GatewaySecret)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)

	if err := integer("DB_PORT", &cfg.DB.Port); err != nil {
		return err
	}
	if err := integer("REDIS_DB", &cfg.RedisDB); err != nil {
		return err
	}
	if err := integer("EVENT_BURST", &cfg.EventBurst); err != nil {
		return err
	}

	if v, ok := lookup("ADMIN_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_ID: %w", err)
		}
		cfg.AdminID = id
	}
	if v, ok := lookup("SESSION_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v, ok := lookup("EXCHANGE_RATE"); ok {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("EXCHANGE_RATE: %w", err)
		}
		cfg.ExchangeRate = rate
	}
	if v, ok := lookup("EVENT_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EVENT_RATE: %w", err)
		}
		cfg.EventRate = rate
	}
	return nil
}

func (c Config) Validate() error {
	if c.AdminID == 0 {
		return fmt.Errorf("ADMIN_ID is required")
	}
	if c.GatewaySecret == "" {
		return fmt.Errorf("GATEWAY_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if !c.ExchangeRate.IsPositive() {
		return fmt.Errorf("EXCHANGE_RATE must be positive")
	}
	if c.EventRate <= 0 || c.EventBurst <= 0 {
		return fmt.Errorf("EVENT_RATE and EVENT_BURST must be positive")
	}
	return c.DB.Validate()
}
