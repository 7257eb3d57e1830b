package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevAPIKey is the API key accepted when none is configured. Validate refuses
// it outside development.
const DevAPIKey = "dev-key-12345"

type Config struct {
	Host        string `mapstructure:"HOST"`
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	DBRetryMax   int           `mapstructure:"DB_RETRY_MAX"`
	DBRetryDelay time.Duration `mapstructure:"DB_RETRY_DELAY"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	APIKey    string `mapstructure:"API_KEY"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`

	HeartbeatInterval time.Duration `mapstructure:"HEARTBEAT_INTERVAL"`
	ClientTimeout     time.Duration `mapstructure:"CLIENT_TIMEOUT"`
	PushInterval      time.Duration `mapstructure:"PUSH_INTERVAL"`
	PushBatchSize     int           `mapstructure:"PUSH_BATCH_SIZE"`
}

var keys = []string{
	"HOST", "PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_RETRY_MAX", "DB_RETRY_DELAY",
	"MIGRATIONS_DIR",
	"API_KEY", "JWT_SECRET", "JWT_ISSUER",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT",
	"HEARTBEAT_INTERVAL", "CLIENT_TIMEOUT", "PUSH_INTERVAL", "PUSH_BATCH_SIZE",
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is not an
// error; environment variables take precedence over it.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_RETRY_MAX", 3)
	v.SetDefault("DB_RETRY_DELAY", "100ms")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("API_KEY", DevAPIKey)
	v.SetDefault("JWT_ISSUER", "medhealth")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("HEARTBEAT_INTERVAL", "5s")
	v.SetDefault("CLIENT_TIMEOUT", "30s")
	v.SetDefault("PUSH_INTERVAL", "10s")
	v.SetDefault("PUSH_BATCH_SIZE", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine; an unreadable one is not.
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"HEARTBEAT_INTERVAL": c.HeartbeatInterval,
		"CLIENT_TIMEOUT":     c.ClientTimeout,
		"PUSH_INTERVAL":      c.PushInterval,
		"REQUEST_TIMEOUT":    c.RequestTimeout,
	}
	for _, k := range []string{"HEARTBEAT_INTERVAL", "CLIENT_TIMEOUT", "PUSH_INTERVAL", "REQUEST_TIMEOUT"} {
		if positive[k] <= 0 {
			return fmt.Errorf("%s must be positive, got %s", k, positive[k])
		}
	}
	if c.DBRetryDelay <= 0 {
		return fmt.Errorf("DB_RETRY_DELAY must be positive, got %s", c.DBRetryDelay)
	}
	if c.DBRetryMax < 0 {
		return fmt.Errorf("DB_RETRY_MAX must not be negative, got %d", c.DBRetryMax)
	}
	if c.PushBatchSize < 1 || c.PushBatchSize > 100 {
		return fmt.Errorf("PUSH_BATCH_SIZE must be between 1 and 100, got %d", c.PushBatchSize)
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if !c.IsDev() && (c.APIKey == "" || c.APIKey == DevAPIKey) && c.JWTSecret == "" {
		return fmt.Errorf("API_KEY must be changed from the development default or JWT_SECRET set when ENV=%q", c.Env)
	}
	return nil
}
