package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Lock      LockConfig      `yaml:"lock"`
	Payment   PaymentConfig   `yaml:"payment"`
}

// ServerConfig contains gRPC health server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HTTPConfig contains REST API settings
type HTTPConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig selects the store. Connection fields apply to the postgres driver only.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres" or "memory"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Migrate      bool   `yaml:"migrate"`
}

// JWTConfig contains access token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains reconciliation schedule settings
type SchedulerConfig struct {
	Enabled            *bool         `yaml:"enabled"`
	ReconcileOrders    string        `yaml:"reconcile_orders"`
	PassTimeout        time.Duration `yaml:"pass_timeout"`
	ExpireStalePending *bool         `yaml:"expire_stale_pending"`
}

// LockConfig selects the lease lock guarding reconciliation passes
type LockConfig struct {
	Type      string        `yaml:"type"` // "none" or "redis"
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

// PaymentConfig contains payment gateway callback settings
type PaymentConfig struct {
	CallbackToken string `yaml:"callback_token"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applying environment overrides and defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		c.HTTP.AllowedOrigins = strings.Split(val, ",")
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Scheduler
	if val := os.Getenv("SCHEDULER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Scheduler.Enabled = &b
		}
	}
	if val := os.Getenv("RECONCILE_ORDERS_SCHEDULE"); val != "" {
		c.Scheduler.ReconcileOrders = val
	}

	// Lock
	if val := os.Getenv("LOCK_TYPE"); val != "" {
		c.Lock.Type = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Lock.RedisAddr = val
	}

	// Payment
	if val := os.Getenv("PAYMENT_CALLBACK_TOKEN"); val != "" {
		c.Payment.CallbackToken = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 20
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Scheduler defaults
	if c.Scheduler.Enabled == nil {
		enabled := true
		c.Scheduler.Enabled = &enabled
	}
	if c.Scheduler.ReconcileOrders == "" {
		c.Scheduler.ReconcileOrders = "@every 30m"
	}
	if c.Scheduler.PassTimeout <= 0 {
		c.Scheduler.PassTimeout = 5 * time.Minute
	}
	if c.Scheduler.ExpireStalePending == nil {
		expire := true
		c.Scheduler.ExpireStalePending = &expire
	}

	// Lock validation
	if c.Lock.Type == "" {
		c.Lock.Type = "none"
	}
	switch c.Lock.Type {
	case "none":
	case "redis":
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("redis address is required for redis lock")
		}
	default:
		return fmt.Errorf("unknown lock type: %s", c.Lock.Type)
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = c.Scheduler.PassTimeout + time.Minute
	}

	return nil
}

// SchedulerEnabled reports whether the reconciliation job should be registered
func (c *Config) SchedulerEnabled() bool {
	return c.Scheduler.Enabled == nil || *c.Scheduler.Enabled
}

// ExpireStalePending reports whether reconciliation rejects Pending orders past their start date
func (c *Config) ExpireStalePending() bool {
	return c.Scheduler.ExpireStalePending == nil || *c.Scheduler.ExpireStalePending
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC health server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the REST API listen address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.HTTP.Port)
}
