package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"
)

type Config struct {
	ServerPort     string   `env:"SERVER_PORT" envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT" envDefault:"development"`
	APIPrefix      string   `env:"API_PREFIX" envDefault:"/api/v1"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Database: local SQLite file unless a Turso URL is configured
	DBPath           string `env:"DB_PATH" envDefault:"db/psgc.db"`
	TursoDatabaseURL string `env:"TURSO_DATABASE_URL"`
	TursoAuthToken   string `env:"TURSO_AUTH_TOKEN"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Response cache
	CacheDriver   string        `env:"CACHE_DRIVER" envDefault:"memory"`
	CachePrefix   string        `env:"CACHE_PREFIX" envDefault:"psgc"`
	CacheListTTL  time.Duration `env:"CACHE_LIST_TTL" envDefault:"15m"`
	CacheShowTTL  time.Duration `env:"CACHE_SHOW_TTL" envDefault:"30m"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	// Cloudflare R2 storage for exported datasets
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`
	StorageDir        string `env:"STORAGE_DIR" envDefault:"storage"` // local fallback when R2 is not configured
}

// Load reads .env (if present) and the process environment into a Config.
// Invalid values are fatal, matching how the server treats a broken deployment.
func Load() *Config {
	cfg, err := Read()
	if err != nil {
		log.Fatalf("[CRITICAL] Invalid configuration: %v", err)
	}
	return cfg
}

// Read is Load without the fatal exit, for callers that map errors themselves
func Read() (*Config, error) {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express
func (c *Config) Validate() error {
	switch c.CacheDriver {
	case CacheDriverMemory, CacheDriverNone:
	case CacheDriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_DRIVER is %q", CacheDriverRedis)
		}
	default:
		return fmt.Errorf("CACHE_DRIVER must be one of memory, redis, none (got %q)", c.CacheDriver)
	}
	if c.CacheListTTL < 0 || c.CacheShowTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}
	return nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesTurso reports whether the database should be opened through libsql
func (c *Config) UsesTurso() bool {
	return c.TursoDatabaseURL != ""
}

// R2Configured reports whether all R2 credentials are present
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}
