package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT, default=5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE, default=disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS, default=10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC, default=300"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint      string        `env:"MINIO_ENDPOINT"`
	AccessKey     string        `env:"MINIO_ACCESS_KEY"`
	SecretKey     string        `env:"MINIO_SECRET_KEY"`
	Bucket        string        `env:"MINIO_BUCKET, default=documents"`
	UseSSL        bool          `env:"MINIO_USE_SSL, default=false"`
	PresignExpiry time.Duration `env:"MINIO_PRESIGN_EXPIRY, default=15m"`
}

// RedisConfig controls the optional per-document lock. Transitions stay
// serialized by the database when Redis is disabled.
type RedisConfig struct {
	Enabled bool          `env:"REDIS_ENABLED, default=false"`
	Addr    string        `env:"REDIS_ADDR, default=localhost:6379"`
	DB      int           `env:"REDIS_DB, default=0"`
	LockTTL time.Duration `env:"REDIS_LOCK_TTL, default=10s"`
}

// AuthConfig selects how bearer tokens are verified. JWKSURL wins over Secret when both are set.
type AuthConfig struct {
	JWKSURL string `env:"AUTH_JWKS_URL"`
	Secret  string `env:"AUTH_JWT_SECRET"`
	Issuer  string `env:"AUTH_JWT_ISSUER"`
}

// UploadConfig bounds what may be uploaded.
type UploadConfig struct {
	MaxBytes     int64    `env:"UPLOAD_MAX_BYTES, default=52428800"`
	AllowedTypes []string `env:"UPLOAD_ALLOWED_TYPES, default=application/pdf,application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,image/png,image/jpeg"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string        `env:"APP_HOST, default=localhost:8080"`
	Port           string        `env:"PORT, default=8080"`
	Env            string        `env:"ENV, default=development"`
	LogLevel       string        `env:"LOG_LEVEL, default=info"`
	LogPretty      bool          `env:"LOG_PRETTY, default=false"`
	Timezone       string        `env:"APP_TIMEZONE, default=UTC"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=15s"`

	Database DatabaseConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Upload   UploadConfig
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over it.
func Load() (*AppConfig, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
