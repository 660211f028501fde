package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" env-default:"account-service"`
	Env                   string `env:"APP_ENV" env-default:"development"`
	Host                  string `env:"APP_HOST" env-default:"0.0.0.0"`
	Port                  string `env:"APP_PORT" env-default:"8080"`
	Version               string `env:"APP_VERSION" env-default:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory credential store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" env-default:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" env-default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string `env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	AccessTokenTTLMinutes   int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" env-default:"60"`
	PasswordResetTTLMinutes int    `env:"AUTH_PASSWORD_RESET_TTL_MINUTES" env-default:"60"`
	ResetTokenBytes         int    `env:"AUTH_RESET_TOKEN_BYTES" env-default:"16"`
	BcryptCost              int    `env:"AUTH_BCRYPT_COST" env-default:"10"`
}

// Notification transports.
const (
	TransportRedis  = "redis"
	TransportMemory = "memory"
)

// NotificationConfig controls how account emails are queued and rendered.
type NotificationConfig struct {
	Transport    string `env:"NOTIFY_TRANSPORT" env-default:"redis"`
	QueueKey     string `env:"NOTIFY_QUEUE_KEY" env-default:"account:mail:outbox"`
	EmailFrom    string `env:"NOTIFY_EMAIL_FROM" env-default:"noreply@example.com"`
	ResetURLBase string `env:"NOTIFY_RESET_URL_BASE" env-default:"http://localhost:3000/reset/"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	switch cfg.Notification.Transport {
	case TransportRedis, TransportMemory:
	default:
		return nil, fmt.Errorf("invalid NOTIFY_TRANSPORT %q", cfg.Notification.Transport)
	}
	if cfg.Auth.ResetTokenBytes < 16 {
		return nil, fmt.Errorf("AUTH_RESET_TOKEN_BYTES must be at least 16, got %d", cfg.Auth.ResetTokenBytes)
	}

	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the bearer token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns how long a reset token stays valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}
