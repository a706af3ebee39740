// Package config loads backend configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the root configuration for the backend.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Supabase      SupabaseConfig
	Redis         RedisConfig
	SMTP          SMTPConfig
	Notifications NotificationsConfig
	Logging       LoggingConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"SERVER_PORT,default=8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	RateLimitPerSec int           `env:"SERVER_RATE_LIMIT,default=25"`
	RateLimitBurst  int           `env:"SERVER_RATE_BURST,default=50"`
	AllowedOrigins  string        `env:"SERVER_ALLOWED_ORIGINS,default=*"`
}

// DatabaseConfig configures the direct Postgres connection used for the
// notification-owned tables (email queue, delivery receipts).
type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_DSN"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=5m"`
	MigrateOnStart  bool          `env:"DATABASE_MIGRATE,default=true"`
}

// SupabaseConfig configures the hosted platform client.
type SupabaseConfig struct {
	URL        string        `env:"SUPABASE_URL"`
	AnonKey    string        `env:"SUPABASE_ANON_KEY"`
	ServiceKey string        `env:"SUPABASE_SERVICE_KEY"`
	JWTSecret  string        `env:"SUPABASE_JWT_SECRET"`
	Timeout    time.Duration `env:"SUPABASE_TIMEOUT,default=30s"`
}

// RedisConfig configures the cache used for unread counters and cooldowns.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// SMTPConfig configures outbound email.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	From     string `env:"SMTP_FROM"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
}

// NotificationsConfig tunes the fan-out engine.
type NotificationsConfig struct {
	BatchSize          int           `env:"NOTIFY_BATCH_SIZE,default=50"`
	PushTimeout        time.Duration `env:"NOTIFY_PUSH_TIMEOUT,default=10s"`
	PushMaxFailures    int           `env:"NOTIFY_PUSH_MAX_FAILURES,default=5"`
	EmailMaxAttempts   int           `env:"NOTIFY_EMAIL_MAX_ATTEMPTS,default=3"`
	EmailDrainSchedule string        `env:"NOTIFY_EMAIL_DRAIN_SCHEDULE,default=@every 1m"`
	EmailDrainBatch    int           `env:"NOTIFY_EMAIL_DRAIN_BATCH,default=25"`
	ReminderSchedule   string        `env:"NOTIFY_REMINDER_SCHEDULE,default=@every 5m"`
	CooldownWindow     time.Duration `env:"NOTIFY_COOLDOWN_WINDOW,default=30s"`
	TemplatesPath      string        `env:"NOTIFY_TEMPLATES_PATH"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=json"`
	Output     string `env:"LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"LOG_FILE_PREFIX"`
}

// Load reads configuration from the environment, honouring a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.Notifications.BatchSize <= 0 {
		return fmt.Errorf("NOTIFY_BATCH_SIZE must be positive")
	}
	if c.Notifications.EmailMaxAttempts <= 0 {
		return fmt.Errorf("NOTIFY_EMAIL_MAX_ATTEMPTS must be positive")
	}
	return nil
}
