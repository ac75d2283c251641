package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AWS           AWSConfig
	Email         EmailConfig
	Agencies      AgencyConfig
	Notifications NotificationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string `env:"PORT" env-default:"8080"`
	ReadTimeout        int    `env:"READ_TIMEOUT_SEC" env-default:"30"`
	WriteTimeout       int    `env:"WRITE_TIMEOUT_SEC" env-default:"30"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"` // comma-separated, or "*"
	PublicBaseURL      string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:3000"`      // used for deep links in emails
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"` // if set, used as-is
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME" env-default:"travel"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret       string `env:"JWT_SECRET"`
	ExpireHours  int    `env:"JWT_EXPIRE_HOURS" env-default:"24"`
	CookieName   string `env:"SESSION_COOKIE_NAME" env-default:"session"`
	CookieSecure bool   `env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

// AWSConfig holds AWS credentials and the documents bucket.
type AWSConfig struct {
	Region               string `env:"AWS_REGION"`
	AccessKeyID          string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	DocumentsBucket      string `env:"AWS_S3_DOCUMENTS_BUCKET" env-default:"travel-documents"`
	PresignExpireMinutes int    `env:"AWS_PRESIGN_EXPIRE_MINUTES" env-default:"15"`
}

// EmailConfig for SMTP delivery.
type EmailConfig struct {
	FromAddress string `env:"EMAIL_FROM_ADDRESS" env-default:"noreply@example.com"`
	FromName    string `env:"EMAIL_FROM_NAME" env-default:"Aura Travel"`
	SMTPHost    string `env:"SMTP_HOST"`
	SMTPPort    int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser    string `env:"SMTP_USER"`
	SMTPPass    string `env:"SMTP_PASS"`
}

// AgencyConfig controls the registration document window.
type AgencyConfig struct {
	DocumentWindow time.Duration `env:"AGENCY_DOCUMENT_WINDOW" env-default:"168h"`
	PurgeInterval  time.Duration `env:"AGENCY_PURGE_INTERVAL" env-default:"1h"`
}

// NotificationConfig controls the polling feed.
type NotificationConfig struct {
	PageSize int `env:"NOTIFICATIONS_PAGE_SIZE" env-default:"10"`
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// SMTPEnabled reports whether outbound email is configured.
func (c EmailConfig) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// placeholderSecret is the conventional sample value. Validate rejects it.
const placeholderSecret = "change-me-in-production"

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	switch c.JWT.Secret {
	case "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case placeholderSecret:
		errs = append(errs, errors.New("JWT_SECRET must not be the example placeholder"))
	}
	if c.JWT.ExpireHours <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE_HOURS must be positive"))
	}
	if c.Agencies.DocumentWindow <= 0 {
		errs = append(errs, errors.New("AGENCY_DOCUMENT_WINDOW must be positive"))
	}
	if c.Agencies.PurgeInterval <= 0 {
		errs = append(errs, errors.New("AGENCY_PURGE_INTERVAL must be positive"))
	}
	if c.Notifications.PageSize <= 0 || c.Notifications.PageSize > 100 {
		errs = append(errs, errors.New("NOTIFICATIONS_PAGE_SIZE must be between 1 and 100"))
	}
	if c.Email.SMTPEnabled() && c.Email.SMTPPort <= 0 {
		errs = append(errs, errors.New("SMTP_PORT must be positive"))
	}
	return errors.Join(errs...)
}
