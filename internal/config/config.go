package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Env            string        `env:"ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"30s"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" envDefault:"10"`
}

type DatabaseConfig struct {
	Host              string        `env:"DB_HOST" envDefault:"localhost"`
	Port              int           `env:"DB_PORT" envDefault:"5432"`
	User              string        `env:"DB_USER" envDefault:"postgres"`
	Password          string        `env:"DB_PASSWORD"`
	Name              string        `env:"DB_NAME" envDefault:"storefront"`
	SSLMode           string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	MinConns          int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"5m"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"1m"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	AutoMigrate       bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type AuthConfig struct {
	JWTSecret           string        `env:"JWT_SECRET"`
	UserTokenExpiry     time.Duration `env:"USER_TOKEN_EXPIRY" envDefault:"168h"`
	AdminTokenExpiry    time.Duration `env:"ADMIN_TOKEN_EXPIRY" envDefault:"1h"`
	MaxFailedLogins     int           `env:"MAX_FAILED_LOGINS" envDefault:"5"`
	LockoutDuration     time.Duration `env:"LOCKOUT_DURATION" envDefault:"30m"`
	OTPExpiry           time.Duration `env:"OTP_EXPIRY" envDefault:"10m"`
	ResetOTPMaxAttempts int           `env:"RESET_OTP_MAX_ATTEMPTS" envDefault:"5"`
	LoginDelayBase      time.Duration `env:"LOGIN_DELAY_BASE" envDefault:"100ms"`
	LoginDelayJitter    time.Duration `env:"LOGIN_DELAY_JITTER" envDefault:"50ms"`
	// ResetCleanupInterval is how often expired reset codes are swept.
	// Zero disables the sweep.
	ResetCleanupInterval time.Duration `env:"RESET_CLEANUP_INTERVAL" envDefault:"15m"`
}

type EmailConfig struct {
	AWSRegion   string        `env:"AWS_REGION" envDefault:"us-east-1"`
	FromAddress string        `env:"EMAIL_FROM_ADDRESS" envDefault:"noreply@storefront.local"`
	FromName    string        `env:"EMAIL_FROM_NAME" envDefault:"Storefront"`
	SendTimeout time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
	MaxSendRate float64       `env:"EMAIL_MAX_SEND_RATE" envDefault:"14"`
}

// AdminConfig seeds the bootstrap administrator. Seeding is skipped when
// Email or Password is empty.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	Name     string `env:"ADMIN_NAME" envDefault:"Administrator"`
	Phone    string `env:"ADMIN_PHONE" envDefault:"0000000000"`
}

// Load reads an optional .env file, then parses the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if len(cfg.Server.AllowedOrigins) == 0 && !cfg.IsProduction() {
		cfg.Server.AllowedOrigins = defaultDevOrigins()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase parses only the database settings, for tools that never
// serve requests and so need no secrets.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := &DatabaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate rejects configurations the server must not start with
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if err := validateJWTSecret(c.Auth.JWTSecret, c.Server.Env); err != nil {
		return err
	}
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if c.Auth.UserTokenExpiry <= 0 || c.Auth.AdminTokenExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	if c.Auth.AdminTokenExpiry > c.Auth.UserTokenExpiry {
		return errors.New("ADMIN_TOKEN_EXPIRY must not exceed USER_TOKEN_EXPIRY")
	}
	if c.Auth.MaxFailedLogins < 1 {
		return errors.New("MAX_FAILED_LOGINS must be at least 1")
	}
	if c.Auth.OTPExpiry <= 0 {
		return errors.New("OTP_EXPIRY must be positive")
	}
	if c.Auth.ResetOTPMaxAttempts < 1 {
		return errors.New("RESET_OTP_MAX_ATTEMPTS must be at least 1")
	}
	if c.Email.SendTimeout <= 0 {
		return errors.New("EMAIL_SEND_TIMEOUT must be positive")
	}
	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, environment string) error {
	minLength := 16
	if environment == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, environment, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return errors.New("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func defaultDevOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
