package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DBDriver           string
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
	CORSAllowedOrigins []string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	URWAYSBaseURL     string
	URWAYSTerminalID  string
	URWAYSPassword    string
	URWAYSMerchantKey string
	URWAYSCallbackURL string

	// SupportSLA is the first-response target for support chat on an order
	SupportSLA time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Deployed environments set variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	slaMinutes, err := getEnvInt("SUPPORT_SLA_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	rateRequests, err := getEnvInt("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "me-south-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "orders@drinkmates.sa"),

		URWAYSBaseURL:     getEnv("URWAYS_BASE_URL", "https://payments-dev.urway-tech.com"),
		URWAYSTerminalID:  getEnv("URWAYS_TERMINAL_ID", ""),
		URWAYSPassword:    getEnv("URWAYS_PASSWORD", ""),
		URWAYSMerchantKey: getEnv("URWAYS_MERCHANT_KEY", ""),
		URWAYSCallbackURL: getEnv("URWAYS_CALLBACK_URL", "http://localhost:8080/api/v1/payments/urways/callback"),

		SupportSLA:        time.Duration(slaMinutes) * time.Minute,
		RateLimitRequests: rateRequests,
		RateLimitWindow:   time.Duration(rateWindow) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %q", c.DBDriver)
		}
	case "sqlite":
		// DATABASE_URL may be empty; a local file is used
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, mysql or sqlite)", c.DBDriver)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// SMTPEnabled reports whether outgoing mail is configured
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// S3Enabled reports whether proof photos go to S3 rather than local disk
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// String returns a summary safe for logs; credentials are masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{env: %s, port: %s, db: %s, s3: %t, smtp: %t, urways terminal: %s, secrets: ***}",
		c.GoEnv, c.Port, c.DBDriver, c.S3Enabled(), c.SMTPEnabled(), c.URWAYSTerminalID)
}

// GetConfig returns the configuration loaded by Load or set by SetConfig
func GetConfig() *Config {
	return current
}

// SetConfig replaces the active configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a default fallback
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
