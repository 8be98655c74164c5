package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPPORT_SLA_MINUTES", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://drinkmates.sa, https://admin.drinkmates.sa ,")

	original := GetConfig()
	defer SetConfig(original)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.SupportSLA)
	assert.Equal(t, 60, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, []string{"https://drinkmates.sa", "https://admin.drinkmates.sa"}, cfg.CORSAllowedOrigins)
	assert.Same(t, cfg, GetConfig(), "Load should make the config current")
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres with url", Config{DBDriver: "postgres", DatabaseURL: "postgres://x", RateLimitRequests: 1, RateLimitWindow: time.Second}, false},
		{"postgres without url", Config{DBDriver: "postgres", RateLimitRequests: 1, RateLimitWindow: time.Second}, true},
		{"sqlite without url", Config{DBDriver: "sqlite", RateLimitRequests: 1, RateLimitWindow: time.Second}, false},
		{"unknown driver", Config{DBDriver: "oracle", RateLimitRequests: 1, RateLimitWindow: time.Second}, true},
		{"zero rate limit", Config{DBDriver: "sqlite", RateLimitWindow: time.Second}, true},
		{"zero window", Config{DBDriver: "sqlite", RateLimitRequests: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		GoEnv:             "test",
		DBDriver:          "postgres",
		DatabaseURL:       "postgres://user:supersecret@db/aqualine",
		URWAYSPassword:    "urways-pass",
		URWAYSMerchantKey: "merchant-key",
		SMTPPassword:      "smtp-pass",
	}
	s := cfg.String()
	assert.NotContains(t, s, "supersecret")
	assert.NotContains(t, s, "urways-pass")
	assert.NotContains(t, s, "merchant-key")
	assert.NotContains(t, s, "smtp-pass")
}

func TestEnvironmentHelpers(t *testing.T) {
	assert.True(t, (&Config{GoEnv: "production"}).IsProduction())
	assert.True(t, (&Config{GoEnv: "test"}).IsTest())
	assert.True(t, (&Config{GoEnv: "development"}).IsDevelopment())
	assert.True(t, (&Config{SMTPHost: "smtp.example.com"}).SMTPEnabled())
	assert.False(t, (&Config{}).S3Enabled())
}
