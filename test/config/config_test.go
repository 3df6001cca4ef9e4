package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mahadevaaya/registration-flow/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "https://mahadevaaya.com/eventmanagement/eventmanagement_backend", cfg.Backend.BaseURL)
	assert.Equal(t, "/api/reg-user/", cfg.Backend.RegisterPath)
	assert.Equal(t, "/api/verify-email/", cfg.Backend.VerifyPath)
	assert.Equal(t, "/api/resend-email-otp/", cfg.Backend.ResendPath)
	assert.Equal(t, "/api/get-userid/", cfg.Backend.UserIDPath)
	assert.Equal(t, 30*time.Second, cfg.Backend.SubmitTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Backend.LookupCacheTTL)
	assert.Equal(t, int64(1<<20), cfg.Attachments.ProfileImageMaxBytes)
	assert.Equal(t, int64(2<<20), cfg.Attachments.CertificateMaxBytes)
	assert.Equal(t, time.Minute, cfg.Verification.ResendCooldown)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "registration-flow", cfg.Observability.ServiceName)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:8471/")
	t.Setenv("BACKEND_SUBMIT_TIMEOUT_SECONDS", "5")
	t.Setenv("RESEND_COOLDOWN_SECONDS", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	assert.NoError(t, err)

	// trailing slash is trimmed so path joining stays predictable
	assert.Equal(t, "http://localhost:8471", cfg.Backend.BaseURL)
	assert.Equal(t, "http://localhost:8471/api/reg-user/", cfg.Backend.RegisterURL())
	assert.Equal(t, 5*time.Second, cfg.Backend.SubmitTimeout)
	assert.Equal(t, 10*time.Second, cfg.Verification.ResendCooldown)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Backend: config.BackendConfig{
				BaseURL:       "http://localhost:8471",
				SubmitTimeout: 30 * time.Second,
			},
			Attachments: config.AttachmentsConfig{
				ProfileImageMaxBytes: 1 << 20,
				CertificateMaxBytes:  2 << 20,
			},
			Verification: config.VerificationConfig{
				ResendCooldown: time.Minute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "missing base URL",
			mutate:  func(c *config.Config) { c.Backend.BaseURL = "" },
			wantErr: "BACKEND_BASE_URL is required",
		},
		{
			name:    "base URL without scheme",
			mutate:  func(c *config.Config) { c.Backend.BaseURL = "localhost:8471" },
			wantErr: "must be an http(s) URL",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *config.Config) { c.Backend.SubmitTimeout = 0 },
			wantErr: "BACKEND_SUBMIT_TIMEOUT_SECONDS must be positive",
		},
		{
			name:    "zero attachment limit",
			mutate:  func(c *config.Config) { c.Attachments.CertificateMaxBytes = 0 },
			wantErr: "attachment size limits must be positive",
		},
		{
			name:    "zero cooldown",
			mutate:  func(c *config.Config) { c.Verification.ResendCooldown = 0 },
			wantErr: "RESEND_COOLDOWN_SECONDS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
