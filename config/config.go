package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Backend       BackendConfig
	Attachments   AttachmentsConfig
	Verification  VerificationConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type AppConfig struct {
	Env string
}

// BackendConfig locates the external registration REST collaborator.
type BackendConfig struct {
	BaseURL        string
	RegisterPath   string
	VerifyPath     string
	ResendPath     string
	UserIDPath     string
	SubmitTimeout  time.Duration
	LookupCacheTTL time.Duration
}

// RegisterURL returns the full registration endpoint URL.
func (b BackendConfig) RegisterURL() string { return b.BaseURL + b.RegisterPath }

// VerifyURL returns the full email-verification endpoint URL.
func (b BackendConfig) VerifyURL() string { return b.BaseURL + b.VerifyPath }

// ResendURL returns the full resend-code endpoint URL.
func (b BackendConfig) ResendURL() string { return b.BaseURL + b.ResendPath }

// UserIDURL returns the full lookup-by-email endpoint URL.
func (b BackendConfig) UserIDURL() string { return b.BaseURL + b.UserIDPath }

// AttachmentsConfig carries the file acceptance limits.
type AttachmentsConfig struct {
	ProfileImageMaxBytes int64
	CertificateMaxBytes  int64
}

// VerificationConfig carries the resend-cooldown policy.
type VerificationConfig struct {
	ResendCooldown time.Duration
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BACKEND_BASE_URL", "https://mahadevaaya.com/eventmanagement/eventmanagement_backend")
	v.SetDefault("BACKEND_REGISTER_PATH", "/api/reg-user/")
	v.SetDefault("BACKEND_VERIFY_PATH", "/api/verify-email/")
	v.SetDefault("BACKEND_RESEND_PATH", "/api/resend-email-otp/")
	v.SetDefault("BACKEND_USERID_PATH", "/api/get-userid/")
	v.SetDefault("BACKEND_SUBMIT_TIMEOUT_SECONDS", 30)
	v.SetDefault("USERID_LOOKUP_CACHE_TTL_SECONDS", 600)
	v.SetDefault("PROFILE_IMAGE_MAX_BYTES", 1<<20)
	v.SetDefault("CERTIFICATE_MAX_BYTES", 2<<20)
	v.SetDefault("RESEND_COOLDOWN_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "registration-flow")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "eventmanagement")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "registration-flow")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // .env is optional

	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("APP_ENV"),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
			RegisterPath:   v.GetString("BACKEND_REGISTER_PATH"),
			VerifyPath:     v.GetString("BACKEND_VERIFY_PATH"),
			ResendPath:     v.GetString("BACKEND_RESEND_PATH"),
			UserIDPath:     v.GetString("BACKEND_USERID_PATH"),
			SubmitTimeout:  time.Duration(v.GetInt("BACKEND_SUBMIT_TIMEOUT_SECONDS")) * time.Second,
			LookupCacheTTL: time.Duration(v.GetInt("USERID_LOOKUP_CACHE_TTL_SECONDS")) * time.Second,
		},
		Attachments: AttachmentsConfig{
			ProfileImageMaxBytes: v.GetInt64("PROFILE_IMAGE_MAX_BYTES"),
			CertificateMaxBytes:  v.GetInt64("CERTIFICATE_MAX_BYTES"),
		},
		Verification: VerificationConfig{
			ResendCooldown: time.Duration(v.GetInt("RESEND_COOLDOWN_SECONDS")) * time.Second,
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present and sane
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("BACKEND_BASE_URL must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.SubmitTimeout <= 0 {
		return fmt.Errorf("BACKEND_SUBMIT_TIMEOUT_SECONDS must be positive")
	}
	if c.Attachments.ProfileImageMaxBytes <= 0 || c.Attachments.CertificateMaxBytes <= 0 {
		return fmt.Errorf("attachment size limits must be positive")
	}
	if c.Verification.ResendCooldown <= 0 {
		return fmt.Errorf("RESEND_COOLDOWN_SECONDS must be positive")
	}
	return nil
}
