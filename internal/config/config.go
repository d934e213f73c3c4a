package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/postop/postop/internal/platform/db"
	"github.com/postop/postop/internal/platform/middleware"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	DBSchema      string   `mapstructure:"DB_SCHEMA"`
	MigrationsDir string   `mapstructure:"MIGRATIONS_DIR"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit     string   `mapstructure:"BODY_LIMIT"`

	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	FollowUpPath  string `mapstructure:"FOLLOWUP_PATH"`
	// FollowUpRatePerMinute and FollowUpBurst throttle each follow-up link per client.
	FollowUpRatePerMinute int `mapstructure:"FOLLOWUP_RATE_PER_MINUTE"`
	FollowUpBurst         int `mapstructure:"FOLLOWUP_BURST"`

	SubmitEndpointURL string        `mapstructure:"SUBMIT_ENDPOINT_URL"`
	SubmitTimeout     time.Duration `mapstructure:"SUBMIT_TIMEOUT"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"MIGRATIONS_DIR", "CORS_ORIGINS", "BODY_LIMIT", "PUBLIC_BASE_URL", "FOLLOWUP_PATH",
	"FOLLOWUP_RATE_PER_MINUTE", "FOLLOWUP_BURST", "SUBMIT_ENDPOINT_URL", "SUBMIT_TIMEOUT",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads the environment, falling back to a .env file in the working
// directory. It does not validate; call Validate before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "postop")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("FOLLOWUP_PATH", "/followup")
	v.SetDefault("FOLLOWUP_RATE_PER_MINUTE", 30)
	v.SetDefault("FOLLOWUP_BURST", 10)
	v.SetDefault("SUBMIT_ENDPOINT_URL", "http://localhost:8000/api/v1")
	v.SetDefault("SUBMIT_TIMEOUT", "10s")

	for _, k := range keys {
		v.BindEnv(k)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = nil
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RequireDatabase is checked by every command that opens the pool.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// BodyLimitBytes returns BODY_LIMIT in bytes.
func (c *Config) BodyLimitBytes() (int64, error) {
	n, err := middleware.ParseSize(c.BodyLimit)
	if err != nil {
		return 0, fmt.Errorf("BODY_LIMIT: %w", err)
	}
	return n, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.PublicBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) url, got %q", c.PublicBaseURL)
	}
	if !strings.HasPrefix(c.FollowUpPath, "/") {
		return fmt.Errorf("FOLLOWUP_PATH must start with '/', got %q", c.FollowUpPath)
	}
	if err := db.ValidateSchema(c.DBSchema); err != nil {
		return fmt.Errorf("DB_SCHEMA: %w", err)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS and DB_MIN_CONNS must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if _, err := c.BodyLimitBytes(); err != nil {
		return err
	}
	if c.FollowUpRatePerMinute <= 0 || c.FollowUpBurst <= 0 {
		return fmt.Errorf("FOLLOWUP_RATE_PER_MINUTE and FOLLOWUP_BURST must be positive")
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}
	return nil
}
