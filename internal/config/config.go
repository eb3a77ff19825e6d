package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

const devSigningKey = "dentx-development-session-key-not-for-production"

type Config struct {
	Port                     string        `mapstructure:"PORT"`
	Env                      string        `mapstructure:"ENV"`
	LogLevel                 string        `mapstructure:"LOG_LEVEL"`
	StoreBackend             string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL              string        `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURL                 string        `mapstructure:"MONGO_URL"`
	MongoDatabase            string        `mapstructure:"MONGO_DATABASE"`
	MongoTransactions        bool          `mapstructure:"MONGO_TRANSACTIONS"`
	NATSURL                  string        `mapstructure:"NATS_URL"`
	NATSSubjectPrefix        string        `mapstructure:"NATS_SUBJECT_PREFIX"`
	CORSOrigins              []string      `mapstructure:"CORS_ORIGINS"`
	SessionSigningKey        string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTTL               time.Duration `mapstructure:"SESSION_TTL"`
	ClinicTimezone           string        `mapstructure:"CLINIC_TIMEZONE"`
	StatsOperatorAttribution string        `mapstructure:"STATS_OPERATOR_ATTRIBUTION"`
	TLSEnabled               bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile              string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile               string        `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORE_BACKEND",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MONGO_URL", "MONGO_DATABASE", "MONGO_TRANSACTIONS",
	"NATS_URL", "NATS_SUBJECT_PREFIX",
	"CORS_ORIGINS", "SESSION_SIGNING_KEY", "SESSION_TTL",
	"CLINIC_TIMEZONE", "STATS_OPERATOR_ATTRIBUTION",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DATABASE", "dentx")
	v.SetDefault("NATS_SUBJECT_PREFIX", "dentx")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("CLINIC_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("STATS_OPERATOR_ATTRIBUTION", "first-log")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if cfg.SessionSigningKey == "" && cfg.IsDev() {
		cfg.SessionSigningKey = devSigningKey
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the clinic's time zone, used for "today" and default
// scheduled dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is complete for the selected
// backend and safe to run.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", BackendPostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case BackendMongo:
		if c.MongoURL == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URL and MONGO_DATABASE are required when STORE_BACKEND is %q", BackendMongo)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMongo, c.StoreBackend)
	}

	if c.SessionSigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required outside development")
	}
	if c.IsProduction() {
		if c.SessionSigningKey == devSigningKey {
			return fmt.Errorf("SESSION_SIGNING_KEY must be set explicitly in production")
		}
		if len(c.SessionSigningKey) < 32 {
			return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes in production, got %d", len(c.SessionSigningKey))
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.StatsOperatorAttribution {
	case "", "first-log", "per-type":
	default:
		return fmt.Errorf("STATS_OPERATOR_ATTRIBUTION must be \"first-log\" or \"per-type\", got %q", c.StatsOperatorAttribution)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
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
