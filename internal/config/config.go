package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Auth       AuthConfig
	OpenCTI    OpenCTIConfig
	Lookup     LookupConfig
	Submission SubmissionConfig
	Audit      AuditConfig
}

type AppConfig struct {
	Env  string
	Port int
	Host string
}

type AuthConfig struct {
	APIKeyHash string
	JWTSecret  string
	JWTExpiry  time.Duration
}

type OpenCTIConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	SearchExact bool
	PageSize    int
}

type LookupConfig struct {
	CacheSize       int
	CacheTTL        time.Duration
	MarkingsRefresh time.Duration
	CanCreate       bool
	CanAssociate    bool
	DeletableKinds  []string
}

type SubmissionConfig struct {
	DefaultsPath string
}

type AuditConfig struct {
	Enabled bool
	DBPath  string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/etc/opencti-connector")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	// Set defaults
	setDefaults()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetInt("APP_PORT"),
			Host: viper.GetString("APP_HOST"),
		},
		Auth: AuthConfig{
			APIKeyHash: viper.GetString("AUTH_API_KEY_HASH"),
			JWTSecret:  viper.GetString("AUTH_JWT_SECRET"),
			JWTExpiry:  viper.GetDuration("AUTH_JWT_EXPIRY"),
		},
		OpenCTI: OpenCTIConfig{
			URL:         viper.GetString("OPENCTI_URL"),
			APIKey:      viper.GetString("OPENCTI_API_KEY"),
			Timeout:     viper.GetDuration("OPENCTI_TIMEOUT"),
			RateLimit:   viper.GetFloat64("OPENCTI_RATE_LIMIT"),
			RateBurst:   viper.GetInt("OPENCTI_RATE_BURST"),
			SearchExact: viper.GetBool("OPENCTI_SEARCH_EXACT"),
			PageSize:    viper.GetInt("OPENCTI_PAGE_SIZE"),
		},
		Lookup: LookupConfig{
			CacheSize:       viper.GetInt("LOOKUP_CACHE_SIZE"),
			CacheTTL:        viper.GetDuration("LOOKUP_CACHE_TTL"),
			MarkingsRefresh: viper.GetDuration("LOOKUP_MARKINGS_REFRESH"),
			CanCreate:       viper.GetBool("LOOKUP_CAN_CREATE"),
			CanAssociate:    viper.GetBool("LOOKUP_CAN_ASSOCIATE"),
			DeletableKinds:  splitList(viper.GetString("LOOKUP_DELETABLE_KINDS")),
		},
		Submission: SubmissionConfig{
			DefaultsPath: viper.GetString("SUBMISSION_DEFAULTS_PATH"),
		},
		Audit: AuditConfig{
			Enabled: viper.GetBool("AUDIT_ENABLED"),
			DBPath:  viper.GetString("AUDIT_DB_PATH"),
		},
	}

	return config, nil
}

func bindEnvVars() {
	// App
	viper.BindEnv("APP_ENV")
	viper.BindEnv("APP_PORT")
	viper.BindEnv("APP_HOST")

	// Auth
	viper.BindEnv("AUTH_API_KEY_HASH")
	viper.BindEnv("AUTH_JWT_SECRET")
	viper.BindEnv("AUTH_JWT_EXPIRY")

	// OpenCTI
	viper.BindEnv("OPENCTI_URL")
	viper.BindEnv("OPENCTI_API_KEY")
	viper.BindEnv("OPENCTI_TIMEOUT")
	viper.BindEnv("OPENCTI_RATE_LIMIT")
	viper.BindEnv("OPENCTI_RATE_BURST")
	viper.BindEnv("OPENCTI_SEARCH_EXACT")
	viper.BindEnv("OPENCTI_PAGE_SIZE")

	// Lookup
	viper.BindEnv("LOOKUP_CACHE_SIZE")
	viper.BindEnv("LOOKUP_CACHE_TTL")
	viper.BindEnv("LOOKUP_MARKINGS_REFRESH")
	viper.BindEnv("LOOKUP_CAN_CREATE")
	viper.BindEnv("LOOKUP_CAN_ASSOCIATE")
	viper.BindEnv("LOOKUP_DELETABLE_KINDS")

	// Submission
	viper.BindEnv("SUBMISSION_DEFAULTS_PATH")

	// Audit
	viper.BindEnv("AUDIT_ENABLED")
	viper.BindEnv("AUDIT_DB_PATH")
}

func setDefaults() {
	// App defaults
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_HOST", "0.0.0.0")

	// Auth defaults
	viper.SetDefault("AUTH_JWT_EXPIRY", 24*time.Hour)

	// OpenCTI defaults
	viper.SetDefault("OPENCTI_TIMEOUT", 30*time.Second)
	viper.SetDefault("OPENCTI_RATE_LIMIT", 10.0)
	viper.SetDefault("OPENCTI_RATE_BURST", 5)
	viper.SetDefault("OPENCTI_SEARCH_EXACT", false)
	viper.SetDefault("OPENCTI_PAGE_SIZE", 25)

	// Lookup defaults
	viper.SetDefault("LOOKUP_CACHE_SIZE", 512)
	viper.SetDefault("LOOKUP_CACHE_TTL", 5*time.Minute)
	viper.SetDefault("LOOKUP_MARKINGS_REFRESH", 10*time.Minute)
	viper.SetDefault("LOOKUP_CAN_CREATE", true)
	viper.SetDefault("LOOKUP_CAN_ASSOCIATE", false)
	viper.SetDefault("LOOKUP_DELETABLE_KINDS", "indicator,observable")

	// Audit defaults
	viper.SetDefault("AUDIT_ENABLED", true)
	viper.SetDefault("AUDIT_DB_PATH", "./data/audit.db")
}

// splitList parses a comma-separated env value into trimmed entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
