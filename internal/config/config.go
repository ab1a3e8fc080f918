package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultEnv           = "dev"
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultMigrationsDir = "migrations"
	defaultLogLevel      = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	AdminEmail     string
	AdminPassword  string
	SessionSecret  string
	DBPath         string
	MigrationsDir  string
	Port           string
	LogLevel       string
	MetricsEnabled bool
	SeedDemo       bool
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_, _ = loadDotEnv(".env")

	cfg := Config{
		Env:            strings.ToLower(os.Getenv("APP_ENV")),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		DBPath:         os.Getenv("DB_PATH"),
		MigrationsDir:  os.Getenv("MIGRATIONS_DIR"),
		Port:           os.Getenv("PORT"),
		LogLevel:       strings.ToLower(os.Getenv("LOG_LEVEL")),
		MetricsEnabled: parseBool(os.Getenv("METRICS_ENABLED")),
		SeedDemo:       parseBool(os.Getenv("SEED_DEMO")),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = defaultMigrationsDir
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	return cfg
}

// Warnings lists the settings that are empty but needed for login to work.
// The caller logs them once its logger is built.
func (c Config) Warnings() []string {
	var out []string
	for _, v := range []struct{ name, value string }{
		{"ADMIN_EMAIL", c.AdminEmail},
		{"ADMIN_PASSWORD", c.AdminPassword},
		{"SESSION_SECRET", c.SessionSecret},
	} {
		if v.value == "" {
			out = append(out, v.name+" is not set")
		}
	}
	return out
}

// IsDev reports whether the server runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
