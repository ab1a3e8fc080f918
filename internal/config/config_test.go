package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"APP_ENV", "DB_PATH", "MIGRATIONS_DIR", "PORT", "LOG_LEVEL", "METRICS_ENABLED", "SEED_DEMO"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Env != "dev" || !cfg.IsDev() {
		t.Fatalf("Env=%q, want dev", cfg.Env)
	}
	if cfg.DBPath != "./dev.db" || cfg.Port != "8080" || cfg.MigrationsDir != "migrations" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.MetricsEnabled || cfg.SeedDemo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PORT", "9090")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("SEED_DEMO", "not-a-bool")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	if cfg.IsDev() {
		t.Fatalf("production env reported as dev")
	}
	if cfg.Port != "9090" || !cfg.MetricsEnabled || cfg.SeedDemo || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_UsesDotEnvInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DB_PATH", "")
	if err := os.WriteFile(".env", []byte("DB_PATH=/tmp/from-dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg := Load()

	if cfg.DBPath != "/tmp/from-dotenv.db" {
		t.Fatalf("DBPath=%q, want value from .env", cfg.DBPath)
	}
}

func TestWarningsNameMissingSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("SESSION_SECRET", "")

	got := Load().Warnings()

	want := []string{"ADMIN_PASSWORD is not set", "SESSION_SECRET is not set"}
	if len(got) != len(want) {
		t.Fatalf("Warnings()=%q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Warnings()=%q, want %q", got, want)
		}
	}

	full := Config{AdminEmail: "a@b.c", AdminPassword: "pw", SessionSecret: "s"}
	if w := full.Warnings(); len(w) != 0 {
		t.Fatalf("expected no warnings, got %q", w)
	}
}
