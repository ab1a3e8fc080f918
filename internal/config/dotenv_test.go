package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	t.Setenv("A", "")
	t.Setenv("B", "")
	t.Setenv("C", "")
	t.Setenv("D", "")

	path := writeDotEnv(t, `
# comment

A=one
export B=two
C="three # not a comment"
D=four # trailing comment
garbage line
`)

	n, err := loadDotEnv(path)
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 4 {
		t.Fatalf("loaded %d keys, want 4", n)
	}

	for k, want := range map[string]string{"A": "one", "B": "two", "C": "three # not a comment", "D": "four"} {
		if got := os.Getenv(k); got != want {
			t.Fatalf("%s=%q, want %q", k, got, want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("KEEP", "already")

	n, err := loadDotEnv(writeDotEnv(t, "KEEP=fromfile\n"))
	if err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if n != 0 {
		t.Fatalf("loaded %d keys, want 0", n)
	}
	if got := os.Getenv("KEEP"); got != "already" {
		t.Fatalf("KEEP=%q, want %q", got, "already")
	}
}

func TestLoadDotEnv_StripsSingleQuotes(t *testing.T) {
	t.Setenv("Q", "")

	if _, err := loadDotEnv(writeDotEnv(t, "Q='hello world'\n")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("Q"); got != "hello world" {
		t.Fatalf("Q=%q, want %q", got, "hello world")
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	n, err := loadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	if err != nil || n != 0 {
		t.Fatalf("loadDotEnv on missing file = (%d, %v), want (0, nil)", n, err)
	}
}
