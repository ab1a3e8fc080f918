package config

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// loadDotEnv copies KEY=VALUE pairs from a dotenv file into the process environment and
// returns how many keys it set. A missing file is not an error.
//
// Blank lines and # comments are skipped, an "export " prefix is allowed, one pair of
// surrounding quotes is stripped, and an unquoted value ends at " #". Variables that are
// already set win over the file.
func loadDotEnv(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	loaded := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, ok := parseDotEnvLine(sc.Text())
		if !ok || os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, sc.Err()
}

func parseDotEnvLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	k, v, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	k = strings.TrimSpace(k)
	v = strings.TrimSpace(v)
	if k == "" {
		return "", "", false
	}

	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return k, v[1 : len(v)-1], true
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return k, v, true
}
