package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
logLevel: debug
storeDriver: neo4j
neo4jURI: bolt://localhost:7687
neo4jUser: neo4j
neo4jPassword: secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Driver() != DriverNeo4j || cfg.Neo4jURI != "bolt://localhost:7687" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
storeDriver: postgres
databaseURL: postgres://file/value
`)
	t.Setenv("DATABASE_URL", "postgres://env/value")
	t.Setenv("CATALOG_LOG_LEVEL", "warn")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/value" {
		t.Fatalf("env must override file, got %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing port", "storeDriver: memory\n"},
		{"postgres without dsn", "port: \"8080\"\nstoreDriver: postgres\n"},
		{"neo4j without uri", "port: \"8080\"\nstoreDriver: neo4j\n"},
		{"unknown driver", "port: \"8080\"\nstoreDriver: etcd\n"},
		{"rate limit without redis", "port: \"8080\"\nrateLimitPerMinute: 60\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDriverDefaultsToMemory(t *testing.T) {
	cfg := FileConfig{}
	if cfg.Driver() != DriverMemory {
		t.Fatalf("default driver = %q", cfg.Driver())
	}
}
