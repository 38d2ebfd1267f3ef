package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":8080"
database:
  driver: postgres
  url: postgres://attendance@localhost/attendance
redis:
  addr: localhost:6379
cors:
  allowed_origins: ["http://localhost:5173"]
auth:
  jwt_secret: secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.Database.Driver != "postgres" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" || len(cfg.Cors.AllowedOrigins) != 1 {
		t.Fatalf("unexpected redis/cors %+v", cfg)
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "user:pass@tcp(db:3306)/attendance?parseTime=true")
	t.Setenv("JWT_SECRET", "from-env")
	path := writeConfig(t, "server: {}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":4001" || cfg.Database.Driver != "mysql" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Database.URL == "" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, "auth:\n  jwt_secret: s\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error without database url")
	}
	path = writeConfig(t, "database:\n  driver: memory\nauth:\n  jwt_secret: s\n")
	if _, err := Load(path); err != nil {
		t.Fatalf("memory driver needs no url: %v", err)
	}
}
