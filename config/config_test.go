package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("token ttl = %s, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Borrow.MaxActiveLoans != 0 {
		t.Fatalf("max active loans = %d, want 0", cfg.Borrow.MaxActiveLoans)
	}
	if cfg.MQ.Channel != "library.loans" {
		t.Fatalf("mq channel = %q, want library.loans", cfg.MQ.Channel)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "  ")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
serverPort: 9090
auth:
  jwtSecret: "from-file"
  tokenTTL: 2h
database:
  driver: memory
storage:
  backend: minio
  minio:
    endpoint: "localhost:9000"
    bucket: "books"
borrow:
  maxActiveLoans: 3
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", cfgPath)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("BORROW_MAX_ACTIVE_LOANS", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServerPort != 7070 {
		t.Fatalf("server port = %d, want 7070", cfg.ServerPort)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("jwt secret = %q, want from-env", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Fatalf("token ttl = %s, want 2h", cfg.Auth.TokenTTL)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Storage.Minio.Bucket != "books" {
		t.Fatalf("minio bucket = %q, want books", cfg.Storage.Minio.Bucket)
	}
	if cfg.Borrow.MaxActiveLoans != 3 {
		t.Fatalf("max active loans = %d, want 3", cfg.Borrow.MaxActiveLoans)
	}
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	cfg := defaults()
	cfg.Auth.JWTSecret = "secret"
	cfg.Database.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}

	cfg = defaults()
	cfg.Auth.JWTSecret = "secret"
	cfg.Storage.Backend = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported storage error")
	}
}
