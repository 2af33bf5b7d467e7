package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateAppliesDefaults(t *testing.T) {
	var c Config
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %s", c.Addr())
	}
	if c.DBPath != "./data" {
		t.Fatalf("db path = %s", c.DBPath)
	}
	if c.Server.RateLimit.RPS != 1000 || c.Server.RateLimit.Burst != 1000 {
		t.Fatalf("rate limit = %v/%v", c.Server.RateLimit.RPS, c.Server.RateLimit.Burst)
	}
	if c.Logging.Level != "info" {
		t.Fatalf("log level = %s", c.Logging.Level)
	}
	if c.Reconcile.Cron != "0 3 * * *" {
		t.Fatalf("cron = %s", c.Reconcile.Cron)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	c := Config{}
	c.Server.Port = 70000
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for port out of range")
	}

	c = Config{}
	c.Reconcile.Cron = "not a cron"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for invalid cron")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  address: "127.0.0.1"
  port: 9090
  rate_limit:
    rps: 50
    burst: 100
db_path: /tmp/yappin-test
logging:
  level: debug
security:
  api_keys:
    - key-one
    - key-two
reconcile:
  enabled: true
  cron: "*/5 * * * *"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if cfg.DBPath != "/tmp/yappin-test" {
		t.Fatalf("db path = %s", cfg.DBPath)
	}
	if len(cfg.Security.APIKeys) != 2 {
		t.Fatalf("api keys = %v", cfg.Security.APIKeys)
	}
	keys := cfg.APIKeySet()
	if _, ok := keys["key-one"]; !ok {
		t.Fatal("key-one missing from set")
	}
	if !cfg.Reconcile.Enabled || cfg.Reconcile.Cron != "*/5 * * * *" {
		t.Fatalf("reconcile = %+v", cfg.Reconcile)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	// empty path means "no file": defaults carry the dev setup
	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate empty: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("YAPPIN_ADDRESS", "10.0.0.1")
	t.Setenv("YAPPIN_PORT", "7070")
	t.Setenv("YAPPIN_API_KEYS", "k1, k2, ,k3")

	var c Config
	c.ApplyEnv()
	if c.Server.Address != "10.0.0.1" || c.Server.Port != 7070 {
		t.Fatalf("server = %+v", c.Server)
	}
	if len(c.Security.APIKeys) != 3 {
		t.Fatalf("api keys = %v", c.Security.APIKeys)
	}
}
