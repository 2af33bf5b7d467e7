package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddress       = "0.0.0.0"
	defaultPort          = 8080
	defaultDBPath        = "./data"
	defaultRPS           = 1000
	defaultBurst         = 1000
	defaultMediaDir      = "./data/media"
	defaultMediaBaseURL  = "/media"
	defaultReconcileCron = "0 3 * * *" // daily at 03:00
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file. A missing path yields an
// empty config so env/defaults can carry a dev setup.
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays YAPPIN_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("YAPPIN_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("YAPPIN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("YAPPIN_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("YAPPIN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("YAPPIN_API_KEYS"); v != "" {
		c.Security.APIKeys = splitNonEmpty(v)
	}
	if v := os.Getenv("YAPPIN_MEDIA_DIR"); v != "" {
		c.Media.Dir = v
	}
	if v := os.Getenv("YAPPIN_RECONCILE_CRON"); v != "" {
		c.Reconcile.Cron = v
	}
}

// Validate applies defaults and validates values. It mutates the receiver
// to fill in missing defaults and returns an error for invalid values.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultBurst
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Media.Dir == "" {
		c.Media.Dir = defaultMediaDir
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = defaultMediaBaseURL
	}
	if c.Reconcile.Cron == "" {
		c.Reconcile.Cron = defaultReconcileCron
	}
	if !gronx.IsValid(c.Reconcile.Cron) {
		return fmt.Errorf("invalid reconcile cron expression: %s", c.Reconcile.Cron)
	}
	return nil
}

// APIKeySet returns the configured keys as a lookup set.
func (c *Config) APIKeySet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Security.APIKeys))
	for _, k := range c.Security.APIKeys {
		out[k] = struct{}{}
	}
	return out
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("YAPPIN_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

func splitNonEmpty(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
