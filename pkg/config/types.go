package config

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ServerConfig struct {
	Address   string          `yaml:"address"`
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type SecurityConfig struct {
	// APIKeys authorizes backend callers; empty means open (dev mode).
	APIKeys []string `yaml:"api_keys"`
}

type MediaConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// ReconcileConfig schedules the counter reconciliation job.
type ReconcileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DBPath    string          `yaml:"db_path"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Media     MediaConfig     `yaml:"media"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}
