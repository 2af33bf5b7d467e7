package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"yappin/internal/app"
	"yappin/pkg/config"
	"yappin/pkg/config/banner"
	"yappin/pkg/logger"
)

var version = "dev"

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	configFlag := flag.String("config", "", "path to config file")
	flag.Parse()
	configSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configSet = true
		}
	})

	path := config.ResolveConfigPath(*configFlag, configSet)
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config_load_failed: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config_invalid: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level)
	banner.Print(cfg, version)
	logger.Info("config_loaded", "addr", cfg.Addr(), "db_path", cfg.DBPath)

	a, err := app.New(cfg, version)
	if err != nil {
		logger.Error("app_init_failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("app_run_failed", "error", err)
		os.Exit(1)
	}
}
