package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"yappin/internal/reconcile"
	"yappin/pkg/api"
	"yappin/pkg/auth"
	"yappin/pkg/config"
	"yappin/pkg/content"
	"yappin/pkg/groups"
	"yappin/pkg/identity"
	"yappin/pkg/logger"
	"yappin/pkg/media"
	"yappin/pkg/messaging"
	"yappin/pkg/notify"
	"yappin/pkg/social"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
)

// App groups server state and components.
type App struct {
	cfg     *config.Config
	db      *treedb.Store
	srv     *fasthttp.Server
	recon   *reconcile.Manager
	version string
	state   string
}

// New sets up resources that don't need a running context: the store, the
// engines, and the HTTP handler. Call Run to serve and block.
func New(cfg *config.Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := treedb.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	uploader, err := media.NewLocalUploader(cfg.Media.Dir, cfg.Media.BaseURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init media dir: %w", err)
	}

	notifier := notify.New(db)
	socialEng := social.New(db, notifier)
	a := &api.API{
		Identity:  identity.New(db),
		Social:    socialEng,
		Content:   content.New(db, notifier),
		Groups:    groups.New(db, notifier),
		Messaging: messaging.New(db, socialEng, notifier),
		Notif:     notifier,
		Media:     uploader,
	}

	sec := auth.SecConfig{
		APIKeys: cfg.APIKeySet(),
		RPS:     cfg.Server.RateLimit.RPS,
		Burst:   cfg.Server.RateLimit.Burst,
	}

	srv := &fasthttp.Server{
		Handler:            a.Handler(sec),
		Name:               "yappin",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		MaxRequestBodySize: 16 << 20,
	}

	userCount, err := db.CountChildren(paths.UsersPrefix())
	if err != nil {
		userCount = 0
	}
	logger.Info("app_initialized",
		"version", version,
		"db_path", cfg.DBPath,
		"users", humanize.Comma(userCount),
		"api_keys", len(sec.APIKeys),
		"rate_rps", cfg.Server.RateLimit.RPS,
	)

	return &App{cfg: cfg, db: db, srv: srv, version: version, state: "initialized"}, nil
}

// Run starts the reconciliation job and serves until the context is
// cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	a.recon = reconcile.Start(ctx, a.db, a.cfg.Reconcile)
	a.state = "running"

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", a.cfg.Addr())
		errCh <- a.srv.ListenAndServe(a.cfg.Addr())
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		a.state = "stopped"
		return err
	}
}

// Shutdown stops the server, the reconcile job, and the store, in that
// order.
func (a *App) Shutdown() error {
	a.state = "shutting_down"
	if a.recon != nil {
		a.recon.Stop()
	}
	if err := a.srv.Shutdown(); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	a.state = "stopped"
	logger.Info("app_stopped")
	return nil
}
