package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"indexchat/internal/chat"
	"indexchat/internal/config"
	"indexchat/internal/gemini"
	"indexchat/internal/store"
)

// app bundles the wired dependencies every serving command needs.
type app struct {
	cfg     *config.Config
	store   store.Store
	service *chat.Service
	logger  *slog.Logger
}

func loadConfig(validate bool, overrides *config.Overrides) (*config.Config, error) {
	dir, err := filepath.Abs(globalFlags.Dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Options{
		ConfigPath:   globalFlags.ConfigPath,
		Dir:          dir,
		SkipValidate: !validate,
		Overrides:    overrides,
	})
	if err != nil {
		return nil, withExitCode(ExitConfigInvalid, err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:     cfg.Store.Driver,
		MongoURI:   cfg.Store.MongoURI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		return nil, withExitCode(ExitStoreUnavailable, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err))
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, withExitCode(ExitStoreUnavailable, fmt.Errorf("ping %s store: %w", cfg.Store.Driver, err))
	}
	return st, nil
}

func newService(cfg *config.Config, st store.Store, logger *slog.Logger) *chat.Service {
	client := gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model)
	svc := chat.NewService(client, st)
	svc.SetLogger(logger)
	svc.SetTemperature(float32(cfg.Gemini.Temperature))
	svc.SetRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay.Duration)
	return svc
}

// newApp loads validated config, opens and pings the store and builds the
// chat service. Callers must call close.
func newApp(ctx context.Context, overrides *config.Overrides) (*app, error) {
	cfg, err := loadConfig(true, overrides)
	if err != nil {
		return nil, err
	}
	logger := stderrLogger()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		store:   st,
		service: newService(cfg, st, logger),
		logger:  logger,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}
