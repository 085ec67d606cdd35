// Package app composes the client: config, cache, backend transport, push
// feed, sync engine, and the TUI shell.
package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/backend"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/bus"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/cache"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/config"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/lock"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/logging"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/profile"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/push"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/status"
	"github.com/kedar94c/whatsapp-crm-frontend/internal/tui"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("client",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideCache,
			provideBackend,
			provideEngine,
			provideFeed,
			provideMirror,
			provideTUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		return nil, err
	}
	// The token never lives in config.toml; it comes from the environment
	// (or a .env file loaded in main).
	if token := os.Getenv("INBOX_TOKEN"); token != "" {
		cfg.AuthToken = token
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

func provideCache(p Params, logger *zap.Logger) (*cache.DB, error) {
	dbPath := profile.CacheDBPath(p.ProfileName)
	db, err := cache.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideBackend(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.New(cfg.BackendURL, cfg.AuthToken, logger)
}

func provideEngine(client *backend.Client, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *inbox.Engine {
	opts := inbox.Options{RevertPreviewOnFailure: cfg.RevertPreviewOnSendFailure}
	return inbox.NewEngine(client, b, logger, opts)
}

func provideFeed(cfg *config.Config, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *push.Feed {
	return push.NewFeed(cfg.FeedURL, cfg.AuthToken, b, machine, logger)
}

func provideMirror(db *cache.DB, b *bus.Bus, logger *zap.Logger) *cache.Mirror {
	return cache.NewMirror(db, b, logger)
}

func provideTUI(p Params, engine *inbox.Engine, b *bus.Bus, db *cache.DB, client *backend.Client, cfg *config.Config, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Params{
		Engine:      engine,
		Bus:         b,
		Cache:       db,
		Profiles:    client,
		Config:      cfg,
		ProfileName: p.ProfileName,
		Logger:      logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, ui *tui.App, engine *inbox.Engine, feed *push.Feed, mirror *cache.Mirror, db *cache.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The mirror subscribes before the engine publishes anything, so
			// the first summary fetch lands in the cache too.
			mirror.Start(context.Background())
			engine.Start(context.Background())
			feed.Start(context.Background())

			// tview owns the foreground; the fx app shuts down when the
			// operator quits the UI.
			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("tui error", zap.Error(err))
				}
				_ = sd.Shutdown()
			}()

			return nil
		},
		OnStop: func(_ context.Context) error {
			ui.Stop()
			feed.Stop()
			engine.Stop()
			mirror.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing cache", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
