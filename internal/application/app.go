// Package application wires configuration, logging and the selected storage
// backend into the services used by the CLI and the MCP server.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/qrforge/qrforge/internal/config"
	"github.com/qrforge/qrforge/internal/database"
	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
	"github.com/qrforge/qrforge/internal/session"
	"github.com/qrforge/qrforge/internal/store"
	qrredis "github.com/qrforge/qrforge/internal/store/redis"
	"github.com/qrforge/qrforge/internal/usecase"
)

// App holds the opened backend and the services built on it.
type App struct {
	Config *config.Config
	Log    logger.Logger

	KV     store.KeyValue
	Store  *store.LocalStore
	Codes  *usecase.Codes
	Drafts *usecase.Drafts

	closers []func() error
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}

	app := &App{Config: cfg, Log: log}

	kv, err := app.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	app.KV = kv

	formatter := qr.NewFormatter(log.With(logger.String("component", "formatter")))
	app.Store = store.NewLocalStore(kv, log.With(logger.String("component", "store")))
	app.Codes = usecase.NewCodes(app.Store, formatter, usecase.WithDefaultStyle(cfg.Defaults))
	app.Drafts = usecase.NewDrafts(kv, app.Store, app.SessionOptions()...)

	return app, nil
}

// SessionOptions are the options every editing session is created with.
func (a *App) SessionOptions() []session.Option {
	return []session.Option{
		session.WithDefaultStyle(a.Config.Defaults),
		session.WithHistoryLimit(a.Config.History.Limit),
		session.WithLogger(a.Log.With(logger.String("component", "session"))),
	}
}

// NewSession starts an in-memory editing session that saves to the store.
func (a *App) NewSession() *session.Session {
	return session.New(a.Store, a.SessionOptions()...)
}

func (a *App) openBackend(ctx context.Context) (store.KeyValue, error) {
	switch a.Config.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil

	case config.BackendRedis:
		rc := a.Config.Redis
		opts := qrredis.DefaultConnectOptions(rc.Addr)
		opts.User = rc.Username
		opts.Password = rc.Password
		opts.RedisDB = rc.DB
		if rc.ConnectTimeout > 0 {
			opts.ConnectTimeout = rc.ConnectTimeout
		}
		client, err := qrredis.Connect(ctx, opts, a.Log.With(logger.String("component", "redis")))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return qrredis.NewKV(client, qrredis.NewKeyspace(rc.KeyPrefix)), nil

	case config.BackendSQLite, "":
		dbCtx, err := database.CreateDatabase("")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return database.CloseDatabase(dbCtx) })
		return database.NewKVRepository(dbCtx), nil

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, a.Config.Backend)
	}
}

// Clear removes every key the backend holds, saved codes and the draft
// included, and returns the keys that were present.
func (a *App) Clear(ctx context.Context) ([]string, error) {
	f, ok := a.KV.(store.Flusher)
	if !ok {
		return nil, fmt.Errorf("backend %q cannot be cleared", a.Config.Backend)
	}

	keys, err := f.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.Flush(ctx); err != nil {
		a.Log.Error("failed to clear backend", logger.Error(err))
		return nil, err
	}

	a.Log.Info("cleared backend",
		logger.String("backend", string(a.Config.Backend)),
		logger.Int("keys", len(keys)))
	return keys, nil
}

// Close releases the backend and flushes the logger.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	_ = a.Log.Sync()
	return firstErr
}

// OpenDefault loads configuration, builds the logger and opens the backend.
func OpenDefault(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.Redis.ConnectTimeout+5*time.Second)
	defer cancel()

	return Open(openCtx, cfg, log)
}
