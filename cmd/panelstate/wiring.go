package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/panelstate/internal/adapters/file"
	"github.com/aretw0/panelstate/internal/config"
	httpAdapter "github.com/aretw0/panelstate/pkg/adapters/http"
	"github.com/aretw0/panelstate/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/panelstate/pkg/adapters/redis"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/observability"
	"github.com/aretw0/panelstate/pkg/persistence"
	"github.com/aretw0/panelstate/pkg/persistence/middleware"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/aretw0/panelstate/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// app is the long running part shared by serve and mcp.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    ports.SnapshotStore // nil when the store kind is none
	streams  *httpAdapter.StreamManager
	metrics  *prometheus.Registry
	sessions *session.Manager
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		streams: httpAdapter.NewStreamManager(logger),
		metrics: prometheus.NewRegistry(),
	}

	store, closeStore, err := buildStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	notifier, closeNotifier, err := buildNotifier(cfg.Notify, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeNotifier)

	m := observability.NewMetrics("panelstate")
	if err := m.Register(a.metrics); err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	hooks := []registry.Hooks{m.Hooks(), observability.LogHooks(logger)}
	if store != nil {
		hooks = append(hooks, persistence.Hooks(store, logger))
	}
	reg := registry.New(
		registry.WithLogger(logger),
		registry.WithContext(ctx),
		registry.WithHooks(registry.ComposeHooks(hooks...)),
	)
	a.sessions = session.NewManager(reg,
		session.WithLogger(logger),
		session.WithNotifier(ports.MultiNotifier{a.streams, notifier}),
	)
	return a, nil
}

// restore recreates an entry for every stored state.
func (a *app) restore(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}
	ids, err := a.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored states: %w", err)
	}
	n := 0
	for _, id := range ids {
		initial, err := persistence.Hydrate(ctx, a.store, id, nil)
		if err != nil {
			a.logger.Warn("skipping stored state", "id", id, "err", err)
			continue
		}
		if _, _, err := a.sessions.GetOrCreate(id, nil, initial); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// checkpoint writes every live entry to the store.
func (a *app) checkpoint(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}
	return persistence.Checkpoint(ctx, a.sessions.Snapshot(), a.store)
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] != nil {
			errs = append(errs, a.closers[i]())
		}
	}
	return errors.Join(errs...)
}

// buildStore opens the configured store wrapped in the configured
// middleware. A nil store means persistence is off.
func buildStore(cfg config.StoreConfig) (ports.SnapshotStore, func() error, error) {
	// Keys are checked before any connection is opened.
	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, nil, err
	}

	var (
		store   ports.SnapshotStore
		closeFn func() error
	)
	switch cfg.Kind {
	case config.StoreNone:
		return nil, nil, nil
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Path)
	case config.StoreRedis:
		opts := []redisAdapter.Option{redisAdapter.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		rs := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		store, closeFn = rs, rs.Close
	default:
		return nil, nil, fmt.Errorf("%w: store.kind %q", config.ErrInvalidConfig, cfg.Kind)
	}

	var mws []middleware.Middleware
	if len(cfg.MaskFields) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.MaskFields))
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

// buildNotifier returns the host notifier besides the SSE stream. A nil
// notifier is skipped by ports.MultiNotifier.
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) (ports.Notifier, func() error, error) {
	switch cfg.Kind {
	case config.NotifyNone:
		return nil, nil, nil
	case config.NotifyLog:
		return ports.NotifierFunc(func(ctx context.Context, msg domain.Message) error {
			logger.InfoContext(ctx, "notify", "id", msg.Content.Key, "action", msg.Action)
			return nil
		}), nil, nil
	case config.NotifyRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		n := redisAdapter.NewNotifier(client,
			redisAdapter.WithChannel(cfg.Channel),
			redisAdapter.WithLogger(logger),
		)
		return n, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: notify.kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
}
