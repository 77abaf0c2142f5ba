// Package app wires the storefront client services from configuration. Both
// the CLI and the console build on it.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-client/internal/admin"
	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/checkout"
	"github.com/angelmondragon/storefront-client/internal/remote"
	"github.com/angelmondragon/storefront-client/internal/routes"
	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/db"
	"github.com/angelmondragon/storefront-client/pkg/kv"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/angelmondragon/storefront-client/pkg/redis"
)

// App holds the process-wide services. Open it once and Close it on exit.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    kv.Store
	Sessions *session.Store
	Client   *remote.Client
	Cart     *cart.Store
	Checkout checkout.Service
	Guard    *routes.Guard
	Registry *prometheus.Registry
	Actions  *metrics.ActionMetrics
}

// OpenStore opens the durable key-value backend named by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFile:
		store, err := kv.OpenFile(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		client, err := db.New(ctx, cfg.Store, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

// Open builds every service on top of the configured store.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	a, err := New(ctx, cfg, logg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// New builds every service on top of store. The cart is restored from it.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, store kv.Store) (*App, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	sessions, err := session.Open(ctx, store, logg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	client, err := remote.NewClient(cfg.API.BaseURL, sessions,
		remote.WithTimeout(cfg.API.Timeout),
		remote.WithMetrics(metrics.NewRemoteMetrics(registry)),
		remote.WithLogger(logg),
	)
	if err != nil {
		return nil, err
	}

	c := cart.New()
	if err := cart.Load(ctx, store, c); err != nil {
		return nil, err
	}
	checkoutSvc, err := checkout.NewService(c, client, sessions, logg)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logg,
		Store:    store,
		Sessions: sessions,
		Client:   client,
		Cart:     c,
		Checkout: checkoutSvc,
		Guard:    routes.NewGuard(sessions),
		Registry: registry,
		Actions:  metrics.NewActionMetrics(registry),
	}, nil
}

// NewAdminWorkflow starts a dashboard scope. The caller disposes it.
func (a *App) NewAdminWorkflow() (*admin.Workflow, error) {
	return admin.New(admin.Params{
		API:     a.Client,
		Session: a.Sessions,
		Logger:  a.Logger,
		Metrics: a.Actions,
	})
}

// PersistCart saves the cart after every change until the returned func is
// called.
func (a *App) PersistCart(ctx context.Context) func() {
	return a.Cart.Subscribe(func([]cart.Line) {
		if err := a.SaveCart(ctx); err != nil {
			a.Logger.Error(ctx, "cart.persist_failed", err)
		}
	})
}

func (a *App) SaveCart(ctx context.Context) error {
	return cart.Save(ctx, a.Store, a.Cart)
}

func (a *App) Close() error {
	a.Guard.Close()
	return a.Store.Close()
}
