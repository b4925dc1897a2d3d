// Package app wires the storefront together: storage backend, credential
// vault, the persisted stores and the API client.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/internal/api"
	"github.com/angelmondragon/packfinderz-storefront/internal/auth"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/credentials"
	"github.com/angelmondragon/packfinderz-storefront/internal/preferences"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/migrate"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

type Params struct {
	Config *config.Config
	Logger *logger.Logger
	// KV overrides the configured storage backend.
	KV kv.Store
	// HTTPClient overrides the API transport.
	HTTPClient api.Doer
	// Registry receives the client and store metrics when metrics are enabled.
	Registry *prometheus.Registry
}

type App struct {
	cfg     *config.Config
	log     *logger.Logger
	kv      kv.Store
	closers []io.Closer

	registry *prometheus.Registry
	vault    *credentials.Vault
	api      *api.Client

	auth        *auth.Store
	cart        *cart.Store
	wishlist    *wishlist.Store
	preferences *preferences.Store
}

// New opens the storage backend and builds every store. Nothing is read from
// storage until Boot.
func New(ctx context.Context, params Params) (*App, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}

	a := &App{cfg: params.Config, log: log, kv: params.KV}
	if a.kv == nil {
		store, closer, err := openStorage(ctx, params.Config, log)
		if err != nil {
			return nil, err
		}
		a.kv = store
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	var (
		apiMetrics   *metrics.APIClientMetrics
		storeMetrics *metrics.StoreMetrics
	)
	if params.Config.Metrics.Enabled {
		a.registry = params.Registry
		if a.registry == nil {
			a.registry = prometheus.NewRegistry()
		}
		apiMetrics = metrics.NewAPIClientMetrics(a.registry)
		storeMetrics = metrics.NewStoreMetrics(a.registry)
	}

	a.vault = credentials.NewVault(a.kv)

	var err error
	a.auth, err = auth.NewStore(auth.StoreParams{KV: a.kv, Vault: a.vault, Logger: log, Metrics: storeMetrics})
	if err != nil {
		return nil, a.fail(err)
	}
	a.cart, err = cart.NewStore(cart.StoreParams{KV: a.kv, Logger: log, Metrics: storeMetrics})
	if err != nil {
		return nil, a.fail(err)
	}
	a.wishlist, err = wishlist.NewStore(wishlist.StoreParams{KV: a.kv, Logger: log, Metrics: storeMetrics})
	if err != nil {
		return nil, a.fail(err)
	}
	a.preferences, err = preferences.NewStore(preferences.StoreParams{KV: a.kv, Logger: log, Metrics: storeMetrics})
	if err != nil {
		return nil, a.fail(err)
	}

	opts := []api.Option{
		api.WithLogger(log),
		api.WithMetrics(apiMetrics),
		api.WithSessionExpired(a.auth.Expire),
	}
	if params.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(params.HTTPClient))
	}
	a.api, err = api.NewClient(params.Config.API, a.vault, opts...)
	if err != nil {
		return nil, a.fail(err)
	}
	return a, nil
}

// openStorage builds the kv backend named by the storage driver. SQL backends
// are migrated before use.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (kv.Store, io.Closer, error) {
	driver := cfg.Storage.Normalized()
	ctx = log.WithField(ctx, "storage_driver", driver)

	switch driver {
	case config.StorageMemory:
		return kv.NewMemory(), nil, nil
	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.App.DeviceID, log)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		return client, client, nil
	case config.StorageSQLite, config.StoragePostgres:
		client, err := db.New(ctx, driver, cfg.DB, log)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap database: %w", err)
		}
		sqlDB, err := client.DB().DB()
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("sql database handle: %w", err)
		}
		if err := migrate.Up(ctx, sqlDB, client.Dialect()); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("migrate kv schema: %w", err)
		}
		store, err := kv.NewSQLStore(client.DB())
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) fail(err error) error {
	return multierr.Append(err, a.Close())
}

// BootResult reports which stores found a usable snapshot.
type BootResult struct {
	Auth          bool
	Cart          bool
	Wishlist      bool
	Preferences   bool
	TokenRestored bool
}

// Boot hydrates every store from storage, then restores the access token.
func (a *App) Boot(ctx context.Context) BootResult {
	result := BootResult{
		Auth:        a.auth.Hydrate(ctx),
		Cart:        a.cart.Hydrate(ctx),
		Wishlist:    a.wishlist.Hydrate(ctx),
		Preferences: a.preferences.Hydrate(ctx),
	}
	result.TokenRestored = a.auth.RestoreToken(ctx)

	a.log.Info(a.log.WithFields(ctx, map[string]any{
		"authenticated": result.TokenRestored,
		"cart_items":    a.cart.ItemCount(),
		"wishlist":      len(a.wishlist.Items()),
	}), "storefront booted")
	return result
}

// LoginWithEmail authenticates against the API and starts a session.
func (a *App) LoginWithEmail(ctx context.Context, email, password string) error {
	a.auth.SetLoading(true)
	resp, err := a.api.LoginWithEmail(ctx, email, password)
	if err != nil {
		a.auth.SetError(describe(err))
		return err
	}
	return a.auth.Login(ctx, resp.User, resp.Token)
}

// Register creates the account and signs it in.
func (a *App) Register(ctx context.Context, input types.RegisterInput) error {
	a.auth.SetLoading(true)
	resp, err := a.api.Register(ctx, input)
	if err != nil {
		a.auth.SetError(describe(err))
		return err
	}
	return a.auth.Login(ctx, resp.User, resp.Token)
}

// Logout empties the shopper's cart and wishlist and ends the session. The
// device preferences are kept.
func (a *App) Logout(ctx context.Context) error {
	a.wishlist.ClearWishlist(ctx)
	a.cart.ClearCart(ctx)
	return a.auth.Logout(ctx)
}

// Close releases the storage backend.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errs
}

func (a *App) API() *api.Client { return a.api }
func (a *App) Auth() *auth.Store { return a.auth }
func (a *App) Cart() *cart.Store { return a.cart }
func (a *App) Wishlist() *wishlist.Store { return a.wishlist }
func (a *App) Preferences() *preferences.Store { return a.preferences }
func (a *App) Registry() *prometheus.Registry { return a.registry }
func (a *App) Storage() kv.Store { return a.kv }
func (a *App) Logger() *logger.Logger { return a.log }

func describe(err error) string {
	return strings.TrimSpace(pkgerrors.Describe(err))
}
