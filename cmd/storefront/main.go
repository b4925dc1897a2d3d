package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/packfinderz-storefront/internal/app"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/joho/godotenv"
)

const serviceName = "storefront"

type options struct {
	cmd string

	email    string
	password string
	name     string
	id       int
	product  int
	quantity int
	line     string
	query    string
	code     string
	category int
	sort     string
	page     int
	perPage  int
	language string
	dark     string
	payment  string
	migrate  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "status", "command: "+commandList())
	flag.StringVar(&opts.email, "email", "", "account email (login, register, reset)")
	flag.StringVar(&opts.password, "password", "", "account password (login, register)")
	flag.StringVar(&opts.name, "name", "", "full name (register)")
	flag.IntVar(&opts.id, "id", 0, "product, category or order id")
	flag.IntVar(&opts.product, "product", 0, "product id (cart-add, wishlist-toggle)")
	flag.IntVar(&opts.quantity, "qty", 1, "quantity (cart-add, cart-update)")
	flag.StringVar(&opts.line, "line", "", "cart line id (cart-update, cart-remove)")
	flag.StringVar(&opts.query, "q", "", "search term")
	flag.StringVar(&opts.code, "code", "", "coupon code")
	flag.IntVar(&opts.category, "category", 0, "category filter for catalog")
	flag.StringVar(&opts.sort, "sort", "", "catalog sort: popularity|date|price|price-desc|rating")
	flag.IntVar(&opts.page, "page", 1, "page number")
	flag.IntVar(&opts.perPage, "per-page", 0, "page size")
	flag.StringVar(&opts.language, "lang", "", "ui language (prefs)")
	flag.StringVar(&opts.dark, "dark", "", "dark mode on|off|toggle (prefs)")
	flag.StringVar(&opts.payment, "payment", "cod", "payment method (checkout)")
	flag.StringVar(&opts.migrate, "migrate", "up", "migration command: up|down|status|version")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"device": cfg.App.DeviceID,
	})

	if opts.cmd == "migrate" {
		if err := runMigrate(ctx, cfg, logg, opts.migrate); err != nil {
			logg.Error(ctx, "migration failed", err)
			os.Exit(1)
		}
		return
	}

	storefront, err := app.New(ctx, app.Params{Config: cfg, Logger: logg})
	requireResource(ctx, logg, "storefront", err)
	defer func() {
		if err := storefront.Close(); err != nil {
			logg.Error(ctx, "error closing storage", err)
		}
	}()
	storefront.Boot(ctx)

	if err := run(ctx, storefront, opts, os.Stdout); err != nil {
		logg.Error(ctx, "command failed", err)
		fmt.Fprintln(os.Stderr, describe(err))
		_ = storefront.Close()
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
