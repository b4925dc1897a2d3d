package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/migrate"
)

// runMigrate applies goose commands to the SQL storage backend.
func runMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, command string) error {
	driver := cfg.Storage.Normalized()
	if driver != config.StorageSQLite && driver != config.StoragePostgres {
		return fmt.Errorf("storage driver %q has no schema to migrate", driver)
	}

	dbClient, err := db.New(ctx, driver, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database handle: %w", err)
	}

	ctx = logg.WithField(ctx, "migrate", command)
	switch command {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, dbClient.Dialect(), command); err != nil {
			return err
		}
	case "version":
		version, err := migrate.Version(sqlDB, dbClient.Dialect())
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d\n", version)
	default:
		return fmt.Errorf("unknown -migrate value %q", command)
	}
	logg.Info(ctx, "migration complete")
	return nil
}
