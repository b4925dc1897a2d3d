package db

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
)

func TestNewSQLiteClient(t *testing.T) {
	ctx := context.Background()
	client, err := New(ctx, config.StorageSQLite, config.DBConfig{DSN: "file::memory:?cache=shared", MaxOpenConns: 1}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() { _ = client.Close() }()

	if client.Dialect() != "sqlite3" {
		t.Fatalf("unexpected dialect %q", client.Dialect())
	}
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if client.DB() == nil {
		t.Fatalf("expected gorm handle")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, config.StorageSQLite, config.DBConfig{}, nil); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
	if _, err := New(ctx, config.StorageRedis, config.DBConfig{DSN: "x"}, nil); err == nil {
		t.Fatalf("expected error for non-sql driver")
	}
}
