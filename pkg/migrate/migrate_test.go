package migrate

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/stretchr/testify/require"
)

func TestUpCreatesKVTable(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.StorageSQLite, config.DBConfig{DSN: "file:migrate_up?mode=memory&cache=shared", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	require.NoError(t, Up(ctx, sqlDB, client.Dialect()))
	require.NoError(t, Up(ctx, sqlDB, client.Dialect()), "up must be idempotent")

	version, err := Version(sqlDB, client.Dialect())
	require.NoError(t, err)
	require.Equal(t, int64(1), version)

	store, err := kv.NewSQLStore(client.DB())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, kv.KeyCart, `{"items":[]}`))
	got, err := store.Get(ctx, kv.KeyCart)
	require.NoError(t, err)
	require.Equal(t, `{"items":[]}`, got)
}

func TestRunRequiresInputs(t *testing.T) {
	require.Error(t, Run(context.Background(), nil, "sqlite3", "up"))
}
