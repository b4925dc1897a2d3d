package credentials

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStoresTokenPair(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	vault := NewVault(store)

	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	access, ok, err := vault.AccessToken(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "access-1", access)

	refresh, ok, err := vault.RefreshToken(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestSaveWithoutRefreshDropsOldRefreshToken(t *testing.T) {
	ctx := context.Background()
	vault := NewVault(kv.NewMemory())

	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "b"}))

	_, ok, err := vault.RefreshToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveRefreshedRespectsGeneration(t *testing.T) {
	ctx := context.Background()
	vault := NewVault(kv.NewMemory())
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale", RefreshToken: "r"}))

	gen := vault.Generation()
	kept, err := vault.SaveRefreshed(ctx, gen, "fresh")
	require.NoError(t, err)
	assert.True(t, kept)

	access, _, _ := vault.AccessToken(ctx)
	assert.Equal(t, "fresh", access)
}

func TestRefreshAfterLogoutDoesNotResurrectToken(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	vault := NewVault(store)
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale", RefreshToken: "r"}))

	gen := vault.Generation()
	require.NoError(t, vault.Clear(ctx))

	kept, err := vault.SaveRefreshed(ctx, gen, "zombie")
	require.NoError(t, err)
	assert.False(t, kept)

	_, ok, err := vault.AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestInvalidateBumpsGeneration(t *testing.T) {
	vault := NewVault(kv.NewMemory())
	before := vault.Generation()
	assert.Equal(t, before+1, vault.Invalidate())
	assert.Equal(t, before+1, vault.Generation())
}

func TestBlankTokensReadAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyAuthToken, "  "))

	_, ok, err := NewVault(store).AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
