package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))

	store, err := NewSQLStore(db)
	require.NoError(t, err)
	return store
}

func TestStoresRoundTrip(t *testing.T) {
	backends := map[string]Store{
		"memory": NewMemory(),
		"sql":    setupSQLStore(t),
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, KeyAuthToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, KeyAuthToken, "token-1"))
			require.NoError(t, store.Set(ctx, KeyAuthToken, "token-2"))

			got, err := store.Get(ctx, KeyAuthToken)
			require.NoError(t, err)
			assert.Equal(t, "token-2", got)

			require.NoError(t, store.Delete(ctx, KeyAuthToken))
			require.NoError(t, store.Delete(ctx, KeyAuthToken), "deleting a missing key is not an error")

			_, ok, err := GetOptional(ctx, store, KeyAuthToken)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	type profile struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}

	var out profile
	found, err := GetJSON(ctx, store, KeyUser, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, store, KeyUser, profile{ID: 7, Email: "a@b.co"}))
	found, err = GetJSON(ctx, store, KeyUser, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, profile{ID: 7, Email: "a@b.co"}, out)

	require.NoError(t, store.Set(ctx, KeyUser, "{not json"))
	_, err = GetJSON(ctx, store, KeyUser, &out)
	assert.Error(t, err)
}

func TestGetOptionalPropagatesBackendErrors(t *testing.T) {
	boom := errors.New("backend down")
	_, _, err := GetOptional(context.Background(), failingStore{err: boom}, "k")
	assert.ErrorIs(t, err, boom)
}

func TestEveryPersistedKeyHasALogoutPolicy(t *testing.T) {
	for _, key := range []string{
		KeyAuthToken, KeyRefreshToken, KeyUser, KeyCart, KeyWishlist, KeyRecentSearches,
		KeyUserPreferences, KeyTheme, KeyLanguage,
		StoreAuth, StoreCart, StoreWishlist, StorePreferences,
	} {
		assert.True(t, Classified(key), "key %s is neither session nor device scoped", key)
	}
	for _, key := range CredentialKeys {
		assert.Contains(t, SessionKeys, key)
	}
	assert.NotContains(t, SessionKeys, StorePreferences)
	assert.False(t, Classified("something-new"))
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error         { return f.err }
