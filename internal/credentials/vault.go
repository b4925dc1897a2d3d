// Package credentials guards the durable access and refresh tokens.
package credentials

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"go.uber.org/multierr"
)

// Vault reads and writes the token pair in the key-value store. Each login,
// logout or clear starts a new generation; a token refreshed under an older
// generation is discarded instead of resurrecting an ended session.
type Vault struct {
	store kv.Store

	mu         sync.Mutex
	generation uint64
}

func NewVault(store kv.Store) *Vault {
	return &Vault{store: store}
}

// Generation returns the current credential generation.
func (v *Vault) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// AccessToken returns the stored access token, if any.
func (v *Vault) AccessToken(ctx context.Context) (string, bool, error) {
	return v.read(ctx, kv.KeyAuthToken)
}

// RefreshToken returns the stored refresh token, if any.
func (v *Vault) RefreshToken(ctx context.Context) (string, bool, error) {
	return v.read(ctx, kv.KeyRefreshToken)
}

func (v *Vault) read(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := kv.GetOptional(ctx, v.store, key)
	if err != nil || !ok {
		return "", false, err
	}
	if strings.TrimSpace(value) == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Save stores a freshly issued token pair and starts a new generation.
// A token without a refresh token leaves any previous refresh token removed.
func (v *Vault) Save(ctx context.Context, token types.AuthToken) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++

	if err := v.store.Set(ctx, kv.KeyAuthToken, token.AccessToken); err != nil {
		return err
	}
	if token.HasRefresh() {
		return v.store.Set(ctx, kv.KeyRefreshToken, token.RefreshToken)
	}
	return v.store.Delete(ctx, kv.KeyRefreshToken)
}

// SaveRefreshed stores a refreshed access token only if no login, logout or
// clear happened since generation was captured. It reports whether the token was kept.
func (v *Vault) SaveRefreshed(ctx context.Context, generation uint64, accessToken string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		return false, nil
	}
	if err := v.store.Set(ctx, kv.KeyAuthToken, accessToken); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate ends the current generation without touching storage.
func (v *Vault) Invalidate() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	return v.generation
}

// Clear ends the current generation and deletes both tokens.
func (v *Vault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++

	var errs error
	for _, key := range kv.CredentialKeys {
		errs = multierr.Append(errs, v.store.Delete(ctx, key))
	}
	return errs
}
