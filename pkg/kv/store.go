// Package kv is the string key-value capability the client state lives on.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is an opaque async string store. Implementations namespace keys as they see fit;
// callers never assume they own the whole key space.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetOptional returns ("", false, nil) for a missing key instead of ErrNotFound.
func GetOptional(ctx context.Context, store Store, key string) (string, bool, error) {
	value, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetJSON serializes value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return store.Set(ctx, key, string(raw))
}

// GetJSON decodes the value at key into dest. found is false when the key is absent.
func GetJSON(ctx context.Context, store Store, key string, dest any) (bool, error) {
	raw, ok, err := GetOptional(ctx, store, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
