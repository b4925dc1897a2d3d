// Package persist keeps a JSON snapshot of a state store in the key-value store.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// Options configures a Container for state T persisted as snapshot S.
type Options[T any, S any] struct {
	// Name is both the storage key and the tag written into the envelope.
	Name    string
	Version int
	Store   kv.Store
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	// Partialize selects the persisted subset of the state.
	Partialize func(*T) S
	// Merge applies a decoded snapshot back onto the state.
	Merge func(*T, S)
}

// Container loads a store's snapshot once at startup and rewrites it after every mutation.
// Persistence failures are logged and swallowed.
type Container[T any, S any] struct {
	opts Options[T, S]

	mu      sync.Mutex
	lastSeq uint64
}

type envelope struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

func New[T any, S any](opts Options[T, S]) (*Container[T, S], error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, fmt.Errorf("persist: name is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("persist: store is required for %s", opts.Name)
	}
	if opts.Partialize == nil || opts.Merge == nil {
		return nil, fmt.Errorf("persist: partialize and merge are required for %s", opts.Name)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Container[T, S]{opts: opts}, nil
}

func (c *Container[T, S]) Name() string {
	return c.opts.Name
}

// Hydrate overlays the stored snapshot onto state. Top-level snapshot fields missing
// from storage keep the values currently in state. It reports whether a snapshot was applied.
// The caller must hold whatever lock guards state.
func (c *Container[T, S]) Hydrate(ctx context.Context, state *T) bool {
	ctx = c.opts.Logger.WithStore(ctx, c.opts.Name)

	raw, ok, err := kv.GetOptional(ctx, c.opts.Store, c.opts.Name)
	if err != nil {
		c.fail(ctx, "read", "read persisted snapshot", err)
		return false
	}
	if !ok {
		return false
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		c.fail(ctx, "decode", "decode persisted envelope", err)
		return false
	}
	if env.Name != c.opts.Name {
		c.opts.Logger.Warn(c.opts.Logger.WithField(ctx, "found", env.Name), "ignoring snapshot tagged for another store")
		return false
	}
	if env.Version != c.opts.Version {
		c.opts.Logger.Warn(c.opts.Logger.WithField(ctx, "found_version", env.Version), "ignoring snapshot with unknown version")
		return false
	}

	snapshot, err := overlay(c.opts.Partialize(state), env.State)
	if err != nil {
		c.fail(ctx, "decode", "decode persisted state", err)
		return false
	}
	c.opts.Merge(state, snapshot)
	c.opts.Logger.Debug(ctx, "hydrated store")
	return true
}

// overlay replaces the top-level fields of base that are present in stored.
func overlay[S any](base S, stored json.RawMessage) (S, error) {
	var out S
	if len(stored) == 0 || string(stored) == "null" {
		return base, nil
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(stored, &present); err != nil {
		return out, err
	}

	rawBase, err := json.Marshal(base)
	if err != nil {
		return out, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(rawBase, &merged); err != nil {
		return out, err
	}
	for field, value := range present {
		merged[field] = value
	}

	rawMerged, err := json.Marshal(merged)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(rawMerged, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Persist writes snapshot if seq is newer than the last snapshot written.
// Writes are serialized, so snapshots land in mutation order.
func (c *Container[T, S]) Persist(ctx context.Context, seq uint64, snapshot S) {
	ctx = c.opts.Logger.WithStore(ctx, c.opts.Name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.lastSeq {
		c.opts.Logger.Debug(c.opts.Logger.WithField(ctx, "seq", seq), "skipping stale snapshot")
		return
	}
	c.lastSeq = seq

	state, err := json.Marshal(snapshot)
	if err != nil {
		c.fail(ctx, "write", "encode snapshot", err)
		return
	}
	raw, err := json.Marshal(envelope{Name: c.opts.Name, Version: c.opts.Version, State: state})
	if err != nil {
		c.fail(ctx, "write", "encode envelope", err)
		return
	}
	if err := c.opts.Store.Set(ctx, c.opts.Name, string(raw)); err != nil {
		c.fail(ctx, "write", "write snapshot", err)
		return
	}
	c.opts.Metrics.IncWrite(c.opts.Name)
}

func (c *Container[T, S]) fail(ctx context.Context, op, msg string, err error) {
	c.opts.Metrics.IncFailure(c.opts.Name, op)
	c.opts.Logger.Error(ctx, msg, err)
}

// Sequence numbers a store's mutations. Next must be called under the store's lock.
type Sequence struct {
	n uint64
}

func (s *Sequence) Next() uint64 {
	s.n++
	return s.n
}
