// Package wishlist keeps the shopper's favorited products.
package wishlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/persist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

type State struct {
	Items []types.Product
}

type Snapshot struct {
	Items []types.Product `json:"items"`
}

// StoreParams groups dependencies for the wishlist store.
type StoreParams struct {
	KV      kv.Store
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

// Store holds at most one entry per product id.
type Store struct {
	persist *persist.Container[State, Snapshot]

	mu    sync.Mutex
	state State
	seq   persist.Sequence
}

func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("wishlist: kv store is required")
	}
	container, err := persist.New(persist.Options[State, Snapshot]{
		Name:    kv.StoreWishlist,
		Store:   params.KV,
		Logger:  params.Logger,
		Metrics: params.Metrics,
		Partialize: func(s *State) Snapshot {
			return Snapshot{Items: cloneProducts(s.Items)}
		},
		Merge: func(s *State, snap Snapshot) {
			seen := map[int]struct{}{}
			items := make([]types.Product, 0, len(snap.Items))
			for _, product := range snap.Items {
				if _, dup := seen[product.ID]; dup {
					continue
				}
				seen[product.ID] = struct{}{}
				items = append(items, product)
			}
			s.Items = items
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{persist: container}, nil
}

func cloneProducts(items []types.Product) []types.Product {
	out := make([]types.Product, len(items))
	copy(out, items)
	return out
}

// Hydrate loads the persisted wishlist, if any.
func (s *Store) Hydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist.Hydrate(ctx, &s.state)
}

func (s *Store) mutate(ctx context.Context, fn func(*State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	seq := s.seq.Next()
	snap := Snapshot{Items: cloneProducts(s.state.Items)}
	s.mu.Unlock()

	s.persist.Persist(ctx, seq, snap)
}

func indexOf(items []types.Product, productID int) int {
	for i, item := range items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem favorites the product unless it is already present.
func (s *Store) AddItem(ctx context.Context, product types.Product) {
	s.mutate(ctx, func(state *State) bool {
		if indexOf(state.Items, product.ID) >= 0 {
			return false
		}
		state.Items = append(state.Items, product)
		return true
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID int) {
	s.mutate(ctx, func(state *State) bool {
		i := indexOf(state.Items, productID)
		if i < 0 {
			return false
		}
		state.Items = append(state.Items[:i:i], state.Items[i+1:]...)
		return true
	})
}

// Toggle adds or removes the product and reports whether it is now a favorite.
func (s *Store) Toggle(ctx context.Context, product types.Product) bool {
	favorite := false
	s.mutate(ctx, func(state *State) bool {
		if i := indexOf(state.Items, product.ID); i >= 0 {
			state.Items = append(state.Items[:i:i], state.Items[i+1:]...)
			return true
		}
		state.Items = append(state.Items, product)
		favorite = true
		return true
	})
	return favorite
}

func (s *Store) IsFavorite(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Items, productID) >= 0
}

func (s *Store) ClearWishlist(ctx context.Context) {
	s.mutate(ctx, func(state *State) bool {
		state.Items = nil
		return true
	})
}

func (s *Store) Items() []types.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProducts(s.state.Items)
}
