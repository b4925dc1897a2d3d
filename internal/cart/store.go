// Package cart holds the shopper's cart lines and the totals last quoted for them.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/persist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// State is the in-memory cart.
type State struct {
	Items  []Item
	Totals Totals
	Coupon string
}

// Snapshot is the persisted form of the cart; the whole state is kept.
type Snapshot struct {
	Items    []Item          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   *string         `json:"coupon"`
}

// StoreParams groups dependencies for the cart store.
type StoreParams struct {
	KV      kv.Store
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

// Store is safe for concurrent use. Mutations never fail; invalid input is
// normalized and storage errors are logged.
type Store struct {
	log     *logger.Logger
	persist *persist.Container[State, Snapshot]

	mu    sync.Mutex
	state State
	seq   persist.Sequence
}

func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("cart: kv store is required")
	}
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}
	container, err := persist.New(persist.Options[State, Snapshot]{
		Name:       kv.StoreCart,
		Store:      params.KV,
		Logger:     log,
		Metrics:    params.Metrics,
		Partialize: partialize,
		Merge:      merge,
	})
	if err != nil {
		return nil, err
	}
	return &Store{log: log, persist: container}, nil
}

func partialize(s *State) Snapshot {
	snap := Snapshot{
		Items:    cloneItems(s.Items),
		Subtotal: s.Totals.Subtotal,
		Tax:      s.Totals.Tax,
		Shipping: s.Totals.Shipping,
		Discount: s.Totals.Discount,
		Total:    s.Totals.Total,
	}
	if s.Coupon != "" {
		coupon := s.Coupon
		snap.Coupon = &coupon
	}
	return snap
}

// merge rebuilds the state from a snapshot, dropping lines that could not have
// been written by this store.
func merge(s *State, snap Snapshot) {
	items := make([]Item, 0, len(snap.Items))
	index := map[string]int{}
	for _, item := range snap.Items {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if pos, ok := index[item.ID]; ok {
			items[pos].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(items)
		items = append(items, item.clone())
	}
	s.Items = items
	s.Totals = Totals{
		Subtotal: snap.Subtotal,
		Tax:      snap.Tax,
		Shipping: snap.Shipping,
		Discount: snap.Discount,
		Total:    money.CalculateTotal(snap.Subtotal, snap.Tax, snap.Shipping, snap.Discount),
	}
	s.Coupon = ""
	if snap.Coupon != nil {
		s.Coupon = *snap.Coupon
	}
}

// Hydrate loads the persisted cart, if any.
func (s *Store) Hydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist.Hydrate(ctx, &s.state)
}

// mutate applies fn under the lock and persists the result when fn reports a change.
func (s *Store) mutate(ctx context.Context, fn func(*State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	seq := s.seq.Next()
	snap := partialize(&s.state)
	s.mu.Unlock()

	s.persist.Persist(ctx, seq, snap)
}

// AddItem merges item into the line with the same id or appends a new line.
// Items without a positive quantity are ignored. An empty id is derived with LineID.
func (s *Store) AddItem(ctx context.Context, item Item) {
	if item.Quantity <= 0 {
		s.log.Debug(s.log.WithField(ctx, "quantity", item.Quantity), "ignoring cart add without quantity")
		return
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		if item.ProductID <= 0 {
			s.log.Warn(ctx, "ignoring cart add without product")
			return
		}
		item.ID = LineID(item.ProductID, item.VariationID, item.Attributes)
	}

	s.mutate(ctx, func(state *State) bool {
		for i := range state.Items {
			if state.Items[i].ID == item.ID {
				state.Items[i].Quantity += item.Quantity
				return true
			}
		}
		state.Items = append(state.Items, item.clone())
		return true
	})
}

// RemoveItem deletes the line; unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mutate(ctx, func(state *State) bool {
		for i := range state.Items {
			if state.Items[i].ID == id {
				state.Items = append(state.Items[:i:i], state.Items[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdateItem sets the line's quantity. A quantity of zero or less removes the line.
func (s *Store) UpdateItem(ctx context.Context, id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, id)
		return
	}
	s.mutate(ctx, func(state *State) bool {
		for i := range state.Items {
			if state.Items[i].ID == id {
				if state.Items[i].Quantity == quantity {
					return false
				}
				state.Items[i].Quantity = quantity
				return true
			}
		}
		return false
	})
}

// ClearCart empties the lines, zeroes the totals and drops the coupon.
func (s *Store) ClearCart(ctx context.Context) {
	s.mutate(ctx, func(state *State) bool {
		*state = State{}
		return true
	})
}

// ApplyCoupon records the coupon code. Totals are left to the pricing source.
func (s *Store) ApplyCoupon(ctx context.Context, code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		s.RemoveCoupon(ctx)
		return
	}
	s.mutate(ctx, func(state *State) bool {
		state.Coupon = code
		return true
	})
}

// RemoveCoupon clears the coupon code.
func (s *Store) RemoveCoupon(ctx context.Context) {
	s.mutate(ctx, func(state *State) bool {
		if state.Coupon == "" {
			return false
		}
		state.Coupon = ""
		return true
	})
}

// CalculateTotals stores the quoted amounts with total = max(0, subtotal+tax+shipping-discount).
func (s *Store) CalculateTotals(ctx context.Context, subtotal, tax, shipping, discount decimal.Decimal) {
	s.mutate(ctx, func(state *State) bool {
		state.Totals = Totals{
			Subtotal: subtotal,
			Tax:      tax,
			Shipping: shipping,
			Discount: discount,
			Total:    money.CalculateTotal(subtotal, tax, shipping, discount),
		}
		return true
	})
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.state.Items)
}

// Item looks up a line by id.
func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if item.ID == id {
			return item.clone(), true
		}
	}
	return Item{}, false
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Totals
}

// Coupon returns the applied coupon code, if any.
func (s *Store) Coupon() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Coupon, s.state.Coupon != ""
}

// ItemCount sums the quantities of every line.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.state.Items {
		count += item.Quantity
	}
	return count
}

// State returns a copy of the whole cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:  cloneItems(s.state.Items),
		Totals: s.state.Totals,
		Coupon: s.state.Coupon,
	}
}
