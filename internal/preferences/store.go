// Package preferences holds device-level UI settings. They survive logout.
package preferences

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/persist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

type State struct {
	DarkMode             bool           `json:"dark_mode"`
	Language             enums.Language `json:"language"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
}

// Defaults are the settings of a fresh install.
func Defaults() State {
	return State{
		Language:             enums.LanguageEN,
		NotificationsEnabled: true,
	}
}

type StoreParams struct {
	KV      kv.Store
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type Store struct {
	persist *persist.Container[State, State]

	mu    sync.Mutex
	state State
	seq   persist.Sequence
}

func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("preferences: kv store is required")
	}
	container, err := persist.New(persist.Options[State, State]{
		Name:       kv.StorePreferences,
		Store:      params.KV,
		Logger:     params.Logger,
		Metrics:    params.Metrics,
		Partialize: func(s *State) State { return *s },
		Merge: func(s *State, snap State) {
			if !snap.Language.IsValid() {
				snap.Language = s.Language
			}
			*s = snap
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{persist: container, state: Defaults()}, nil
}

func (s *Store) Hydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist.Hydrate(ctx, &s.state)
}

func (s *Store) mutate(ctx context.Context, fn func(*State)) State {
	s.mu.Lock()
	fn(&s.state)
	seq := s.seq.Next()
	snap := s.state
	s.mu.Unlock()

	s.persist.Persist(ctx, seq, snap)
	return snap
}

// ToggleDarkMode flips the theme and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) bool {
	return s.mutate(ctx, func(state *State) { state.DarkMode = !state.DarkMode }).DarkMode
}

func (s *Store) SetDarkMode(ctx context.Context, dark bool) {
	s.mutate(ctx, func(state *State) { state.DarkMode = dark })
}

// SetLanguage accepts any supported language code, case-insensitively.
func (s *Store) SetLanguage(ctx context.Context, code string) error {
	lang, err := enums.ParseLanguage(code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported language")
	}
	s.mutate(ctx, func(state *State) { state.Language = lang })
	return nil
}

func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) {
	s.mutate(ctx, func(state *State) { state.NotificationsEnabled = enabled })
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
