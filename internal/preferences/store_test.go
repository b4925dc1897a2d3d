package preferences

import (
	"context"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
)

func newTestStore(t *testing.T, store kv.Store) *Store {
	t.Helper()
	prefs, err := NewStore(StoreParams{KV: store})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return prefs
}

func TestDefaults(t *testing.T) {
	prefs := newTestStore(t, kv.NewMemory())

	want := State{Language: enums.LanguageEN, NotificationsEnabled: true}
	if got := prefs.State(); got != want {
		t.Fatalf("expected defaults %+v, got %+v", want, got)
	}
}

func TestMutationsPersistAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	prefs := newTestStore(t, store)
	if !prefs.ToggleDarkMode(ctx) {
		t.Fatalf("expected dark mode to turn on")
	}
	if err := prefs.SetLanguage(ctx, "ES"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	prefs.SetNotificationsEnabled(ctx, false)

	restarted := newTestStore(t, store)
	if !restarted.Hydrate(ctx) {
		t.Fatalf("expected stored preferences to hydrate")
	}
	want := State{DarkMode: true, Language: enums.LanguageES, NotificationsEnabled: false}
	if got := restarted.State(); got != want {
		t.Fatalf("expected %+v after restart, got %+v", want, got)
	}
}

func TestSetLanguageRejectsUnsupportedCodes(t *testing.T) {
	prefs := newTestStore(t, kv.NewMemory())

	err := prefs.SetLanguage(context.Background(), "xx")
	if !pkgerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := prefs.State().Language; got != enums.LanguageEN {
		t.Fatalf("expected language unchanged, got %s", got)
	}
}

func TestHydrateIgnoresUnknownLanguage(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	if err := store.Set(ctx, kv.StorePreferences, `{"name":"ui-storage","version":0,"state":{"dark_mode":true,"language":"xx"}}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	prefs := newTestStore(t, store)
	if !prefs.Hydrate(ctx) {
		t.Fatalf("expected stored preferences to hydrate")
	}

	want := State{DarkMode: true, Language: enums.LanguageEN, NotificationsEnabled: true}
	if got := prefs.State(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
