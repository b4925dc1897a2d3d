// Package auth tracks whether the shopper is signed in.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/credentials"
	"github.com/angelmondragon/packfinderz-storefront/internal/persist"
	pkgauth "github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"go.uber.org/multierr"
)

// Messages surfaced through Session.Error.
const (
	ErrMsgSaveFailed     = "Failed to save authentication data"
	ErrMsgLogoutFailed   = "Failed to logout"
	ErrMsgSessionExpired = "Your session has expired. Please sign in again."
)

// Session is the auth state. Authenticated holds exactly when User and Token are both set.
type Session struct {
	User          *types.AuthUser
	Token         *types.AuthToken
	Authenticated bool
	Loading       bool
	Error         string
	// ExpiresAt is read from the access token when it is a JWT. Informational only.
	ExpiresAt *time.Time
}

// Snapshot is the persisted subset: the profile and the flag, never the tokens.
type Snapshot struct {
	User          *types.AuthUser `json:"user"`
	Authenticated bool            `json:"authenticated"`
}

type StoreParams struct {
	KV      kv.Store
	Vault   *credentials.Vault
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type Store struct {
	kv      kv.Store
	vault   *credentials.Vault
	log     *logger.Logger
	persist *persist.Container[Session, Snapshot]

	mu    sync.Mutex
	state Session
	seq   persist.Sequence
}

func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("auth: kv store is required")
	}
	if params.Vault == nil {
		return nil, fmt.Errorf("auth: credential vault is required")
	}
	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}
	container, err := persist.New(persist.Options[Session, Snapshot]{
		Name:       kv.StoreAuth,
		Store:      params.KV,
		Logger:     log,
		Metrics:    params.Metrics,
		Partialize: partialize,
		Merge:      merge,
	})
	if err != nil {
		return nil, err
	}
	return &Store{kv: params.KV, vault: params.Vault, log: log, persist: container}, nil
}

func partialize(s *Session) Snapshot {
	snap := Snapshot{Authenticated: s.Authenticated}
	if s.User != nil {
		user := *s.User
		snap.User = &user
	}
	return snap
}

// merge restores the profile. The stored flag is not trusted: tokens are never
// part of the snapshot, so the session stays anonymous until RestoreToken.
func merge(s *Session, snap Snapshot) {
	s.User = snap.User
	s.Authenticated = s.User != nil && s.Token != nil
}

func (s *Store) Hydrate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist.Hydrate(ctx, &s.state)
}

// commit persists the current snapshot. It must be called with s.mu held and
// releases it before writing.
func (s *Store) commit(ctx context.Context) {
	seq := s.seq.Next()
	snap := partialize(&s.state)
	s.mu.Unlock()
	s.persist.Persist(ctx, seq, snap)
}

// Session returns a copy of the current state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.state)
}

func copySession(in Session) Session {
	out := in
	if in.User != nil {
		user := *in.User
		out.User = &user
	}
	if in.Token != nil {
		token := *in.Token
		out.Token = &token
	}
	if in.ExpiresAt != nil {
		exp := *in.ExpiresAt
		out.ExpiresAt = &exp
	}
	return out
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Authenticated
}

func (s *Store) setFlags(loading bool, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = loading
	s.state.Error = msg
}

// Login durably stores the credentials and the profile, then marks the session
// authenticated. If anything fails to save, the session stays anonymous with an
// error and the partially written tokens are removed.
func (s *Store) Login(ctx context.Context, user types.AuthUser, token types.AuthToken) error {
	ctx = s.log.WithUserID(ctx, strconv.Itoa(user.ID))
	s.setFlags(true, "")

	err := s.saveCredentials(ctx, user, token)
	if err != nil {
		if clearErr := s.vault.Clear(ctx); clearErr != nil {
			s.log.Error(ctx, "failed to roll back partial login", clearErr)
		}
		s.mu.Lock()
		s.state = Session{Error: ErrMsgSaveFailed}
		s.commit(ctx)
		s.log.Error(ctx, "login failed to persist session", err)
		return err
	}

	s.mu.Lock()
	s.state = Session{
		User:          &user,
		Token:         &token,
		Authenticated: true,
		ExpiresAt:     tokenExpiry(token.AccessToken),
	}
	s.commit(ctx)
	s.log.Info(ctx, "shopper signed in")
	return nil
}

func (s *Store) saveCredentials(ctx context.Context, user types.AuthUser, token types.AuthToken) error {
	if strings.TrimSpace(token.AccessToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}
	if err := s.vault.Save(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store credentials")
	}
	if err := kv.SetJSON(ctx, s.kv, kv.KeyUser, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store user profile")
	}
	return nil
}

// Logout ends the credential generation, deletes every session-scoped key and
// resets to anonymous. Every key is attempted; failures are combined. On failure
// the session keeps its state with an error set.
func (s *Store) Logout(ctx context.Context) error {
	s.setFlags(true, "")
	s.vault.Invalidate()

	var errs error
	for _, key := range kv.SessionKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if errs != nil {
		s.setFlags(false, ErrMsgLogoutFailed)
		s.log.Error(ctx, "logout failed to clear storage", errs)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "clear session storage")
	}

	// The wipe removed the snapshot too; an absent snapshot hydrates as anonymous.
	s.mu.Lock()
	s.state = Session{}
	s.mu.Unlock()
	s.log.Info(ctx, "shopper signed out")
	return nil
}

// Expire drops the in-memory session after the server rejected the credentials
// for good. Storage was already cleared by the credential owner.
func (s *Store) Expire(ctx context.Context) {
	s.mu.Lock()
	if !s.state.Authenticated && s.state.User == nil {
		s.mu.Unlock()
		return
	}
	s.state = Session{Error: ErrMsgSessionExpired}
	s.commit(ctx)
	s.log.Warn(ctx, "session expired")
}

// RestoreToken signs the shopper back in from storage at startup when both an
// access token and a profile are stored. The token is not checked with the
// server; a stale token surfaces on the first authenticated request.
func (s *Store) RestoreToken(ctx context.Context) bool {
	access, ok, err := s.vault.AccessToken(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to read stored access token", err)
		return false
	}
	if !ok {
		return false
	}

	var user types.AuthUser
	found, err := kv.GetJSON(ctx, s.kv, kv.KeyUser, &user)
	if err != nil {
		s.log.Error(ctx, "failed to read stored user", err)
		return false
	}
	if !found {
		return false
	}

	token := types.AuthToken{AccessToken: access}
	if refresh, ok, err := s.vault.RefreshToken(ctx); err != nil {
		s.log.Warn(ctx, "failed to read stored refresh token")
	} else if ok {
		token.RefreshToken = refresh
	}

	s.mu.Lock()
	s.state.User = &user
	s.state.Token = &token
	s.state.Authenticated = true
	s.state.ExpiresAt = tokenExpiry(access)
	s.commit(ctx)

	s.log.Info(s.log.WithUserID(ctx, strconv.Itoa(user.ID)), "session restored")
	return true
}

// SetUser replaces the profile, e.g. after an edit. The stored copy used by
// RestoreToken is refreshed when signed in.
func (s *Store) SetUser(ctx context.Context, user types.AuthUser) {
	s.mu.Lock()
	s.state.User = &user
	s.state.Authenticated = s.state.Token != nil
	authenticated := s.state.Authenticated
	s.commit(ctx)

	if authenticated {
		if err := kv.SetJSON(ctx, s.kv, kv.KeyUser, user); err != nil {
			s.log.Error(ctx, "failed to store updated user", err)
		}
	}
}

// SetLoading and SetError are UI feedback flags; they are not persisted.
// SetError also ends the loading state.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = loading
}

func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
	s.state.Loading = false
}

func tokenExpiry(access string) *time.Time {
	info, err := pkgauth.InspectAccessToken(access)
	if err != nil {
		return nil
	}
	return info.ExpiresAt
}
