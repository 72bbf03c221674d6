// Package authflow runs the OAuth authorization code flow that captures a
// refresh token and hands it to the credential store.
package authflow

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/playrelay/internal/domain/playback"
	"github.com/osa030/playrelay/internal/infra/credential"
)

const (
	// StateTTL is how long an issued state value is accepted at the callback.
	StateTTL = 10 * time.Minute
	// MaxPendingStates caps the issued states awaiting a callback; the
	// oldest is dropped first.
	MaxPendingStates = 16
)

var (
	ErrMissingCode  = errors.New("authorization code is required")
	ErrUnknownState = errors.New("unknown or expired state")
	ErrNoRefresh    = errors.New("token response carried no refresh token")
)

// Authenticator is the part of the OAuth client the flow needs.
type Authenticator interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// Flow issues consent URLs and completes them into a stored refresh token.
type Flow struct {
	auth    Authenticator
	store   credential.Store
	timeout time.Duration

	mu     sync.Mutex
	states map[string]time.Time // state -> expiry
	now    func() time.Time
}

// New creates a new authorization flow. timeout bounds the code exchange.
func New(auth Authenticator, store credential.Store, timeout time.Duration) *Flow {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Flow{
		auth:    auth,
		store:   store,
		timeout: timeout,
		states:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// Begin returns a consent URL carrying a fresh state value.
func (f *Flow) Begin() string {
	state := uuid.New().String()

	f.mu.Lock()
	now := f.now()
	for s, exp := range f.states {
		if now.After(exp) {
			delete(f.states, s)
		}
	}
	for len(f.states) >= MaxPendingStates {
		f.evictOldest()
	}
	f.states[state] = now.Add(StateTTL)
	f.mu.Unlock()

	return f.auth.AuthURL(state)
}

// Complete exchanges code for a token and stores its refresh token.
// A state that was never issued by Begin, or has expired, is rejected. An
// empty state is accepted so manually crafted consent links keep working.
func (f *Flow) Complete(ctx context.Context, state, code string) error {
	if code == "" {
		return errors.Mark(ErrMissingCode, playback.ErrBadRequest)
	}
	if state != "" && !f.consume(state) {
		return errors.Mark(errors.Wrapf(ErrUnknownState, "state %q", state), playback.ErrBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	token, err := f.auth.Exchange(ctx, code)
	if err != nil {
		return errors.Wrap(err, "failed to exchange authorization code")
	}
	if token.RefreshToken == "" {
		return ErrNoRefresh
	}

	if err := f.store.Set(token.RefreshToken); err != nil {
		return errors.Wrap(err, "failed to save refresh token")
	}

	zlog.Info().Msg("refresh token obtained and saved")
	return nil
}

// Authenticated reports whether a refresh token is available.
func (f *Flow) Authenticated() bool {
	return f.store.Get() != ""
}

// evictOldest drops the state closest to expiry. f.mu must be held.
func (f *Flow) evictOldest() {
	var oldest string
	var oldestExp time.Time
	for s, exp := range f.states {
		if oldest == "" || exp.Before(oldestExp) {
			oldest, oldestExp = s, exp
		}
	}
	delete(f.states, oldest)
}

// consume removes state and reports whether it was issued and still valid.
func (f *Flow) consume(state string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	exp, ok := f.states[state]
	if !ok {
		return false
	}
	delete(f.states, state)
	return !f.now().After(exp)
}
