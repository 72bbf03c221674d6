package authflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/osa030/playrelay/internal/domain/playback"
	"github.com/osa030/playrelay/internal/infra/credential"
)

type fakeAuth struct {
	mu        sync.Mutex
	token     *oauth2.Token
	err       error
	exchanged []string
}

func (f *fakeAuth) AuthURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://accounts.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeAuth) Exchange(_ context.Context, code string, _ ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanged = append(f.exchanged, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func stateOf(t *testing.T, consentURL string) string {
	t.Helper()
	u, err := url.Parse(consentURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestFlow_BeginIssuesUniqueStates(t *testing.T) {
	f := New(&fakeAuth{}, credential.NewMemoryStore(""), time.Second)

	first := stateOf(t, f.Begin())
	second := stateOf(t, f.Begin())
	assert.NotEqual(t, first, second)
	assert.Len(t, f.states, 2)
}

func TestFlow_PendingStatesAreCapped(t *testing.T) {
	f := New(&fakeAuth{token: &oauth2.Token{RefreshToken: "refresh"}}, credential.NewMemoryStore(""), time.Second)
	now := time.Now()
	f.now = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}

	first := stateOf(t, f.Begin())
	var last string
	for i := 0; i < 10*MaxPendingStates; i++ {
		last = stateOf(t, f.Begin())
	}

	assert.Len(t, f.states, MaxPendingStates)
	err := f.Complete(context.Background(), first, "code")
	assert.True(t, errors.Is(err, ErrUnknownState), "the oldest state is evicted")
	assert.NoError(t, f.Complete(context.Background(), last, "code"))
}

func TestFlow_Complete(t *testing.T) {
	auth := &fakeAuth{token: &oauth2.Token{AccessToken: "a", RefreshToken: "refresh-new"}}
	store := credential.NewMemoryStore("refresh-old")
	f := New(auth, store, time.Second)

	state := stateOf(t, f.Begin())
	require.NoError(t, f.Complete(context.Background(), state, "code-1"))

	assert.Equal(t, "refresh-new", store.Get())
	assert.Equal(t, []string{"code-1"}, auth.exchanged)
	assert.True(t, f.Authenticated())

	err := f.Complete(context.Background(), state, "code-2")
	assert.True(t, errors.Is(err, ErrUnknownState), "a state is accepted once")
}

func TestFlow_CompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		auth      *fakeAuth
		state     string
		code      string
		wantErr   error
		badReq    bool
		exchanges int
	}{
		{
			name:    "missing code",
			auth:    &fakeAuth{},
			code:    "",
			wantErr: ErrMissingCode,
			badReq:  true,
		},
		{
			name:    "state never issued",
			auth:    &fakeAuth{},
			state:   "forged",
			code:    "code",
			wantErr: ErrUnknownState,
			badReq:  true,
		},
		{
			name:      "no refresh token in response",
			auth:      &fakeAuth{token: &oauth2.Token{AccessToken: "a"}},
			code:      "code",
			wantErr:   ErrNoRefresh,
			exchanges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credential.NewMemoryStore("")
			f := New(tt.auth, store, time.Second)

			err := f.Complete(context.Background(), tt.state, tt.code)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.badReq, errors.Is(err, playback.ErrBadRequest))
			assert.Len(t, tt.auth.exchanged, tt.exchanges)
			assert.Empty(t, store.Get())
			assert.False(t, f.Authenticated())
		})
	}
}

func TestFlow_CompleteExchangeFailure(t *testing.T) {
	auth := &fakeAuth{err: errors.New("invalid_grant")}
	store := credential.NewMemoryStore("refresh-old")
	f := New(auth, store, time.Second)

	err := f.Complete(context.Background(), "", "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to exchange authorization code")
	assert.Equal(t, "refresh-old", store.Get(), "a failed exchange keeps the previous token")
}

func TestFlow_StateExpires(t *testing.T) {
	auth := &fakeAuth{token: &oauth2.Token{RefreshToken: "r"}}
	f := New(auth, credential.NewMemoryStore(""), time.Second)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	state := stateOf(t, f.Begin())
	now = now.Add(StateTTL + time.Second)

	err := f.Complete(context.Background(), state, "code")
	assert.True(t, errors.Is(err, ErrUnknownState))
	assert.Empty(t, auth.exchanged)

	// Begin prunes what has expired.
	f.Begin()
	assert.Len(t, f.states, 1)
}

func TestFlow_PersistsToEnvFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"a","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-from-callback"}`)
	}))
	t.Cleanup(srv.Close)

	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:5000/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example/authorize",
			TokenURL:  srv.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	path := filepath.Join(t.TempDir(), ".env")
	store := credential.NewEnvFileStore(path, "", "")
	f := New(configAuthenticator{cfg}, store, time.Second)

	state := stateOf(t, f.Begin())
	require.NoError(t, f.Complete(context.Background(), state, "the-code"))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh-from-callback", env[credential.DefaultEnvKey])
	assert.Equal(t, "refresh-from-callback", store.Get())
}

type configAuthenticator struct {
	cfg *oauth2.Config
}

func (a configAuthenticator) AuthURL(state string, opts ...oauth2.AuthCodeOption) string {
	return a.cfg.AuthCodeURL(state, opts...)
}

func (a configAuthenticator) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return a.cfg.Exchange(ctx, code, opts...)
}
