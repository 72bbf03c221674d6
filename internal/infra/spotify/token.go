package spotify

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/playrelay/internal/domain/playback"
	"github.com/osa030/playrelay/internal/infra/credential"
)

// Authenticator is the subset of spotifyauth.Authenticator used here.
type Authenticator interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// TokenProvider exchanges the stored refresh token for an access token.
type TokenProvider struct {
	auth       Authenticator
	store      credential.Store
	timeout    time.Duration
	consentURL func() string
}

// NewTokenProvider creates a token provider. consentURL produces the URL
// returned with authentication errors; nil uses a fresh random state.
func NewTokenProvider(auth Authenticator, store credential.Store, timeout time.Duration, consentURL func() string) *TokenProvider {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if consentURL == nil {
		consentURL = func() string {
			return auth.AuthURL(uuid.New().String())
		}
	}
	return &TokenProvider{
		auth:       auth,
		store:      store,
		timeout:    timeout,
		consentURL: consentURL,
	}
}

// Acquire returns a freshly refreshed access token.
// It fails with *playback.AuthError when there is no refresh token or when
// Spotify rejects it; any other failure is returned as is.
func (p *TokenProvider) Acquire(ctx context.Context) (*oauth2.Token, error) {
	refresh := p.store.Get()
	if refresh == "" {
		return nil, &playback.AuthError{
			Err:        playback.ErrNotAuthenticated,
			ConsentURL: p.consentURL(),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.auth.RefreshToken(ctx, &oauth2.Token{RefreshToken: refresh})
	if err != nil {
		if isTokenRejected(err) {
			zlog.Warn().Err(err).Msg("spotify rejected the refresh token")
			return nil, &playback.AuthError{
				Err:        errors.Wrap(playback.ErrInvalidRefreshToken, err.Error()),
				ConsentURL: p.consentURL(),
			}
		}
		return nil, errors.Wrap(err, "failed to refresh access token")
	}
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("token endpoint returned no access token")
	}

	return token, nil
}

// isTokenRejected reports whether the token endpoint refused the grant,
// as opposed to being unreachable or failing server-side.
func isTokenRejected(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	switch re.ErrorCode {
	case "invalid_grant", "invalid_client", "unauthorized_client":
		return true
	}
	if re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return true
		}
	}
	return false
}
