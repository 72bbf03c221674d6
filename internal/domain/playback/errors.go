package playback

import "github.com/cockroachdb/errors"

// ErrBadRequest marks every error caused by caller input.
// A marked error takes the identity of its mark, so input sentinels stay
// plain and are marked where they are returned.
var ErrBadRequest = errors.New("bad request")

var (
	ErrMissingParameters = errors.New("type, uri, and device are required")
	ErrInvalidKind       = errors.New("type must be song or playlist")
)

var (
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrRemoteRejected      = errors.New("spotify rejected the request")
	ErrRetriesExhausted    = errors.New("failed to start playback after retries")
)

// AuthError reports that no access token can be obtained without the user
// going through the consent page again.
type AuthError struct {
	Err        error  // ErrNotAuthenticated or ErrInvalidRefreshToken
	ConsentURL string // where the user should be sent
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
