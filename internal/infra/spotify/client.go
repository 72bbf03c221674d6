// Package spotify provides the Spotify Web API adapters used to start playback.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/playrelay/internal/domain/device"
	"github.com/osa030/playrelay/internal/domain/playback"
)

// DefaultRequestTimeout bounds every call to the Spotify API.
const DefaultRequestTimeout = 10 * time.Second

// Scopes are the permissions needed to list devices and start playback.
var Scopes = []string{
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadPlaybackState,
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	RequestTimeout time.Duration
	BaseURL        string // API base URL with trailing slash, empty for the public API
}

// NewAuthenticator creates the OAuth authenticator for the configured app.
func NewAuthenticator(cfg Config) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(Scopes...),
	)
}

// Client talks to the player endpoints of the Spotify Web API.
// It holds no token: every call is made with the access token of the
// current attempt.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// New creates a new Spotify client.
func New(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
}

// api returns a library client authorised with token.
func (c *Client) api(token *oauth2.Token) *spotify.Client {
	httpClient := &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   c.transport,
		},
	}

	var opts []spotify.ClientOption
	if c.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(c.baseURL))
	}
	return spotify.New(httpClient, opts...)
}

// Devices lists the Connect devices currently visible to the account,
// in the order returned by Spotify.
func (c *Client) Devices(ctx context.Context, token *oauth2.Token) ([]device.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.api(token).PlayerDevices(ctx)
	if err != nil {
		return nil, errors.Wrap(markRemote(err), "failed to list devices")
	}

	devices := make([]device.Device, 0, len(list))
	for _, d := range list {
		devices = append(devices, device.Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return devices, nil
}

// ResolveDevice returns the ID of the first device named name, ignoring case.
func (c *Client) ResolveDevice(ctx context.Context, token *oauth2.Token, name string) (string, error) {
	devices, err := c.Devices(ctx, token)
	if err != nil {
		return "", err
	}

	d, ok := device.Find(devices, name)
	if !ok {
		return "", errors.Wrapf(playback.ErrDeviceNotFound, "no device named %q among %d devices", name, len(devices))
	}
	return d.ID, nil
}

// StartPlayback starts a playlist (as a context) or a single track on deviceID.
// contentID may be a bare ID, a spotify URI or an open.spotify.com URL.
func (c *Client) StartPlayback(ctx context.Context, token *oauth2.Token, deviceID string, kind playback.Kind, contentID string) error {
	id := spotify.ID(deviceID)
	opts := &spotify.PlayOptions{DeviceID: &id}

	switch kind {
	case playback.KindPlaylist:
		uri := spotify.URI("spotify:playlist:" + extractPlaylistID(contentID))
		opts.PlaybackContext = &uri
	case playback.KindSong:
		opts.URIs = []spotify.URI{spotify.URI("spotify:track:" + extractTrackID(contentID))}
	default:
		return errors.Wrapf(playback.ErrInvalidKind, "unsupported type %q", string(kind))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api(token).PlayOpt(ctx, opts); err != nil {
		return errors.Wrap(markRemote(err), "failed to start playback")
	}
	return nil
}

// markRemote marks errors carrying a Spotify error body so callers can tell
// them apart from transport failures.
func markRemote(err error) error {
	var apiErr spotify.Error
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErr) || errors.As(err, &apiErrPtr) {
		return errors.Mark(err, playback.ErrRemoteRejected)
	}
	return err
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

func extractID(input, resource string) string {
	input = strings.TrimSpace(input)

	// spotify:<resource>:<id>
	if prefix := "spotify:" + resource + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// https://open.spotify.com/<resource>/<id> or .../intl-xx/<resource>/<id>
	segment := "/" + resource + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, segment) {
		parts := strings.Split(input, segment)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
