// Package playback provides the playback request domain entities.
package playback

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind is the type of content to play.
type Kind string

const (
	KindSong     Kind = "song"
	KindPlaylist Kind = "playlist"
)

// ParseKind parses a kind case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindSong):
		return KindSong, nil
	case string(KindPlaylist):
		return KindPlaylist, nil
	default:
		return "", errors.Mark(errors.Wrapf(ErrInvalidKind, "unsupported type %q", s), ErrBadRequest)
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == KindSong || k == KindPlaylist
}

// Title returns the kind with its first letter upper-cased ("Song", "Playlist").
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Request is a single request to start playback on a named device.
type Request struct {
	Kind       Kind
	ContentID  string // bare ID, spotify URI or open.spotify.com URL
	DeviceName string
}

// NewRequest builds a Request from raw query values.
// All three values must be non-empty and the kind must be song or playlist.
func NewRequest(kind, contentID, deviceName string) (Request, error) {
	kind = strings.TrimSpace(kind)
	contentID = strings.TrimSpace(contentID)
	deviceName = strings.TrimSpace(deviceName)

	if kind == "" || contentID == "" || deviceName == "" {
		return Request{}, errors.Mark(ErrMissingParameters, ErrBadRequest)
	}

	k, err := ParseKind(kind)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Kind:       k,
		ContentID:  contentID,
		DeviceName: deviceName,
	}, nil
}

// Validate checks a Request built without NewRequest.
func (r Request) Validate() error {
	if r.Kind == "" || r.ContentID == "" || r.DeviceName == "" {
		return errors.Mark(ErrMissingParameters, ErrBadRequest)
	}
	if !r.Kind.Valid() {
		return errors.Mark(errors.Wrapf(ErrInvalidKind, "unsupported type %q", string(r.Kind)), ErrBadRequest)
	}
	return nil
}
