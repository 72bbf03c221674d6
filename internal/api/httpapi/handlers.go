package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/osa030/playrelay/internal/domain/playback"
)

const (
	msgRetriesExhausted = "Failed to start playback after retries."
	msgAuthFailed       = "Authorization failed."
	msgAuthSucceeded    = "Authentication successful! Refresh token obtained and saved."
	msgInternal         = "Internal server error"
)

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "authenticated": a.auth.Authenticated()})
}

func (a *API) play(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := playback.NewRequest(q.Get("type"), q.Get("uri"), q.Get("device"))
	if err != nil {
		a.playError(w, r, err)
		return
	}

	res, err := a.player.Play(r.Context(), req)
	if err != nil {
		a.playError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": res.Message()})
}

// playError maps a playback error to its status code and body.
func (a *API) playError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *playback.AuthError
	switch {
	case errors.As(err, &authErr):
		prefix := "Authentication required, visit: "
		if errors.Is(authErr, playback.ErrInvalidRefreshToken) {
			prefix = "Refresh token is invalid or expired, visit: "
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":    prefix + authErr.ConsentURL,
			"auth_url": authErr.ConsentURL,
		})
	case errors.Is(err, playback.ErrMissingParameters):
		writeError(w, http.StatusBadRequest, playback.ErrMissingParameters.Error())
	case errors.Is(err, playback.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, playback.ErrInvalidKind.Error())
	case errors.Is(err, playback.ErrRetriesExhausted):
		writeError(w, http.StatusBadRequest, msgRetriesExhausted)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unexpected playback error")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (a *API) authorize(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, a.auth.Begin(), http.StatusFound)
}

func (a *API) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		hlog.FromRequest(r).Warn().Msgf("authorization denied: %s", reason)
		writeError(w, http.StatusBadRequest, msgAuthFailed)
		return
	}

	if err := a.auth.Complete(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("authorization failed")
		writeError(w, http.StatusBadRequest, msgAuthFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msgAuthSucceeded})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
