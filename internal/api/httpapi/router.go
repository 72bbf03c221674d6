// Package httpapi exposes playback and authorization over plain HTTP GET endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	zlog "github.com/rs/zerolog/log"

	apppb "github.com/osa030/playrelay/internal/app/playback"
	"github.com/osa030/playrelay/internal/domain/playback"
)

// Player starts playback for a request.
type Player interface {
	Play(ctx context.Context, req playback.Request) (apppb.Result, error)
}

// Authorizer runs the consent flow.
type Authorizer interface {
	Begin() string
	Complete(ctx context.Context, state, code string) error
	Authenticated() bool
}

// API holds the HTTP handlers.
type API struct {
	player Player
	auth   Authorizer
}

// New creates a new API.
func New(player Player, auth Authorizer) *API {
	return &API{player: player, auth: auth}
}

// Handler builds the routing tree.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(zlog.Logger))
	r.Use(RecoverJSON)

	r.Get("/healthz", a.health)
	r.Get("/play", a.play)
	r.Get("/auth", a.authorize)
	r.Get("/callback", a.callback)
	return r
}
