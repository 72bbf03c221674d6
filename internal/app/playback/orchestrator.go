package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/playrelay/internal/app/notification"
	"github.com/osa030/playrelay/internal/domain/playback"
)

const (
	MaxAttempts = playback.MaxAttempts
	RetryDelay  = playback.RetryDelay
)

// TokenProvider yields a fresh access token for one attempt.
type TokenProvider interface {
	Acquire(ctx context.Context) (*oauth2.Token, error)
}

// DeviceResolver maps a device name to its Spotify device ID.
type DeviceResolver interface {
	ResolveDevice(ctx context.Context, token *oauth2.Token, name string) (string, error)
}

// Invoker starts playback on a device.
type Invoker interface {
	StartPlayback(ctx context.Context, token *oauth2.Token, deviceID string, kind playback.Kind, contentID string) error
}

// Attempt records how far one attempt got and how it ended.
type Attempt struct {
	Number  int
	State   State // last state entered
	Outcome playback.Outcome
}

// Result describes a handled request.
type Result struct {
	RequestID string
	Kind      playback.Kind
	Attempts  []Attempt
}

// Message is the confirmation returned to the caller on success.
func (r Result) Message() string {
	return r.Kind.Title() + " playback started on device!"
}

// Orchestrator drives token acquisition, device resolution and playback
// through a fixed number of attempts.
type Orchestrator struct {
	tokens   TokenProvider
	devices  DeviceResolver
	invoker  Invoker
	notifier notification.Notifier

	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(tokens TokenProvider, devices DeviceResolver, invoker Invoker, notifier notification.Notifier) *Orchestrator {
	return &Orchestrator{
		tokens:   tokens,
		devices:  devices,
		invoker:  invoker,
		notifier: notifier,
		delay:    RetryDelay,
		sleep:    sleepContext,
	}
}

// Play starts playback for req, retrying transient failures.
//
// Invalid requests fail before anything remote is touched. Authentication
// failures are returned at once. Every other failure is notified and, if an
// attempt remains, retried after the fixed delay. When all attempts fail the
// error wraps playback.ErrRetriesExhausted.
//
// Once validated, a request runs to completion even if ctx is cancelled;
// each remote call is bounded by its own timeout.
func (o *Orchestrator) Play(ctx context.Context, req playback.Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	ctx = context.WithoutCancel(ctx)

	res := Result{
		RequestID: uuid.New().String(),
		Kind:      req.Kind,
	}
	log := zlog.With().Str("request_id", res.RequestID).Logger()
	log.Info().Msgf("play request: type=%s device=%q content=%s", req.Kind, req.DeviceName, req.ContentID)

	for n := 1; n <= MaxAttempts; n++ {
		attempt := o.attempt(ctx, n, req)
		res.Attempts = append(res.Attempts, attempt)
		outcome := attempt.Outcome

		if outcome.Succeeded() {
			log.Info().Msgf("playback started on %q (attempt %d/%d)", req.DeviceName, n, MaxAttempts)
			return res, nil
		}

		log.Warn().Err(outcome.Err).Msgf("attempt %d/%d failed at %s: %s", n, MaxAttempts, attempt.State, outcome.Kind)
		if !outcome.Retryable() {
			return res, outcome.Err
		}
		o.notifier.Notify(ctx, outcome.Detail)

		if n == MaxAttempts {
			break
		}

		log.Debug().Msgf("%s: waiting %s before attempt %d", StateRetryWait, o.delay, n+1)
		if err := o.sleep(ctx, o.delay); err != nil {
			return res, errors.Wrapf(playback.ErrRetriesExhausted, "retry wait interrupted after attempt %d: %v", n, err)
		}
	}

	log.Error().Msgf("giving up on %q after %d attempts", req.DeviceName, MaxAttempts)
	return res, errors.Wrapf(playback.ErrRetriesExhausted, "%d attempts failed", MaxAttempts)
}

// attempt runs one pass of token, device and playback.
func (o *Orchestrator) attempt(ctx context.Context, n int, req playback.Request) Attempt {
	a := Attempt{Number: n, State: StateAcquireToken}

	token, err := o.tokens.Acquire(ctx)
	if err != nil {
		a.Outcome = classify(err)
		return a
	}

	a.State = StateResolveDevice
	deviceID, err := o.devices.ResolveDevice(ctx, token, req.DeviceName)
	if err != nil {
		a.Outcome = classify(err)
		if a.Outcome.Kind == playback.OutcomeDeviceNotFound {
			a.Outcome.Detail = "No device found with the name: " + req.DeviceName
		}
		return a
	}

	a.State = StateInvoke
	if err := o.invoker.StartPlayback(ctx, token, deviceID, req.Kind, req.ContentID); err != nil {
		a.Outcome = classify(err)
		return a
	}

	a.State = StateDone
	a.Outcome = playback.Outcome{Kind: playback.OutcomeSuccess}
	return a
}

// classify turns a component error into an attempt outcome.
func classify(err error) playback.Outcome {
	var authErr *playback.AuthError
	switch {
	case errors.As(err, &authErr):
		return playback.Outcome{Kind: playback.OutcomeAuthFailure, Detail: err.Error(), Err: authErr}
	case errors.Is(err, playback.ErrDeviceNotFound):
		return playback.Outcome{Kind: playback.OutcomeDeviceNotFound, Detail: err.Error(), Err: err}
	case errors.Is(err, playback.ErrRemoteRejected), errors.Is(err, playback.ErrInvalidKind):
		return playback.Outcome{Kind: playback.OutcomePlaybackError, Detail: err.Error(), Err: err}
	default:
		return playback.Outcome{Kind: playback.OutcomeTransportError, Detail: err.Error(), Err: err}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
