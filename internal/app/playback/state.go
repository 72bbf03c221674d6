// Package playback runs the bounded retry loop that starts playback on a named device.
package playback

// State is a step of a single playback attempt.
type State int

const (
	StateAcquireToken  State = iota // exchanging the refresh token
	StateResolveDevice              // looking the device up by name
	StateInvoke                     // issuing the start playback command
	StateRetryWait                  // fixed wait before the next attempt
	StateDone                       // playback started or attempts exhausted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAcquireToken:
		return "acquire_token"
	case StateResolveDevice:
		return "resolve_device"
	case StateInvoke:
		return "invoke"
	case StateRetryWait:
		return "retry_wait"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
