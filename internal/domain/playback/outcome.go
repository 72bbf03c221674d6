package playback

// OutcomeKind classifies the result of a single playback attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDeviceNotFound
	OutcomePlaybackError  // the remote API answered with an error
	OutcomeTransportError // network failure, timeout or anything unexpected
	OutcomeAuthFailure    // no usable refresh token
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDeviceNotFound:
		return "device_not_found"
	case OutcomePlaybackError:
		return "playback_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeAuthFailure:
		return "auth_failure"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one attempt.
type Outcome struct {
	Kind   OutcomeKind
	Detail string // message forwarded to notification sinks
	Err    error
}

// Retryable reports whether another attempt may succeed.
// Authentication failures are never transient.
func (o Outcome) Retryable() bool {
	switch o.Kind {
	case OutcomeDeviceNotFound, OutcomePlaybackError, OutcomeTransportError:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the attempt started playback.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
