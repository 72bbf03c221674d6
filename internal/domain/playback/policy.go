package playback

import "time"

const (
	// MaxAttempts is the total number of attempts per play request.
	MaxAttempts = 2
	// RetryDelay is the fixed wait between attempts.
	RetryDelay = 5 * time.Second

	// token refresh, device lookup and playback start
	callsPerAttempt = 3
)

// MaxDuration is the longest a play request can run when every remote call
// takes callTimeout and every failure notification takes notifyTimeout.
func MaxDuration(callTimeout, notifyTimeout time.Duration) time.Duration {
	perAttempt := callsPerAttempt*callTimeout + notifyTimeout
	return MaxAttempts*perAttempt + (MaxAttempts-1)*RetryDelay
}
