package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaxDuration(t *testing.T) {
	tests := []struct {
		name   string
		call   time.Duration
		notify time.Duration
		want   time.Duration
	}{
		{name: "defaults", call: 10 * time.Second, notify: 5 * time.Second, want: 75 * time.Second},
		{name: "fast calls", call: time.Second, notify: time.Second, want: 13 * time.Second},
		{name: "no time budget", call: 0, notify: 0, want: RetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxDuration(tt.call, tt.notify))
		})
	}
}
