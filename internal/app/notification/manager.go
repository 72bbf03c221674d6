// Package notification forwards failure messages to external channels.
package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// DefaultSendTimeout bounds a single sink delivery.
const DefaultSendTimeout = 5 * time.Second

// Notifier delivers a message on a best-effort basis.
// Implementations never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Sink is a single delivery channel.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// Manager fans messages out to all registered sinks.
type Manager struct {
	mu          sync.RWMutex
	sinks       map[string]Sink
	sendTimeout time.Duration
}

// NewManager creates a new notification manager.
func NewManager(sendTimeout time.Duration) *Manager {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Manager{
		sinks:       make(map[string]Sink),
		sendTimeout: sendTimeout,
	}
}

// Register adds or replaces the sink stored under name.
func (m *Manager) Register(name string, sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks[name] = sink
}

// Names returns the registered sink names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sinks))
	for name := range m.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Notify sends message to every sink in parallel and waits for all of them.
// Each send gets its own timeout and is detached from ctx cancellation so a
// client hanging up does not drop the notification. Errors and panics are
// logged and swallowed.
func (m *Manager) Notify(ctx context.Context, message string) {
	m.mu.RLock()
	sinks := make(map[string]Sink, len(m.sinks))
	for name, sink := range m.sinks {
		sinks[name] = sink
	}
	m.mu.RUnlock()

	if len(sinks) == 0 {
		zlog.Debug().Msgf("no notification sinks, dropping message: %s", message)
		return
	}

	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for name, sink := range sinks {
		wg.Add(1)
		go func(name string, s Sink) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					zlog.Error().Msgf("notification sink %s panicked: %v", name, r)
				}
			}()

			sendCtx, cancel := context.WithTimeout(base, m.sendTimeout)
			defer cancel()

			if err := s.Send(sendCtx, message); err != nil {
				zlog.Warn().Err(err).Msgf("failed to send notification via %s", name)
			}
		}(name, sink)
	}
	wg.Wait()
}
