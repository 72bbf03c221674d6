package notification

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playrelay/internal/infra/config"
)

// NewManagerFromConfig creates a manager with every configured sink registered.
// With no sinks configured, failures only reach the log.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	m := NewManager(cfg.Notification.SendTimeout())

	for i, scfg := range cfg.Notification.Sinks {
		zlog.Debug().Msgf("creating notification sink: index=%d name=%s type=%s", i+1, scfg.Name, scfg.Type)

		sink, err := NewSink(scfg.Type, scfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create notification sink (index %d, type %s)", i, scfg.Type)
		}
		m.Register(scfg.Name, sink)

		zlog.Info().Msgf("registered notification sink: index=%d name=%s type=%s", i+1, scfg.Name, scfg.Type)
	}

	if len(cfg.Notification.Sinks) == 0 {
		zlog.Warn().Msg("no notification sinks configured, failures are only logged")
		m.Register("log", LogSink{})
	}

	return m, nil
}
