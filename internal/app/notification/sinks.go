package notification

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playrelay/internal/infra/telegram"
)

// LogSink writes notifications to the application log.
type LogSink struct{}

// Send logs message at warn level.
func (LogSink) Send(_ context.Context, message string) error {
	zlog.Warn().Str("notification", message).Msg("playback failure")
	return nil
}

// TelegramSettings configures the telegram sink.
type TelegramSettings struct {
	Token         string  `yaml:"token" mapstructure:"token" validate:"required"`
	ChatID        string  `yaml:"chat_id" mapstructure:"chat_id" validate:"required"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second" default:"1" validate:"gt=0"`
	Burst         int     `yaml:"burst" mapstructure:"burst" default:"3" validate:"gte=1"`
	TimeoutMs     int     `yaml:"timeout_ms" mapstructure:"timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
}

// TelegramSink sends notifications to a Telegram chat.
type TelegramSink struct {
	client *telegram.Client
}

// NewTelegramSink creates a telegram sink from raw settings.
func NewTelegramSink(settings map[string]any) (*TelegramSink, error) {
	var config TelegramSettings
	if err := mapstructure.WeakDecode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := telegram.New(telegram.Config{
		Token:         config.Token,
		ChatID:        config.ChatID,
		RatePerSecond: config.RatePerSecond,
		Burst:         config.Burst,
		Timeout:       time.Duration(config.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{client: client}, nil
}

// Send posts message to the chat.
func (s *TelegramSink) Send(ctx context.Context, message string) error {
	return s.client.SendMessage(ctx, message)
}

// NewSink creates a sink of the given type.
func NewSink(sinkType string, settings map[string]any) (Sink, error) {
	switch sinkType {
	case "telegram":
		return NewTelegramSink(settings)
	case "log":
		return LogSink{}, nil
	default:
		return nil, errors.Newf("unsupported notifier type: %s", sinkType)
	}
}
