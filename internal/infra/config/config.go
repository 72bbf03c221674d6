// Package config provides configuration loading from YAML files and the environment.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/playrelay/internal/domain/playback"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Spotify      SpotifyConfig      `yaml:"spotify"`
	Credentials  CredentialsConfig  `yaml:"credentials"`
	Notification NotificationConfig `yaml:"notification"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr              string      `yaml:"addr" default:":5000"`
	ReadTimeoutMs     int         `yaml:"read_timeout_ms" default:"10000" validate:"gte=1000"`
	WriteTimeoutMs    int         `yaml:"write_timeout_ms" default:"90000" validate:"gte=1000"`
	ShutdownTimeoutMs int         `yaml:"shutdown_timeout_ms" default:"10000" validate:"gte=0"`
	Hooks             HooksConfig `yaml:"hooks"`
}

// HooksConfig represents shell commands run around the server lifecycle.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// SpotifyConfig represents Spotify API configuration.
// RefreshToken is optional: without it the server starts and sends callers
// through the consent page.
type SpotifyConfig struct {
	ClientID         string `yaml:"client_id" validate:"required"`
	ClientSecret     string `yaml:"client_secret" validate:"required"`
	RedirectURI      string `yaml:"redirect_uri" default:"http://127.0.0.1:5000/callback" validate:"required,url"`
	RefreshToken     string `yaml:"refresh_token"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" default:"10000" validate:"gte=100,lte=60000"`
}

// CredentialsConfig controls where an obtained refresh token is persisted.
type CredentialsConfig struct {
	EnvFile string `yaml:"env_file" default:".env"`
	EnvKey  string `yaml:"env_key" default:"SPOTIFY_REFRESH_TOKEN"`
}

// NotificationConfig represents failure notification configuration.
type NotificationConfig struct {
	SendTimeoutMs int          `yaml:"send_timeout_ms" default:"5000" validate:"gte=100,lte=60000"`
	Sinks         []SinkConfig `yaml:"sinks" validate:"dive"`
}

// SinkConfig represents a single notification sink.
type SinkConfig struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type" validate:"required,oneof=telegram log"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// A missing file is not an error: the configuration then comes from the
// environment alone. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config file")
			}
		case errors.Is(err, os.ErrNotExist):
			zlog.Info().Msgf("config file %s not found, using environment only", path)
		default:
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.nameSinks()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
// Both the SPOTIFY_* and the older SPOTIPY_* names are accepted.
func (c *Config) overrideFromEnv() {
	id, secret := ClientCredentialsFromEnv()
	if id != "" {
		c.Spotify.ClientID = id
	}
	if secret != "" {
		c.Spotify.ClientSecret = secret
	}
	if v := firstEnv("SPOTIFY_REDIRECT_URI", "SPOTIPY_REDIRECT_URI"); v != "" {
		c.Spotify.RedirectURI = v
	}
	if v := firstEnv("SPOTIFY_REFRESH_TOKEN", "SPOTIPY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" && chatID == "" {
		return
	}
	for i := range c.Notification.Sinks {
		if c.Notification.Sinks[i].Type != "telegram" {
			continue
		}
		if c.Notification.Sinks[i].Settings == nil {
			c.Notification.Sinks[i].Settings = map[string]any{}
		}
		if token != "" {
			c.Notification.Sinks[i].Settings["token"] = token
		}
		if chatID != "" {
			c.Notification.Sinks[i].Settings["chat_id"] = chatID
		}
		return
	}
	if token != "" {
		settings := map[string]any{"token": token}
		if chatID != "" {
			settings["chat_id"] = chatID
		}
		c.Notification.Sinks = append(c.Notification.Sinks, SinkConfig{
			Name:     "telegram",
			Type:     "telegram",
			Settings: settings,
		})
	}
}

// nameSinks fills in missing sink names with the sink type.
func (c *Config) nameSinks() {
	for i := range c.Notification.Sinks {
		if c.Notification.Sinks[i].Name == "" {
			c.Notification.Sinks[i].Name = c.Notification.Sinks[i].Type
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]bool)
	for _, s := range c.Notification.Sinks {
		if seen[s.Name] {
			return errors.Newf("duplicate notification sink name: %s", s.Name)
		}
		seen[s.Name] = true
	}

	// The exhaustion response is written at the very end of a play request.
	if longest := c.MaxPlayDuration(); c.Server.WriteTimeout() <= longest {
		return errors.Newf("server.write_timeout_ms (%s) must exceed the longest play request (%s)",
			c.Server.WriteTimeout(), longest)
	}

	return nil
}

// MaxPlayDuration returns the worst-case duration of a play request under
// the configured Spotify and notification timeouts.
func (c *Config) MaxPlayDuration() time.Duration {
	return playback.MaxDuration(c.Spotify.RequestTimeout(), c.Notification.SendTimeout())
}

// RequestTimeout returns the per-call Spotify timeout.
func (c *SpotifyConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// SendTimeout returns the per-sink notification timeout.
func (c *NotificationConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

// ReadTimeout returns the HTTP server read timeout.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the HTTP server write timeout.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// ClientCredentialsFromEnv returns the Spotify client ID and secret from the
// environment, preferring SPOTIFY_* over SPOTIPY_*.
func ClientCredentialsFromEnv() (id, secret string) {
	return firstEnv("SPOTIFY_CLIENT_ID", "SPOTIPY_CLIENT_ID"),
		firstEnv("SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_SECRET")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
