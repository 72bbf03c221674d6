// Package credential holds the process-wide Spotify refresh token.
package credential

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
)

// DefaultEnvKey is the variable the refresh token is written to.
const DefaultEnvKey = "SPOTIFY_REFRESH_TOKEN"

// Store gives exclusive access to the refresh token.
// Get returns "" when no token has been obtained yet.
type Store interface {
	Get() string
	Set(refreshToken string) error
}

// MemoryStore keeps the refresh token in memory only.
type MemoryStore struct {
	mu           sync.RWMutex
	refreshToken string
}

// NewMemoryStore creates a store seeded with initial, which may be empty.
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{refreshToken: initial}
}

// Get returns the current refresh token.
func (s *MemoryStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Set replaces the refresh token.
func (s *MemoryStore) Set(refreshToken string) error {
	if refreshToken == "" {
		return errors.New("refresh token is empty")
	}
	s.mu.Lock()
	s.refreshToken = refreshToken
	s.mu.Unlock()
	return nil
}

// EnvFileStore keeps the refresh token in memory and writes it back to a
// dotenv file so it survives restarts. Other keys in the file are preserved.
type EnvFileStore struct {
	mu           sync.RWMutex
	path         string
	key          string
	refreshToken string
}

// NewEnvFileStore creates a store persisting to path under key.
// An empty key falls back to DefaultEnvKey.
func NewEnvFileStore(path, key, initial string) *EnvFileStore {
	if key == "" {
		key = DefaultEnvKey
	}
	return &EnvFileStore{
		path:         path,
		key:          key,
		refreshToken: initial,
	}
}

// Get returns the current refresh token.
func (s *EnvFileStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Set replaces the refresh token and rewrites the dotenv file.
// The in-memory token is updated even if the file cannot be written.
func (s *EnvFileStore) Set(refreshToken string) error {
	if refreshToken == "" {
		return errors.New("refresh token is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshToken = refreshToken

	env, err := godotenv.Read(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "failed to read env file %s", s.path)
		}
		env = map[string]string{}
	}
	env[s.key] = refreshToken

	if err := godotenv.Write(env, s.path); err != nil {
		return errors.Wrapf(err, "failed to write env file %s", s.path)
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		zlog.Warn().Err(err).Msgf("failed to restrict permissions on %s", s.path)
	}

	zlog.Info().Msgf("refresh token saved: file=%s key=%s", s.path, s.key)
	return nil
}

// Path returns the dotenv file path.
func (s *EnvFileStore) Path() string {
	return s.path
}
