package credential

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("")
	assert.Equal(t, "", s.Get())

	require.NoError(t, s.Set("refresh-1"))
	assert.Equal(t, "refresh-1", s.Get())

	assert.Error(t, s.Set(""), "empty token must be rejected")
	assert.Equal(t, "refresh-1", s.Get())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore("initial")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set("rotated")
		}()
		go func() {
			defer wg.Done()
			v := s.Get()
			assert.Contains(t, []string{"initial", "rotated"}, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, "rotated", s.Get())
}

func TestEnvFileStore_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s := NewEnvFileStore(path, "", "")

	require.NoError(t, s.Set("refresh-abc"))
	assert.Equal(t, "refresh-abc", s.Get())

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh-abc", env[DefaultEnvKey])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvFileStore_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPOTIFY_CLIENT_ID=client\nSPOTIFY_REFRESH_TOKEN=old\n"), 0600))

	s := NewEnvFileStore(path, "", "old")
	require.NoError(t, s.Set("new"))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "client", env["SPOTIFY_CLIENT_ID"])
	assert.Equal(t, "new", env["SPOTIFY_REFRESH_TOKEN"])
}

func TestEnvFileStore_CustomKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s := NewEnvFileStore(path, "SPOTIPY_REFRESH_TOKEN", "")

	require.NoError(t, s.Set("tok"))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", env["SPOTIPY_REFRESH_TOKEN"])
	_, ok := env[DefaultEnvKey]
	assert.False(t, ok)
}

func TestEnvFileStore_WriteFailureKeepsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", ".env")
	s := NewEnvFileStore(path, "", "")

	err := s.Set("tok")
	assert.Error(t, err)
	assert.Equal(t, "tok", s.Get())
}
