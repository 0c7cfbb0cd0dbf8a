package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".slipway", "secrets.yaml"))
}

func TestStore_SetAndLookup(t *testing.T) {
	t.Run("round-trips a stored value", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.Set("voice-chatbot-api", "GEMINI_API_KEY", "AIza-test"))

		value, ok, err := store.Lookup("voice-chatbot-api", "GEMINI_API_KEY")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "AIza-test", value)
	})

	t.Run("missing keys report not found", func(t *testing.T) {
		store := tempStore(t)
		value, ok, err := store.Lookup("voice-chatbot-api", "GEMINI_API_KEY")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("values are scoped per service", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.Set("api", "TOKEN", "one"))
		require.NoError(t, store.Set("worker", "TOKEN", "two"))

		value, ok, err := store.Lookup("worker", "TOKEN")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "two", value)
	})

	t.Run("persists across store instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets.yaml")
		require.NoError(t, NewStore(path).Set("api", "TOKEN", "persisted"))

		value, ok, err := NewStore(path).Lookup("api", "TOKEN")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "persisted", value)
	})

	t.Run("writes an owner-only file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets.yaml")
		require.NoError(t, NewStore(path).Set("api", "TOKEN", "value"))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}

func TestStore_Unset(t *testing.T) {
	t.Run("removes a stored value", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.Set("api", "TOKEN", "value"))
		require.NoError(t, store.Unset("api", "TOKEN"))

		_, ok, err := store.Lookup("api", "TOKEN")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("dropping the last key drops the service", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.Set("api", "TOKEN", "value"))
		require.NoError(t, store.Unset("api", "TOKEN"))

		names, err := store.ServiceNames()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("unsetting an unknown key is a no-op", func(t *testing.T) {
		store := tempStore(t)
		assert.NoError(t, store.Unset("api", "TOKEN"))
	})
}

func TestStore_Keys(t *testing.T) {
	t.Run("returns sorted key names without values", func(t *testing.T) {
		store := tempStore(t)
		require.NoError(t, store.Set("voice-chatbot-api", "GEMINI_API_KEY", "a"))
		require.NoError(t, store.Set("voice-chatbot-api", "ELEVENLABS_API_KEY", "b"))

		keys, err := store.Keys("voice-chatbot-api")
		require.NoError(t, err)
		assert.Equal(t, []string{"ELEVENLABS_API_KEY", "GEMINI_API_KEY"}, keys)
	})

	t.Run("unknown service has no keys", func(t *testing.T) {
		store := tempStore(t)
		keys, err := store.Keys("missing")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestStore_Load(t *testing.T) {
	t.Run("rejects a corrupt store file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets.yaml")
		require.NoError(t, os.WriteFile(path, []byte("services: [not a map"), 0o600))

		_, _, err := NewStore(path).Lookup("api", "TOKEN")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing secret store")
	})
}
