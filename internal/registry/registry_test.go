package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "services.json"))
}

func TestRegistry_Register(t *testing.T) {
	t.Run("registers a new service", func(t *testing.T) {
		reg := testRegistry(t)

		entry, err := reg.Register(Entry{
			Name:          "voice-chatbot-api",
			Path:          "/srv/checkouts/voice-chatbot",
			BlueprintPath: "slipway.yaml",
			Repo:          "https://github.com/example/voice-chatbot",
			Branch:        "main",
		})
		require.NoError(t, err)

		assert.Equal(t, "voice-chatbot-api", entry.Name)
		assert.Equal(t, "/srv/checkouts/voice-chatbot", entry.Path)
		assert.False(t, entry.RegisteredAt.IsZero())
		assert.Equal(t, entry.RegisteredAt, entry.UpdatedAt)
	})

	t.Run("re-registering from the same path updates the entry", func(t *testing.T) {
		reg := testRegistry(t)
		base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
		reg.now = func() time.Time { return base }

		_, err := reg.Register(Entry{
			Name:   "voice-chatbot-api",
			Path:   "/srv/checkouts/voice-chatbot",
			Branch: "main",
		})
		require.NoError(t, err)

		reg.now = func() time.Time { return base.Add(time.Hour) }
		updated, err := reg.Register(Entry{
			Name:   "voice-chatbot-api",
			Path:   "/srv/checkouts/voice-chatbot",
			Branch: "develop",
		})
		require.NoError(t, err)

		assert.Equal(t, "develop", updated.Branch)
		assert.Equal(t, base, updated.RegisteredAt)
		assert.Equal(t, base.Add(time.Hour), updated.UpdatedAt)
	})

	t.Run("same name from a different path conflicts", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/a"})
		require.NoError(t, err)

		_, err = reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/b"})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetErrorCode(err))
		assert.Contains(t, err.Error(), "/srv/a")
	})

	t.Run("requires a name", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Path: "/srv/a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("requires a path", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-api"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})
}

func TestRegistry_Sync(t *testing.T) {
	bp := &blueprint.Blueprint{
		Services: []*blueprint.Service{
			{
				Type:   constants.WebService,
				Name:   "voice-chatbot-api",
				Repo:   "https://github.com/example/voice-chatbot",
				Branch: "main",
			},
			{
				Type: constants.WorkerService,
				Name: "voice-chatbot-worker",
				Repo: "https://github.com/example/voice-chatbot",
			},
		},
	}

	t.Run("registers every declared service", func(t *testing.T) {
		reg := testRegistry(t)

		synced, err := reg.Sync(bp, "/srv/voice-chatbot", "slipway.yaml")
		require.NoError(t, err)
		require.Len(t, synced, 2)

		entry, err := reg.Get("voice-chatbot-worker")
		require.NoError(t, err)
		assert.Equal(t, "/srv/voice-chatbot", entry.Path)
		assert.Equal(t, "slipway.yaml", entry.BlueprintPath)
		assert.Equal(t, "worker", entry.Type)
		assert.Equal(t, "main", entry.Branch, "branch defaults when the blueprint leaves it unset")
	})

	t.Run("re-syncing the same working copy upserts", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Sync(bp, "/srv/voice-chatbot", "slipway.yaml")
		require.NoError(t, err)
		_, err = reg.Sync(bp, "/srv/voice-chatbot", "slipway.yaml")
		require.NoError(t, err)

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("stops at a name owned by another working copy", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-worker", Path: "/srv/other"})
		require.NoError(t, err)

		synced, err := reg.Sync(bp, "/srv/voice-chatbot", "slipway.yaml")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetErrorCode(err))
		assert.Len(t, synced, 1)
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("returns a registered service", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/a"})
		require.NoError(t, err)

		entry, err := reg.Get("voice-chatbot-api")
		require.NoError(t, err)
		assert.Equal(t, "/srv/a", entry.Path)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Get("ghost")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeServiceNotFound, apperrors.GetErrorCode(err))
	})

	t.Run("mutating the result does not touch the registry", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/a"})
		require.NoError(t, err)

		entry, err := reg.Get("voice-chatbot-api")
		require.NoError(t, err)
		entry.Path = "/srv/elsewhere"

		again, err := reg.Get("voice-chatbot-api")
		require.NoError(t, err)
		assert.Equal(t, "/srv/a", again.Path)
	})
}

func TestRegistry_List(t *testing.T) {
	t.Run("empty registry lists nothing", func(t *testing.T) {
		reg := testRegistry(t)

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("lists services sorted by name", func(t *testing.T) {
		reg := testRegistry(t)

		for _, name := range []string{"worker-transcode", "voice-chatbot-api", "admin-dashboard"} {
			_, err := reg.Register(Entry{Name: name, Path: "/srv/" + name})
			require.NoError(t, err)
		}

		entries, err := reg.List()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "admin-dashboard", entries[0].Name)
		assert.Equal(t, "voice-chatbot-api", entries[1].Name)
		assert.Equal(t, "worker-transcode", entries[2].Name)
	})
}

func TestRegistry_Remove(t *testing.T) {
	t.Run("removes a registration", func(t *testing.T) {
		reg := testRegistry(t)

		_, err := reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/a"})
		require.NoError(t, err)

		require.NoError(t, reg.Remove("voice-chatbot-api"))

		_, err = reg.Get("voice-chatbot-api")
		require.Error(t, err)
	})

	t.Run("removing an unknown name fails", func(t *testing.T) {
		reg := testRegistry(t)

		err := reg.Remove("ghost")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeServiceNotFound, apperrors.GetErrorCode(err))
	})
}

func TestRegistry_FindByRepo(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Register(Entry{
		Name: "voice-chatbot-api",
		Path: "/srv/voice-chatbot",
		Repo: "https://github.com/example/voice-chatbot.git",
	})
	require.NoError(t, err)
	_, err = reg.Register(Entry{
		Name: "admin-dashboard",
		Path: "/srv/admin",
		Repo: "git@github.com:example/admin-dashboard.git",
	})
	require.NoError(t, err)
	_, err = reg.Register(Entry{Name: "scratch", Path: "/srv/scratch"})
	require.NoError(t, err)

	t.Run("matches across remote spellings", func(t *testing.T) {
		entries, err := reg.FindByRepo("git@github.com:example/voice-chatbot.git")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "voice-chatbot-api", entries[0].Name)
	})

	t.Run("https lookup finds scp-style remote", func(t *testing.T) {
		entries, err := reg.FindByRepo("https://github.com/example/admin-dashboard")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "admin-dashboard", entries[0].Name)
	})

	t.Run("no match returns an empty slice", func(t *testing.T) {
		entries, err := reg.FindByRepo("https://github.com/example/other")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRegistry_Persistence(t *testing.T) {
	t.Run("survives across instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "services.json")

		first := New(path)
		_, err := first.Register(Entry{
			Name:          "voice-chatbot-api",
			Path:          "/srv/voice-chatbot",
			BlueprintPath: "slipway.yaml",
			Repo:          "https://github.com/example/voice-chatbot",
			Branch:        "main",
		})
		require.NoError(t, err)

		second := New(path)
		entry, err := second.Get("voice-chatbot-api")
		require.NoError(t, err)
		assert.Equal(t, "/srv/voice-chatbot", entry.Path)
		assert.Equal(t, "slipway.yaml", entry.BlueprintPath)
		assert.Equal(t, "main", entry.Branch)
	})

	t.Run("missing file is an empty registry", func(t *testing.T) {
		reg := New(filepath.Join(t.TempDir(), "does-not-exist", "services.json"))

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("corrupt file is a storage error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "services.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		reg := New(path)
		_, err := reg.List()
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeStorageError, apperrors.GetErrorCode(err))
	})

	t.Run("creates the data directory on first write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "data", "services.json")

		reg := New(path)
		_, err := reg.Register(Entry{Name: "voice-chatbot-api", Path: "/srv/a"})
		require.NoError(t, err)

		_, err = os.Stat(path)
		require.NoError(t, err)
	})
}
