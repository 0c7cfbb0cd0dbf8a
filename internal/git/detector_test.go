package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRepo(t *testing.T, remoteURL, headRef string) string {
	t.Helper()
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))

	config := "[core]\n\trepositoryformatversion = 0\n" +
		"[remote \"origin\"]\n\turl = " + remoteURL + "\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(headRef+"\n"), 0o644))

	return dir
}

func TestDetectRemoteURLFromDir(t *testing.T) {
	t.Run("reads the origin url", func(t *testing.T) {
		dir := writeRepo(t, "https://github.com/example/voice-chatbot", "ref: refs/heads/main")

		url, err := DetectRemoteURLFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/example/voice-chatbot", url)
	})

	t.Run("fails outside a repository", func(t *testing.T) {
		_, err := DetectRemoteURLFromDir(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("fails when origin has no url", func(t *testing.T) {
		dir := t.TempDir()
		gitDir := filepath.Join(dir, ".git")
		require.NoError(t, os.MkdirAll(gitDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte("[core]\n"), 0o644))

		_, err := DetectRemoteURLFromDir(dir)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "origin")
	})
}

func TestDetectCurrentBranchFromDir(t *testing.T) {
	t.Run("reads the checked-out branch", func(t *testing.T) {
		dir := writeRepo(t, "https://github.com/example/voice-chatbot", "ref: refs/heads/develop")

		branch, err := DetectCurrentBranchFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "develop", branch)
	})

	t.Run("rejects a detached head", func(t *testing.T) {
		dir := writeRepo(t, "https://github.com/example/voice-chatbot", "4f2a9cdd0e")

		_, err := DetectCurrentBranchFromDir(dir)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "detached")
	})
}

func TestRepositoryInfo(t *testing.T) {
	t.Run("returns remote and branch together", func(t *testing.T) {
		dir := writeRepo(t, "git@github.com:example/voice-chatbot.git", "ref: refs/heads/main")

		remote, branch, err := RepositoryInfo(dir)
		require.NoError(t, err)
		assert.Equal(t, "git@github.com:example/voice-chatbot.git", remote)
		assert.Equal(t, "main", branch)
	})

	t.Run("detached head falls back to the default branch", func(t *testing.T) {
		dir := writeRepo(t, "https://github.com/example/voice-chatbot", "4f2a9cdd0e")

		_, branch, err := RepositoryInfo(dir)
		require.NoError(t, err)
		assert.Equal(t, "main", branch)
	})
}

func TestIsRepositoryAt(t *testing.T) {
	t.Run("detects a normal repository", func(t *testing.T) {
		dir := writeRepo(t, "https://github.com/example/voice-chatbot", "ref: refs/heads/main")
		assert.True(t, IsRepositoryAt(dir))
	})

	t.Run("follows a worktree pointer file", func(t *testing.T) {
		real := writeRepo(t, "https://github.com/example/voice-chatbot", "ref: refs/heads/main")

		worktree := t.TempDir()
		pointer := "gitdir: " + filepath.Join(real, ".git") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte(pointer), 0o644))

		assert.True(t, IsRepositoryAt(worktree))

		url, err := DetectRemoteURLFromDir(worktree)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/example/voice-chatbot", url)
	})

	t.Run("plain directories are not repositories", func(t *testing.T) {
		assert.False(t, IsRepositoryAt(t.TempDir()))
	})
}

func TestNormalizeRemote(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		expected string
	}{
		{"https form", "https://github.com/Example/Voice-Chatbot.git", "github.com/Example/Voice-Chatbot"},
		{"scp form", "git@github.com:Example/Voice-Chatbot.git", "github.com/Example/Voice-Chatbot"},
		{"ssh scheme", "ssh://git@github.com/Example/Voice-Chatbot", "github.com/Example/Voice-Chatbot"},
		{"embedded credentials", "https://token@github.com/Example/Voice-Chatbot", "github.com/Example/Voice-Chatbot"},
		{"trailing slash", "https://github.com/Example/Voice-Chatbot/", "github.com/Example/Voice-Chatbot"},
		{"host case folded", "https://GitHub.com/Example/Voice-Chatbot", "github.com/Example/Voice-Chatbot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRemote(tt.remote))
		})
	}
}

func TestRemotesEqual(t *testing.T) {
	t.Run("matches different spellings of one repository", func(t *testing.T) {
		assert.True(t, RemotesEqual(
			"git@github.com:example/voice-chatbot.git",
			"https://github.com/example/voice-chatbot",
		))
	})

	t.Run("different repositories do not match", func(t *testing.T) {
		assert.False(t, RemotesEqual(
			"https://github.com/example/voice-chatbot",
			"https://github.com/example/other",
		))
	})
}
