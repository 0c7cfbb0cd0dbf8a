// Package git reads repository metadata straight from the .git directory,
// without shelling out. The CLI uses it to fill in repo and branch when
// registering a service, and the daemon uses it to match push events to
// registered services.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slipway/slipway/internal/constants"
)

// DetectRemoteURL detects the origin remote URL of the current directory.
func DetectRemoteURL() (string, error) {
	return DetectRemoteURLFromDir(".")
}

// DetectRemoteURLFromDir detects the origin remote URL of the repository at dir.
func DetectRemoteURLFromDir(dir string) (string, error) {
	gitDir, err := gitDirPath(dir)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(filepath.Join(gitDir, "config"))
	if err != nil {
		return "", fmt.Errorf("not a git repository or no remote 'origin' configured")
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "[remote \"origin\"]") {
			continue
		}
		for _, subLine := range lines[i+1:] {
			if strings.HasPrefix(subLine, "[") {
				break
			}
			trimmed := strings.TrimSpace(subLine)
			if strings.HasPrefix(trimmed, "url =") {
				return strings.TrimSpace(strings.TrimPrefix(trimmed, "url =")), nil
			}
		}
	}

	return "", fmt.Errorf("git remote 'origin' is empty")
}

// DetectCurrentBranch detects the checked-out branch of the current directory.
func DetectCurrentBranch() (string, error) {
	return DetectCurrentBranchFromDir(".")
}

// DetectCurrentBranchFromDir detects the checked-out branch of the repository at dir.
func DetectCurrentBranchFromDir(dir string) (string, error) {
	gitDir, err := gitDirPath(dir)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("failed to detect current branch")
	}

	head := strings.TrimSpace(string(content))
	if strings.HasPrefix(head, "ref: refs/heads/") {
		return strings.TrimPrefix(head, "ref: refs/heads/"), nil
	}

	return "", fmt.Errorf("not on a named branch (detached HEAD?)")
}

// IsRepository reports whether the current directory is a git repository.
func IsRepository() bool {
	return IsRepositoryAt(".")
}

// IsRepositoryAt reports whether dir is a git repository.
func IsRepositoryAt(dir string) bool {
	_, err := gitDirPath(dir)
	return err == nil
}

// RepositoryInfo returns the origin remote URL and the checked-out branch
// of the repository at dir. A detached HEAD falls back to the default
// branch rather than failing.
func RepositoryInfo(dir string) (remoteURL, branch string, err error) {
	remoteURL, err = DetectRemoteURLFromDir(dir)
	if err != nil {
		return "", "", err
	}

	branch, err = DetectCurrentBranchFromDir(dir)
	if err != nil {
		branch = constants.DefaultGitRef
	}

	return remoteURL, branch, nil
}

// NormalizeRemote reduces the spellings of a git remote to one comparable
// form: host/owner/repo with a lowercase host, no credentials, no scheme,
// and no .git suffix. git@github.com:a/b.git and https://github.com/a/b
// normalize to the same string.
func NormalizeRemote(remote string) string {
	r := strings.TrimSpace(remote)
	r = strings.TrimSuffix(r, "/")

	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		r = strings.TrimPrefix(r, scheme)
	}

	if at := strings.Index(r, "@"); at != -1 {
		r = r[at+1:]
	}

	// scp-like syntax separates host and path with a colon
	if colon := strings.Index(r, ":"); colon != -1 {
		if slash := strings.Index(r, "/"); slash == -1 || colon < slash {
			r = r[:colon] + "/" + r[colon+1:]
		}
	}

	r = strings.TrimSuffix(r, ".git")

	if slash := strings.Index(r, "/"); slash != -1 {
		return strings.ToLower(r[:slash]) + r[slash:]
	}
	return strings.ToLower(r)
}

// RemotesEqual reports whether two remote spellings point at the same
// repository.
func RemotesEqual(a, b string) bool {
	return NormalizeRemote(a) == NormalizeRemote(b)
}

// gitDirPath resolves the .git directory for dir. Worktrees and submodules
// keep a .git file pointing at the real directory; follow it.
func gitDirPath(dir string) (string, error) {
	gitPath := filepath.Join(dir, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return "", fmt.Errorf("not a git repository")
	}

	if info.IsDir() {
		return gitPath, nil
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", fmt.Errorf("not a git repository")
	}
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(content)), "gitdir:"))
	if target == "" {
		return "", fmt.Errorf("not a git repository")
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return target, nil
}
