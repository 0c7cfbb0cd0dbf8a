// Package buildfilter decides whether a push should trigger a build for a
// service, based on the service's buildFilter globs and the changed paths
// the push reports.
package buildfilter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slipway/slipway/internal/blueprint"

	"github.com/bmatcuk/doublestar/v4"
)

// Decision explains whether a push triggers a build and why. Path and
// Pattern name the changed path and glob that decided the outcome, when
// one did.
type Decision struct {
	Triggered bool   `json:"triggered"`
	Path      string `json:"path,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Reason    string `json:"reason"`
}

// Evaluate applies the service's build filter to the changed paths of a
// push. All globs and paths are relative to the repository root.
//
// With include globs declared, a build triggers only when some changed path
// matches an include and no ignore. Without includes, the default trigger
// set is the service's rootDir (the whole repository when unset), minus the
// ignore globs. A push that reports no changed paths always builds, since
// the diff could not be determined.
func Evaluate(svc *blueprint.Service, changedPaths []string) Decision {
	if len(changedPaths) == 0 {
		return Decision{Triggered: true, Reason: "push reported no changed paths; defaulting to build"}
	}

	var includes, ignores []string
	if svc.BuildFilter != nil {
		includes = svc.BuildFilter.Paths
		ignores = svc.BuildFilter.IgnoredPaths
	}

	for _, raw := range changedPaths {
		changed := normalize(raw)

		if _, ignored := matchAny(ignores, changed); ignored {
			continue
		}

		if len(includes) > 0 {
			if pattern, ok := matchAny(includes, changed); ok {
				return Decision{
					Triggered: true,
					Path:      changed,
					Pattern:   pattern,
					Reason:    fmt.Sprintf("%s matches %s", changed, pattern),
				}
			}
			continue
		}

		if svc.RootDir == "" || underDir(changed, svc.RootDir) {
			return Decision{
				Triggered: true,
				Path:      changed,
				Reason:    fmt.Sprintf("%s is inside the service's watched tree", changed),
			}
		}
	}

	return Decision{Triggered: false, Reason: "no changed path matches the service's build filter"}
}

// MatchesBranch reports whether a push to branch concerns the service. An
// empty branch means the event did not say, which matches every service.
func MatchesBranch(svc *blueprint.Service, branch string) bool {
	return branch == "" || svc.BranchOrDefault() == branch
}

func matchAny(patterns []string, changed string) (string, bool) {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, changed); err == nil && ok {
			return pattern, true
		}
	}
	return "", false
}

func normalize(p string) string {
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	return strings.TrimPrefix(p, "/")
}

func underDir(p, dir string) bool {
	dir = strings.TrimSuffix(normalize(dir), "/")
	return p == dir || strings.HasPrefix(p, dir+"/")
}
