package buildfilter

import (
	"testing"

	"github.com/slipway/slipway/internal/blueprint"

	"github.com/stretchr/testify/assert"
)

func filteredService() *blueprint.Service {
	return &blueprint.Service{
		Name:    "voice-chatbot-api",
		RootDir: "voice_chatbot_api",
		BuildFilter: &blueprint.BuildFilter{
			Paths: []string{"voice_chatbot_api/**"},
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("triggers when a changed path matches an include glob", func(t *testing.T) {
		d := Evaluate(filteredService(), []string{"voice_chatbot_api/main.py"})
		assert.True(t, d.Triggered)
		assert.Equal(t, "voice_chatbot_api/main.py", d.Path)
		assert.Equal(t, "voice_chatbot_api/**", d.Pattern)
	})

	t.Run("matches nested paths through doublestar", func(t *testing.T) {
		d := Evaluate(filteredService(), []string{"voice_chatbot_api/utils/gemini_api.py"})
		assert.True(t, d.Triggered)
	})

	t.Run("skips pushes that only touch unrelated paths", func(t *testing.T) {
		d := Evaluate(filteredService(), []string{"README.md", "docs/setup.md"})
		assert.False(t, d.Triggered)
		assert.Contains(t, d.Reason, "no changed path matches")
	})

	t.Run("ignore globs beat include globs", func(t *testing.T) {
		svc := filteredService()
		svc.BuildFilter.IgnoredPaths = []string{"**/*.md"}

		d := Evaluate(svc, []string{"voice_chatbot_api/README.md"})
		assert.False(t, d.Triggered)
	})

	t.Run("any non-ignored path triggers when only ignores are declared", func(t *testing.T) {
		svc := &blueprint.Service{
			Name:        "api",
			BuildFilter: &blueprint.BuildFilter{IgnoredPaths: []string{"docs/**"}},
		}

		assert.False(t, Evaluate(svc, []string{"docs/setup.md"}).Triggered)
		assert.True(t, Evaluate(svc, []string{"src/main.go"}).Triggered)
	})

	t.Run("every push builds without a filter", func(t *testing.T) {
		svc := &blueprint.Service{Name: "api"}
		d := Evaluate(svc, []string{"anything/at/all.txt"})
		assert.True(t, d.Triggered)
	})

	t.Run("rootDir scopes the default trigger set", func(t *testing.T) {
		svc := &blueprint.Service{Name: "api", RootDir: "voice_chatbot_api"}

		assert.False(t, Evaluate(svc, []string{"other_service/main.py"}).Triggered)
		assert.True(t, Evaluate(svc, []string{"voice_chatbot_api/main.py"}).Triggered)
	})

	t.Run("include globs reach outside rootDir", func(t *testing.T) {
		svc := filteredService()
		svc.BuildFilter.Paths = append(svc.BuildFilter.Paths, "shared/**")

		d := Evaluate(svc, []string{"shared/schema.json"})
		assert.True(t, d.Triggered)
		assert.Equal(t, "shared/**", d.Pattern)
	})

	t.Run("builds when the push reports no changed paths", func(t *testing.T) {
		d := Evaluate(filteredService(), nil)
		assert.True(t, d.Triggered)
		assert.Contains(t, d.Reason, "defaulting to build")
	})

	t.Run("normalizes leading path noise", func(t *testing.T) {
		d := Evaluate(filteredService(), []string{"./voice_chatbot_api/main.py"})
		assert.True(t, d.Triggered)
		assert.Equal(t, "voice_chatbot_api/main.py", d.Path)
	})
}

func TestMatchesBranch(t *testing.T) {
	t.Run("matches the declared branch", func(t *testing.T) {
		svc := &blueprint.Service{Branch: "develop"}
		assert.True(t, MatchesBranch(svc, "develop"))
		assert.False(t, MatchesBranch(svc, "main"))
	})

	t.Run("defaults to main when the blueprint is silent", func(t *testing.T) {
		svc := &blueprint.Service{}
		assert.True(t, MatchesBranch(svc, "main"))
		assert.False(t, MatchesBranch(svc, "develop"))
	})

	t.Run("an event without a branch matches everything", func(t *testing.T) {
		svc := &blueprint.Service{Branch: "develop"}
		assert.True(t, MatchesBranch(svc, ""))
	})
}
