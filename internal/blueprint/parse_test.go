package blueprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voiceChatbotYAML = `services:
  - type: web
    name: voice-chatbot-api
    env: python
    repo: https://github.com/example/voice-chatbot
    branch: main
    rootDir: voice_chatbot_api
    plan: free
    buildFilter:
      paths:
        - voice_chatbot_api/**
    buildCommands:
      - apt-get update && apt-get install -y ffmpeg
      - pip install --upgrade pip
      - pip install -r requirements.txt
    startCommand: uvicorn main:app --host 0.0.0.0 --port $PORT
    envVars:
      - key: PYTHON_VERSION
        value: "3.11"
      - key: ELEVENLABS_API_KEY
        sync: false
      - key: GEMINI_API_KEY
        sync: false
`

func TestParse(t *testing.T) {
	t.Run("parses a full service declaration", func(t *testing.T) {
		bp, err := Parse([]byte(voiceChatbotYAML))
		require.NoError(t, err)
		require.Len(t, bp.Services, 1)

		svc := bp.Services[0]
		assert.Equal(t, "voice-chatbot-api", svc.Name)
		assert.Equal(t, "web", string(svc.Type))
		assert.Equal(t, "python", svc.Env)
		assert.Equal(t, "https://github.com/example/voice-chatbot", svc.Repo)
		assert.Equal(t, "main", svc.Branch)
		assert.Equal(t, "voice_chatbot_api", svc.RootDir)
		assert.Equal(t, "free", svc.Plan)
		assert.Equal(t, "uvicorn main:app --host 0.0.0.0 --port $PORT", svc.StartCommand)

		require.NotNil(t, svc.BuildFilter)
		assert.Equal(t, []string{"voice_chatbot_api/**"}, svc.BuildFilter.Paths)

		assert.Equal(t, CommandList{
			"apt-get update && apt-get install -y ffmpeg",
			"pip install --upgrade pip",
			"pip install -r requirements.txt",
		}, svc.BuildCommands)

		require.Len(t, svc.EnvVars, 3)
		assert.Equal(t, "PYTHON_VERSION", svc.EnvVars[0].Key)
		assert.Equal(t, "3.11", svc.EnvVars[0].Value)
		assert.False(t, svc.EnvVars[0].Secret())
		assert.Equal(t, "ELEVENLABS_API_KEY", svc.EnvVars[1].Key)
		assert.True(t, svc.EnvVars[1].Secret())
		assert.Empty(t, svc.EnvVars[1].Value)
		assert.Equal(t, "GEMINI_API_KEY", svc.EnvVars[2].Key)
		assert.True(t, svc.EnvVars[2].Secret())
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		yamlContent := `services:
  - type: web
    name: api
    env: python
    repo: https://github.com/example/api
    buildComands:
      - pip install -r requirements.txt
    startCommand: uvicorn main:app --port $PORT
`
		bp, err := Parse([]byte(yamlContent))
		assert.Error(t, err)
		assert.Nil(t, bp)
		assert.Contains(t, err.Error(), "buildComands")
	})

	t.Run("rejects an empty document", func(t *testing.T) {
		bp, err := Parse([]byte(""))
		assert.Error(t, err)
		assert.Nil(t, bp)
		assert.Contains(t, err.Error(), "blueprint is empty")
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		bp, err := Parse([]byte("services: [unclosed"))
		assert.Error(t, err)
		assert.Nil(t, bp)
		assert.Contains(t, err.Error(), "failed to parse blueprint YAML")
	})

	t.Run("accepts a scalar buildCommands", func(t *testing.T) {
		yamlContent := `services:
  - type: web
    name: api
    env: python
    repo: https://github.com/example/api
    buildCommands: pip install -r requirements.txt
    startCommand: uvicorn main:app --port $PORT
`
		bp, err := Parse([]byte(yamlContent))
		require.NoError(t, err)
		assert.Equal(t, CommandList{"pip install -r requirements.txt"}, bp.Services[0].BuildCommands)
	})

	t.Run("folds legacy runtime and buildCommand aliases", func(t *testing.T) {
		yamlContent := `services:
  - type: web
    name: api
    runtime: python
    repo: https://github.com/example/api
    buildCommand: pip install -r requirements.txt
    startCommand: uvicorn main:app --port $PORT
`
		bp, err := Parse([]byte(yamlContent))
		require.NoError(t, err)

		svc := bp.Services[0]
		assert.Equal(t, "python", svc.Env)
		assert.Empty(t, svc.Runtime)
		assert.Equal(t, CommandList{"pip install -r requirements.txt"}, svc.BuildCommands)
		assert.Nil(t, svc.BuildCommand)
	})

	t.Run("env wins when both env and runtime are declared", func(t *testing.T) {
		yamlContent := `services:
  - type: web
    name: api
    env: python
    runtime: node
    repo: https://github.com/example/api
    startCommand: uvicorn main:app --port $PORT
`
		bp, err := Parse([]byte(yamlContent))
		require.NoError(t, err)
		assert.Equal(t, "python", bp.Services[0].Env)
	})
}

func TestParseFile(t *testing.T) {
	t.Run("parses a blueprint from disk", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "slipway.yaml")
		err := os.WriteFile(path, []byte(voiceChatbotYAML), 0644)
		require.NoError(t, err)

		bp, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "voice-chatbot-api", bp.Services[0].Name)
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		bp, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
		assert.Nil(t, bp)
		assert.Contains(t, err.Error(), "failed to read blueprint file")
	})

	t.Run("names the file in parse errors", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "slipway.yaml")
		err := os.WriteFile(path, []byte("services: [unclosed"), 0644)
		require.NoError(t, err)

		bp, err := ParseFile(path)
		assert.Error(t, err)
		assert.Nil(t, bp)
		assert.Contains(t, err.Error(), path)
	})
}

func TestDiscover(t *testing.T) {
	t.Run("finds the canonical file name", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "slipway.yaml")
		require.NoError(t, os.WriteFile(path, []byte(voiceChatbotYAML), 0644))

		found, err := Discover(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("falls back to render.yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "render.yaml")
		require.NoError(t, os.WriteFile(path, []byte(voiceChatbotYAML), 0644))

		found, err := Discover(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("prefers slipway.yaml over render.yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		preferred := filepath.Join(tmpDir, "slipway.yaml")
		require.NoError(t, os.WriteFile(preferred, []byte(voiceChatbotYAML), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "render.yaml"), []byte(voiceChatbotYAML), 0644))

		found, err := Discover(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, preferred, found)
	})

	t.Run("returns error when no blueprint exists", func(t *testing.T) {
		found, err := Discover(t.TempDir())
		assert.Error(t, err)
		assert.Empty(t, found)
		assert.Contains(t, err.Error(), "no blueprint found")
	})
}

func TestEncode(t *testing.T) {
	t.Run("round-trips a parsed blueprint", func(t *testing.T) {
		bp, err := Parse([]byte(voiceChatbotYAML))
		require.NoError(t, err)

		encoded, err := bp.Encode()
		require.NoError(t, err)

		again, err := Parse(encoded)
		require.NoError(t, err)
		assert.Equal(t, bp, again)
	})

	t.Run("encoding is stable across cycles", func(t *testing.T) {
		bp, err := Parse([]byte(voiceChatbotYAML))
		require.NoError(t, err)

		first, err := bp.Encode()
		require.NoError(t, err)

		again, err := Parse(first)
		require.NoError(t, err)
		second, err := again.Encode()
		require.NoError(t, err)

		assert.Equal(t, string(first), string(second))
	})

	t.Run("emits canonical fields for legacy input", func(t *testing.T) {
		yamlContent := `services:
  - type: web
    name: api
    runtime: python
    repo: https://github.com/example/api
    buildCommand: pip install -r requirements.txt
    startCommand: uvicorn main:app --port $PORT
`
		bp, err := Parse([]byte(yamlContent))
		require.NoError(t, err)

		encoded, err := bp.Encode()
		require.NoError(t, err)

		assert.Contains(t, string(encoded), "env: python")
		assert.Contains(t, string(encoded), "buildCommands:")
		assert.NotContains(t, string(encoded), "runtime:")
		assert.NotContains(t, string(encoded), "buildCommand:\n")
	})

	t.Run("writes a readable file", func(t *testing.T) {
		bp, err := Parse([]byte(voiceChatbotYAML))
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "slipway.yaml")
		require.NoError(t, bp.WriteFile(path))

		again, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, bp, again)
	})
}
