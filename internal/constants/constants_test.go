package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	assert.NotNil(t, v, "Version should not be nil")
	assert.NotEmpty(t, *v, "Version should not be empty")

	// Check that it returns a pointer to the same variable
	v2 := GetVersion()
	assert.Equal(t, v, v2, "GetVersion should return the same pointer")
}

func TestConfigDirPath(t *testing.T) {
	tests := []struct {
		name     string
		homeDir  string
		expected string
	}{
		{
			name:     "standard home directory",
			homeDir:  "/home/user",
			expected: "/home/user/.slipway",
		},
		{
			name:     "root home directory",
			homeDir:  "/root",
			expected: "/root/.slipway",
		},
		{
			name:     "empty home directory",
			homeDir:  "",
			expected: "/.slipway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConfigDirPath(tt.homeDir)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfigFilePath(t *testing.T) {
	tests := []struct {
		name     string
		homeDir  string
		expected string
	}{
		{
			name:     "standard home directory",
			homeDir:  "/home/user",
			expected: "/home/user/.slipway/config.yaml",
		},
		{
			name:     "root home directory",
			homeDir:  "/root",
			expected: "/root/.slipway/config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConfigFilePath(tt.homeDir)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSecretsFilePath(t *testing.T) {
	assert.Equal(t, "/home/user/.slipway/secrets.yaml", SecretsFilePath("/home/user"))
}

func TestEnvironment(t *testing.T) {
	t.Run("environment constants are set", func(t *testing.T) {
		assert.Equal(t, Environment("development"), Development)
		assert.Equal(t, Environment("production"), Production)
		assert.Equal(t, Environment("cli"), CLI)
	})
}

func TestConstants(t *testing.T) {
	t.Run("project constants are set correctly", func(t *testing.T) {
		assert.Equal(t, "slipway", ProjectName)
		assert.Equal(t, ".slipway", ConfigDirName)
		assert.Equal(t, "config.yaml", ConfigFileName)
		assert.Equal(t, "Content-Type", ContentTypeHeader)
	})
}

func TestServiceTypes(t *testing.T) {
	t.Run("service type constants are set", func(t *testing.T) {
		assert.Equal(t, ServiceType("web"), WebService)
		assert.Equal(t, ServiceType("worker"), WorkerService)
		assert.Equal(t, ServiceType("cron"), CronService)
		assert.Equal(t, ServiceType("static"), StaticService)
	})

	t.Run("known service types", func(t *testing.T) {
		assert.True(t, IsKnownServiceType(WebService))
		assert.True(t, IsKnownServiceType(CronService))
		assert.False(t, IsKnownServiceType(ServiceType("spaceship")))
	})
}

func TestIsKnownRuntime(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected bool
	}{
		{name: "python runtime", env: "python", expected: true},
		{name: "docker runtime", env: "docker", expected: true},
		{name: "node runtime", env: "node", expected: true},
		{name: "unknown runtime", env: "cobol", expected: false},
		{name: "empty runtime", env: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsKnownRuntime(tt.env))
		})
	}
}

func TestIsKnownPlan(t *testing.T) {
	assert.True(t, IsKnownPlan("free"))
	assert.True(t, IsKnownPlan("starter"))
	assert.False(t, IsKnownPlan("platinum"))
}

func TestBlueprintFileNames(t *testing.T) {
	assert.Equal(t, "slipway.yaml", BlueprintFileName)
	assert.Contains(t, BlueprintFileNames, "render.yaml")
	assert.Equal(t, BlueprintFileName, BlueprintFileNames[0], "canonical name should be probed first")
}

func TestContextKeys(t *testing.T) {
	t.Run("context key types are unique", func(t *testing.T) {
		configKey := ConfigCtxKey
		startTimeKey := StartTimeCtxKey

		// These should be different types/values
		assert.NotEqual(t, string(configKey), string(startTimeKey))
	})

	t.Run("context key values are set", func(t *testing.T) {
		assert.Equal(t, ConfigCtxKeyType("config"), ConfigCtxKey)
		assert.Equal(t, StartTimeCtxKeyType("startTime"), StartTimeCtxKey)
	})
}
