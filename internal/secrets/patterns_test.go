package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksSecret(t *testing.T) {
	tests := []struct {
		key    string
		secret bool
	}{
		{"ELEVENLABS_API_KEY", true},
		{"GEMINI_API_KEY", true},
		{"DB_PASSWORD", true},
		{"ACCESS_TOKEN", true},
		{"my_private_key", true},
		{"SessionAuth", true},
		{"PYTHON_VERSION", false},
		{"PORT", false},
		{"LOG_LEVEL", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.secret, LooksSecret(tt.key))
		})
	}
}

func TestSecretVariableNames(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected []string
	}{
		{
			name:     "empty environment",
			env:      map[string]string{},
			expected: []string{},
		},
		{
			name: "no secrets",
			env: map[string]string{
				"PATH":           "/usr/bin",
				"PYTHON_VERSION": "3.11",
				"PORT":           "10000",
			},
			expected: []string{},
		},
		{
			name: "detects multiple secret patterns",
			env: map[string]string{
				"ELEVENLABS_API_KEY": "xi-123",
				"DB_PASSWORD":        "secret",
				"ACCESS_TOKEN":       "tok",
			},
			expected: []string{"ELEVENLABS_API_KEY", "DB_PASSWORD", "ACCESS_TOKEN"},
		},
		{
			name: "case insensitive detection",
			env: map[string]string{
				"my_api_key":  "key123",
				"My_Password": "secret",
			},
			expected: []string{"my_api_key", "My_Password"},
		},
		{
			name: "mixed environment",
			env: map[string]string{
				"PATH":           "/usr/bin",
				"GEMINI_API_KEY": "key123",
				"DEBUG":          "true",
				"LOG_LEVEL":      "info",
			},
			expected: []string{"GEMINI_API_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SecretVariableNames(tt.env)
			assert.ElementsMatch(t, tt.expected, result)
		})
	}
}

func TestMergeSecretNames(t *testing.T) {
	tests := []struct {
		name     string
		marked   []string
		detected []string
		expected []string
	}{
		{
			name:     "both empty",
			marked:   []string{},
			detected: []string{},
			expected: []string{},
		},
		{
			name:     "merge without duplicates",
			marked:   []string{"KEY1", "KEY2"},
			detected: []string{"KEY3"},
			expected: []string{"KEY1", "KEY2", "KEY3"},
		},
		{
			name:     "merge with duplicates",
			marked:   []string{"KEY1", "KEY2"},
			detected: []string{"KEY2", "KEY3"},
			expected: []string{"KEY1", "KEY2", "KEY3"},
		},
		{
			name:     "preserves marked order first",
			marked:   []string{"A", "B"},
			detected: []string{"C", "A"},
			expected: []string{"A", "B", "C"},
		},
		{
			name:     "nil marked",
			marked:   nil,
			detected: []string{"KEY1"},
			expected: []string{"KEY1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MergeSecretNames(tt.marked, tt.detected)
			assert.Equal(t, tt.expected, result)
		})
	}
}
