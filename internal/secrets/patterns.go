// Package secrets keeps secret values out of blueprint files and logs. It
// stores values out-of-band in an owner-only file, resolves them when a
// deploy needs its environment assembled, and detects secret-bearing
// variable names so their values can be masked.
package secrets

import "strings"

// DefaultSecretPatterns are substrings that mark an environment variable
// name as secret-bearing. Matching is case-insensitive.
var DefaultSecretPatterns = []string{
	"SECRET",
	"TOKEN",
	"PASSWORD",
	"PASSWD",
	"CREDENTIAL",
	"API_KEY",
	"APIKEY",
	"PRIVATE_KEY",
	"ACCESS_KEY",
	"AUTH",
}

// LooksSecret reports whether the variable name matches any of the default
// secret patterns.
func LooksSecret(key string) bool {
	return matchesAny(key, DefaultSecretPatterns)
}

// SecretVariableNames returns the names in env that match the default
// secret patterns. Their values must never reach logs or API responses.
func SecretVariableNames(env map[string]string) []string {
	return SecretVariableNamesWithPatterns(env, DefaultSecretPatterns)
}

// SecretVariableNamesWithPatterns returns the names in env that match any
// of the provided patterns.
func SecretVariableNamesWithPatterns(env map[string]string, patterns []string) []string {
	names := []string{}
	for key := range env {
		if matchesAny(key, patterns) {
			names = append(names, key)
		}
	}
	return names
}

// MergeSecretNames merges explicitly marked secret names with
// pattern-detected ones, removing duplicates while preserving order.
func MergeSecretNames(marked, detected []string) []string {
	seen := make(map[string]struct{}, len(marked)+len(detected))
	merged := make([]string, 0, len(marked)+len(detected))

	for _, name := range marked {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
	}
	for _, name := range detected {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
	}

	return merged
}

func matchesAny(key string, patterns []string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range patterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
