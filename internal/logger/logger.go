package logger

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/slipway/slipway/internal/constants"

	"github.com/lmittmann/tint"
)

// Initialize sets up the global slog logger based on the environment
func Initialize(env constants.Environment, level slog.Level) *slog.Logger {
	var handler slog.Handler

	if env == constants.Production {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		// Colored single-line output for local/development environments
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:       level,
			TimeFormat:  time.TimeOnly,
			ReplaceAttr: replaceAttrForDev,
			NoColor:     os.Getenv("NO_COLOR") != "",
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("logger initialized", "env", env, "level", level)

	return logger
}

// replaceAttrForDev flattens map-valued attributes into dotted key=value
// pairs so dev output stays on one readable line.
func replaceAttrForDev(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindAny {
		switch a.Value.Any().(type) {
		case map[string]string, map[string]any:
			return slog.String(a.Key, flattenMapAttr(a.Key, a.Value.Any()))
		}
	}
	return a
}

// flattenMapAttr renders nested maps as "prefix.key=value" pairs, keys
// sorted alphabetically. Non-map values render as-is.
func flattenMapAttr(prefix string, value any) string {
	entries := mapEntries(value)
	if entries == nil {
		return fmt.Sprintf("%v", value)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		child := entries[k]
		if mapEntries(child) != nil {
			parts = append(parts, flattenMapAttr(key, child))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%v", key, child))
		}
	}
	return strings.Join(parts, " ")
}

// mapEntries normalizes supported map types to map[string]any.
// Returns nil for non-map values.
func mapEntries(value any) map[string]any {
	switch m := value.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	default:
		return nil
	}
}
