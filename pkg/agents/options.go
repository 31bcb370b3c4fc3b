// Package agents holds helpers shared by the built-in agent types.
package agents

import (
	"strings"
	"time"
	"unicode/utf8"
)

// IntOption reads a whole number from config, accepting JSON and YAML numeric forms.
func IntOption(config map[string]any, key string, def int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func BoolOption(config map[string]any, key string, def bool) bool {
	v, ok := config[key].(bool)
	if !ok {
		return def
	}

	return v
}

// StringsOption reads a list of strings, skipping blank and non-string entries.
func StringsOption(config map[string]any, key string) []string {
	var out []string

	switch v := config[key].(type) {
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}

	return out
}

// Truncate shortens s to at most limit runes, cutting at the last word boundary
// when one exists in the second half of the allowed length.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)[:limit]

	cut := strings.LastIndex(string(runes), " ")
	if cut > len(string(runes))/2 {
		return strings.TrimRight(string(runes)[:cut], " ,;:-")
	}

	return strings.TrimRight(string(runes), " ,;:-")
}

// Clamp bounds a confidence score to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// ExpiresAt returns now plus the given number of days, or nil when days is not positive.
func ExpiresAt(now time.Time, days int) *time.Time {
	if days <= 0 {
		return nil
	}

	t := now.Add(time.Duration(days) * 24 * time.Hour)

	return &t
}

func Ptr[T any](v T) *T {
	return &v
}
