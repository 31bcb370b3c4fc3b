// Package actions holds helpers shared by the workflow rule actions.
package actions

import "strings"

// StringParam returns a non-blank string parameter or def.
func StringParam(params map[string]any, key, def string) string {
	v, ok := params[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}

	return v
}

// IntParam reads a whole number, accepting the numeric forms JSON and YAML decoding produce.
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
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
