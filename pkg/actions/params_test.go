package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringParam(t *testing.T) {
	params := map[string]any{"title": "Check SEO", "blank": "  ", "number": 3}

	assert.Equal(t, "Check SEO", StringParam(params, "title", "x"))
	assert.Equal(t, "x", StringParam(params, "blank", "x"))
	assert.Equal(t, "x", StringParam(params, "number", "x"))
	assert.Equal(t, "x", StringParam(nil, "title", "x"))
}

func TestIntParam(t *testing.T) {
	params := map[string]any{"a": 5, "b": int64(6), "c": 7.0, "d": "8"}

	assert.Equal(t, 5, IntParam(params, "a", 0))
	assert.Equal(t, 6, IntParam(params, "b", 0))
	assert.Equal(t, 7, IntParam(params, "c", 0))
	assert.Equal(t, 1, IntParam(params, "d", 1))
	assert.Equal(t, 1, IntParam(params, "missing", 1))
}
