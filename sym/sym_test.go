package sym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.Equal(t, "pulse", Name(Pulse))
	assert.Equal(t, "db", Name(DB))
	assert.Equal(t, "?", Name("?"))
}

func TestGlyphsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for glyph := range Names {
		assert.False(t, seen[glyph], "duplicate glyph %s", glyph)
		seen[glyph] = true
	}
	assert.Len(t, seen, 6)
}
