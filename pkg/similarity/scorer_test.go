package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaroWinkler(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.JaroWinkler("dark mode", "dark mode"))
	assert.Equal(t, 0.0, s.JaroWinkler("", "dark mode"))
	assert.InDelta(t, 0.961, s.JaroWinkler("martha", "marhta"), 0.001)

	// Shared prefix boosts above plain Jaro.
	assert.Greater(t, s.JaroWinkler("dark mode", "dark theme"), s.jaro("dark mode", "dark theme"))
}

func TestJaro(t *testing.T) {
	s := NewScorer()

	assert.InDelta(t, 0.944, s.jaro("martha", "marhta"), 0.001)
	assert.InDelta(t, 0.766, s.jaro("dixon", "dicksonx"), 0.001)
	assert.Equal(t, 0.0, s.jaro("abc", "xyz"))
}

func TestNormalize(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, "dark mode", s.Normalize("  Dark   MODE "))
	assert.Equal(t, "", s.Normalize("   "))
}
