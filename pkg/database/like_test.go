package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "dark mode", EscapeLike("dark mode"))
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `snake\_case`, EscapeLike("snake_case"))
	assert.Equal(t, `back\\slash`, EscapeLike(`back\slash`))
	assert.Equal(t, `\\\%\_`, EscapeLike(`\%_`))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%dark mode%", ContainsPattern("dark mode"))
	assert.Equal(t, `%50\% off%`, ContainsPattern("50% off"))
}
