package id

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesValidULIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := New()
		assert.True(t, IsValid(s), "invalid ULID %q", s)
		assert.False(t, seen[s], "duplicate ULID %q", s)
		seen[s] = true
	}
}

func TestNewIsMonotonicWithinBatch(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestIsValidRejectsJunk(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-ulid"))
}
