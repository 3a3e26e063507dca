package cuid2

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	id := New()

	assert.Len(t, id, timestampLength+randomLength)
	for _, c := range id {
		assert.Contains(t, base62Alphabet, string(c))
	}
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

// TestTimestampPrefixSorts tests that later timestamps encode to
// lexicographically larger prefixes
func TestTimestampPrefixSorts(t *testing.T) {
	earlier := encodeTimestamp(1700000000)
	later := encodeTimestamp(1700000001)

	assert.Len(t, earlier, timestampLength)
	assert.Equal(t, -1, strings.Compare(earlier, later))
}

func TestRandomBase62Length(t *testing.T) {
	for _, n := range []int{1, 18, 64} {
		assert.Len(t, randomBase62(n), n)
	}
}
