package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Warehouse Move", "warehouse-move"},
		{"  Q3 / Roll-out!  ", "q3-roll-out"},
		{"ALPHA", "alpha"},
		{"---", ""},
		{"a  b", "a-b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestRandomSuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := RandomSuffix(6)
		assert.Len(t, s, 6)
		assert.Equal(t, strings.ToLower(s), s)
		seen[s] = true
	}
	// Collisions across 50 draws from 36^6 values would be remarkable
	assert.Greater(t, len(seen), 45)
}

func TestGenerateSlug(t *testing.T) {
	slug := GenerateSlug("Warehouse Move", func(string) bool { return false })
	assert.True(t, strings.HasPrefix(slug, "warehouse-move-"))
	assert.Len(t, slug, len("warehouse-move-")+6)

	// Empty names still produce a usable slug
	slug = GenerateSlug("!!!", func(string) bool { return false })
	assert.True(t, strings.HasPrefix(slug, "untitled-"))

	// A collision forces another suffix
	calls := 0
	slug = GenerateSlug("alpha", func(s string) bool {
		calls++
		return calls == 1
	})
	assert.Equal(t, 2, calls)
	assert.True(t, strings.HasPrefix(slug, "alpha-"))
}
