package optutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortOpts(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want map[byte]bool
	}{
		{"bundled", []string{"-rf"}, map[byte]bool{'r': true, 'f': true}},
		{"separate", []string{"-r", "-f"}, map[byte]bool{'r': true, 'f': true}},
		{"long opt ignored", []string{"--recursive"}, map[byte]bool{}},
		{"stops at non-alpha", []string{"-C/path"}, map[byte]bool{'C': true}},
		{"stops at double dash", []string{"--", "-r"}, map[byte]bool{}},
		{"bare dash ignored", []string{"-"}, map[byte]bool{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ShortOpts(tc.in)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHasShort(t *testing.T) {
	opts := ShortOpts([]string{"-rf"})
	assert.True(t, HasShort(opts, 'r'))
	assert.False(t, HasShort(opts, 'x'))
}

func TestContainsAndIndexOf(t *testing.T) {
	tokens := []string{"a", "b", "c"}
	assert.Equal(t, 1, IndexOf(tokens, "b"))
	assert.Equal(t, -1, IndexOf(tokens, "z"))
	assert.True(t, Contains(tokens, "c"))
	assert.False(t, Contains(tokens, "z"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold([]string{"Force"}, "force"))
	assert.False(t, ContainsFold([]string{"Force"}, "recursive"))
}

func TestToLowerAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ToLowerAll([]string{"A", "B"}))
}

func TestSplitAtDoubleDash(t *testing.T) {
	opts, positional, present := SplitAtDoubleDash([]string{"-r", "--", "foo", "bar"})
	assert.Equal(t, []string{"-r"}, opts)
	assert.Equal(t, []string{"foo", "bar"}, positional)
	assert.True(t, present)

	opts, positional, present = SplitAtDoubleDash([]string{"-r", "foo"})
	assert.Equal(t, []string{"-r", "foo"}, opts)
	assert.Nil(t, positional)
	assert.False(t, present)
}
