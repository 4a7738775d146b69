package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTLDList(t *testing.T) {
	raw := "# Version 2026101600, Last Updated Fri Oct 16 07:07:01 2026 UTC\nAAA\nCOM\n\nXN--P1AI\n"

	tlds, err := ParseTLDList(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "com", "xn--p1ai"}, tlds)
}

func TestNewTLDSet(t *testing.T) {
	set, err := NewTLDSet([]string{"COM", "org", "com", " net "})
	require.NoError(t, err)

	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"com", "net", "org"}, set.List())
	assert.True(t, set.Has("com"))
	assert.True(t, set.Has("CoM"))
	assert.False(t, set.Has("con"))
}

func TestNewTLDSet_RejectsUnsafeEntries(t *testing.T) {
	for _, bad := range []string{"co m", "com\"", "", "c.om", "<script>"} {
		_, err := NewTLDSet([]string{"com", bad})
		require.ErrorIs(t, err, ErrUnsafeEntry, "%q", bad)
	}
}

func TestDomainSet(t *testing.T) {
	s := NewDomainSet([]string{"b.com", "a.com", "b.com", "c.org"})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a.com", "b.com", "c.org"}, s.List())
	assert.True(t, s.Contains("a.com"))
	assert.False(t, s.Contains("A.com"))

	list := s.List()
	list[0] = "mutated"
	assert.True(t, s.Contains("a.com"))
	assert.Equal(t, "a.com", s.List()[0])
}
