package aggregate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.NotEmpty(t, sources)

	var allow int
	seen := make(map[string]bool)
	for _, s := range sources {
		assert.True(t, strings.HasPrefix(s.URL, "https://"), s.URL)
		assert.NotNil(t, s.Kind, s.Name)
		assert.False(t, seen[s.URL], "duplicate %s", s.URL)
		seen[s.URL] = true
		if s.Role == RoleAllow {
			allow++
		}
	}
	assert.Equal(t, 1, allow)
}

func TestParseSources(t *testing.T) {
	in := `
sources:
  - name: fakefilter
    url: https://example.test/data.txt
  - url: https://example.test/allow.conf
    role: allow
  - name: laravel
    url: https://example.test/domains.json
    kind: json
  - name: wrapped
    url: https://example.test/wrapped.json
    kind: json
    key: domains
  - name: mx
    url: https://example.test/mx.csv
    kind: csv
    column: 1
`
	got, err := ParseSources(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, SourceDescriptor{Name: "fakefilter", URL: "https://example.test/data.txt", Role: RoleBlock, Kind: Lines{}}, got[0])
	assert.Equal(t, "https://example.test/allow.conf", got[1].Name)
	assert.Equal(t, RoleAllow, got[1].Role)
	assert.Equal(t, JSONPath{Key: "."}, got[2].Kind)
	assert.Equal(t, JSONPath{Key: "domains"}, got[3].Kind)
	assert.Equal(t, CSVColumn{Index: 1}, got[4].Kind)
}

func TestParseSources_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing url":    "sources:\n  - name: x\n",
		"bad role":       "sources:\n  - url: https://a.test\n    role: maybe\n",
		"bad kind":       "sources:\n  - url: https://a.test\n    kind: xml\n",
		"csv no column":  "sources:\n  - url: https://a.test\n    kind: csv\n",
		"negative col":   "sources:\n  - url: https://a.test\n    kind: csv\n    column: -1\n",
		"unknown field":  "sources:\n  - url: https://a.test\n    colour: red\n",
		"not a document": "sources: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSources(strings.NewReader(in))
			require.Error(t, err)
		})
	}
}

func TestLoadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - url: https://a.test/list.txt\n"), 0o644))

	got, err := LoadSourcesFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = LoadSourcesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "block", RoleBlock.String())
	assert.Equal(t, "allow", RoleAllow.String())
}
