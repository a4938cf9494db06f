package fsutil

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"routes/a.js":          {Data: []byte("a")},
		"routes/b.lua":         {Data: []byte("b")},
		"routes/nested/c.js":   {Data: []byte("c")},
		"routes/nested/d.yaml": {Data: []byte("d")},
		"other/e.js":           {Data: []byte("e")},
	}
}

func TestGlob(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"routes/*.js", []string{"routes/a.js"}},
		{"routes/**/*.js", []string{"routes/a.js", "routes/nested/c.js"}},
		{"routes", []string{"routes/a.js", "routes/b.lua", "routes/nested/c.js", "routes/nested/d.yaml"}},
		{"other/e.js", []string{"other/e.js"}},
		{"missing/*.js", nil},
		{"missing.js", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Glob(testFS(), tt.pattern)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestGlob_BadPattern(t *testing.T) {
	_, err := Glob(testFS(), "routes/[a-")
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestFindFiles(t *testing.T) {
	files, err := FindFiles(testFS(), "routes", func(name string) bool { return name != "b.lua" })
	require.NoError(t, err)
	assert.Equal(t, []string{"routes/a.js", "routes/nested/c.js", "routes/nested/d.yaml"}, files)

	assert.Panics(t, func() { _, _ = FindFiles(testFS(), ".", nil) })
}
