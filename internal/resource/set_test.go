package resource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptExt(exts ...string) AcceptFunc {
	return func(name string) (string, bool) {
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				return ext, true
			}
		}
		return "", false
	}
}

func names(resources []*Resource) []string {
	var out []string
	for _, r := range resources {
		out = append(out, r.Name)
	}
	return out
}

func TestSet_Resolve(t *testing.T) {
	set := &Set{
		FS: fstest.MapFS{
			"routes/a.js":        {Data: []byte("from('direct:a')")},
			"routes/b.lua":       {Data: []byte("from('direct:b')")},
			"routes/notes.txt":   {Data: []byte("ignored")},
			"routes/nested/c.js": {Data: []byte("from('direct:c')")},
		},
		Accept: acceptExt(".js", ".lua"),
	}

	got, err := set.Resolve(context.Background(), []string{"routes/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"routes/a.js", "routes/b.lua"}, names(got))
	assert.Equal(t, ".js", got[0].Extension)
	assert.Equal(t, "routes/*", got[0].Location)

	src, err := got[0].ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "from('direct:a')", string(src))
}

func TestSet_Resolve_OverlappingLocations(t *testing.T) {
	set := &Set{
		FS:     fstest.MapFS{"routes/a.js": {Data: []byte("x")}},
		Accept: acceptExt(".js"),
	}

	got, err := set.Resolve(context.Background(), []string{"routes/*.js", "routes/**"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Name, got[1].Name)
	assert.NotSame(t, got[0], got[1])
}

func TestSet_Resolve_BadPattern(t *testing.T) {
	set := &Set{FS: fstest.MapFS{}}

	_, err := set.Resolve(context.Background(), []string{"routes/*.js", "routes/[z-"})
	var discoveryErr *DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.Equal(t, "routes/[z-", discoveryErr.Location)
}

type faultyFS struct{ fstest.MapFS }

func (f faultyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return nil, errors.New("disk on fire")
}

func TestSet_Resolve_ReadFault(t *testing.T) {
	set := &Set{FS: faultyFS{fstest.MapFS{"routes/a.js": {Data: []byte("x")}}}}

	_, err := set.Resolve(context.Background(), []string{"routes/*.js"})
	var discoveryErr *DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestSet_Resolve_OSFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.js"), []byte("b"), 0o644))

	set := &Set{Accept: acceptExt(".js")}

	got, err := set.Resolve(context.Background(), []string{"file:" + dir})
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{filepath.ToSlash(filepath.Join(dir, "a.js")), filepath.ToSlash(filepath.Join(dir, "sub", "b.js"))},
		names(got))

	got, err = set.Resolve(context.Background(), []string{filepath.Join(dir, "**", "*.js")})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResource_OpenOnce(t *testing.T) {
	r := FromBytes("routes/a.js", []byte("src"))
	assert.Equal(t, ".js", r.Extension)
	assert.Equal(t, "a.js", r.Base())

	rc, err := r.Open()
	require.NoError(t, err)
	src, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "src", string(src))

	_, err = r.Open()
	assert.ErrorIs(t, err, ErrConsumed)
	_, err = r.ReadAll()
	assert.ErrorIs(t, err, ErrConsumed)
}
