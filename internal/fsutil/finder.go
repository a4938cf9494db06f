// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is returned for syntactically invalid glob patterns.
var ErrBadPattern = doublestar.ErrBadPattern

// FindFiles recursively searches root within fsys for regular files whose
// base name satisfies match. Paths are returned in lexical walk order.
func FindFiles(fsys fs.FS, root string, match func(name string) bool) ([]string, error) {
	if match == nil {
		panic("match must not be nil")
	}

	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Glob expands a doublestar pattern ("routes/**/*.js") against fsys and
// returns the matching regular files. A pattern naming a directory expands
// to every file below it. I/O faults are reported rather than skipped.
func Glob(fsys fs.FS, pattern string) ([]string, error) {
	pattern = path.Clean(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}

	if !hasMeta(pattern) {
		info, err := fs.Stat(fsys, pattern)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return FindFiles(fsys, pattern, func(string) bool { return true })
		}
		return []string{pattern}, nil
	}

	return doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}
