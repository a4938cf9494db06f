package resource

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/fsutil"
)

// DiscoveryError reports a malformed location or a read-level fault while
// resolving it. It aborts the whole pass.
type DiscoveryError struct {
	Location string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering %q: %v", e.Location, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// AcceptFunc decides whether a resource name is loadable and returns the
// extension it was accepted under.
type AcceptFunc func(name string) (extension string, ok bool)

// Set resolves location patterns into resources.
type Set struct {
	// FS is the filesystem patterns are resolved against. When nil, patterns
	// are interpreted as OS paths, absolute or relative to the working
	// directory.
	FS fs.FS
	// Accept filters discovered names. Names it rejects are dropped silently.
	Accept AcceptFunc
}

// Resolve expands every location in order. Overlapping locations yield one
// resource per match; nothing is deduplicated. Stream opening is deferred to
// the consumer.
func (s *Set) Resolve(ctx context.Context, locations []string) ([]*Resource, error) {
	logger := ctxlog.FromContext(ctx)

	var out []*Resource
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return nil, &DiscoveryError{Location: location, Err: err}
		}

		fsys, prefix, pattern := s.root(location)
		matches, err := fsutil.Glob(fsys, pattern)
		if err != nil {
			return nil, &DiscoveryError{Location: location, Err: err}
		}
		logger.Debug("Resolved location.", "location", location, "matches", len(matches))

		for _, match := range matches {
			name := match
			if prefix != "" {
				name = path.Join(prefix, match)
			}

			ext, ok := s.accept(name)
			if !ok {
				logger.Debug("Ignoring resource without a registered extension.", "resource", name)
				continue
			}
			out = append(out, New(name, ext, location, opener(fsys, match)))
		}
	}
	return out, nil
}

func (s *Set) accept(name string) (string, bool) {
	if s.Accept == nil {
		ext := path.Ext(name)
		return ext, ext != ""
	}
	return s.Accept(name)
}

// root picks the filesystem a location is globbed against, the prefix to
// re-attach to matches and the pattern relative to that filesystem.
func (s *Set) root(location string) (fs.FS, string, string) {
	location = strings.TrimPrefix(location, "file:")
	if s.FS != nil {
		return s.FS, "", strings.TrimPrefix(location, "/")
	}

	base, pattern := doublestar.SplitPattern(path.Clean(toSlash(location)))
	if base == "." {
		base = ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	return os.DirFS(dir), base, pattern
}

func opener(fsys fs.FS, name string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fsys.Open(name)
	}
}

func toSlash(p string) string {
	if os.PathSeparator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(os.PathSeparator), "/")
}
