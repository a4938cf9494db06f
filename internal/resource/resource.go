// Package resource discovers script resources from location patterns.
//
// A Set resolves an ordered list of doublestar patterns into Resources, each
// carrying the name used to route it to a backend. A Resource's byte stream
// is opened lazily and may be consumed exactly once.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
)

// ErrConsumed is returned when a resource stream is opened a second time.
var ErrConsumed = errors.New("resource already consumed")

// Resource is a named, readable unit of script source.
type Resource struct {
	// Name is the resolved path of the resource, used for logging and
	// extension matching.
	Name string
	// Extension is the registered extension Name matched.
	Extension string
	// Location is the pattern that produced the resource.
	Location string

	open     func() (io.ReadCloser, error)
	consumed bool
}

// New creates a resource whose stream is produced by open on first use.
func New(name, extension, location string, open func() (io.ReadCloser, error)) *Resource {
	return &Resource{
		Name:      name,
		Extension: extension,
		Location:  location,
		open:      open,
	}
}

// FromBytes creates an in-memory resource. The extension is the final
// suffix of name.
func FromBytes(name string, src []byte) *Resource {
	return New(name, path.Ext(name), "memory", func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(src)), nil
	})
}

// Base returns the last element of the resource name.
func (r *Resource) Base() string {
	return path.Base(r.Name)
}

// Open returns the resource stream. It succeeds at most once; the caller owns
// the returned stream and must close it.
func (r *Resource) Open() (io.ReadCloser, error) {
	if r.consumed {
		return nil, fmt.Errorf("%w: %s", ErrConsumed, r.Name)
	}
	r.consumed = true
	rc, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.Name, err)
	}
	return rc, nil
}

// ReadAll opens the stream, reads it fully and closes it.
func (r *Resource) ReadAll() ([]byte, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Name, err)
	}
	return src, nil
}
