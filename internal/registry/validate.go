package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

func validateDescriptor(d Descriptor) error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return errors.New("backend id must not be empty")
	case normalizeExtension(d.Extension) == "" || normalizeExtension(d.Extension) == ".":
		return fmt.Errorf("backend %q: extension must not be empty", d.ID)
	case d.Backend == nil:
		return fmt.Errorf("backend %q: implementation must not be nil", d.ID)
	}
	return nil
}

// Validate checks that every backend named by configuration options exists.
// It is called after all modules have registered.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(r.entries))
	for _, e := range r.entries {
		known[e.ID] = true
	}

	var unknown []string
	for id := range r.disabled {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	for id := range r.priorities {
		if !known[id] && !slices.Contains(unknown, id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("configuration references unknown backends: %s", strings.Join(unknown, ", "))
}
