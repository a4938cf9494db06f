package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/ctxlog"
)

// ErrBackendUnavailable is returned when no enabled backend registered for an
// extension reports itself available.
var ErrBackendUnavailable = errors.New("no available backend")

// Module is the interface every backend module implements to be registered.
type Module interface {
	Register(r *Registry)
}

// Descriptor declares one backend for one extension.
type Descriptor struct {
	// ID identifies the backend, e.g. "goja". A backend may register under
	// several extensions with the same ID; the pair must be unique.
	ID string
	// Extension is the file suffix the backend handles, including the dot.
	Extension string
	// Priority orders backends competing for the same extension; higher wins.
	Priority int
	// Available probes whether the backend can run in this process. A nil
	// probe means always available.
	Available func() bool
	Backend   backend.Backend
}

// Selection is the backend chosen for an extension.
type Selection struct {
	ID      string
	Backend backend.Backend
}

type entry struct {
	Descriptor
	order int
	probe func() bool
}

// Registry holds the backend descriptors of a single application instance.
type Registry struct {
	mu         sync.Mutex
	entries    []*entry
	byKey      map[string]*entry
	disabled   map[string]bool
	priorities map[string]int
	selected   map[string]*entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithDisabled excludes the given backend IDs from selection.
func WithDisabled(ids ...string) Option {
	return func(r *Registry) {
		for _, id := range ids {
			r.disabled[id] = true
		}
	}
}

// WithPriority overrides the declared priority of a backend.
func WithPriority(id string, priority int) Option {
	return func(r *Registry) {
		r.priorities[id] = priority
	}
}

// New creates and initializes a new Registry instance.
func New(opts ...Option) *Registry {
	r := &Registry{
		byKey:      make(map[string]*entry),
		disabled:   make(map[string]bool),
		priorities: make(map[string]int),
		selected:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a backend descriptor. It panics on an invalid descriptor or a
// duplicate ID and extension pair, both of which are programming errors in a
// module.
func (r *Registry) Register(d Descriptor) {
	if err := validateDescriptor(d); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	d.Extension = normalizeExtension(d.Extension)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := d.ID + " " + d.Extension
	if _, exists := r.byKey[key]; exists {
		panic(fmt.Sprintf("registry: backend %q registered twice for %q", d.ID, d.Extension))
	}

	probe := d.Available
	if probe == nil {
		probe = func() bool { return true }
	}
	e := &entry{
		Descriptor: d,
		order:      len(r.entries),
		probe:      sync.OnceValue(probe),
	}
	if p, ok := r.priorities[d.ID]; ok {
		e.Priority = p
	}
	r.entries = append(r.entries, e)
	r.byKey[key] = e
	// A new descriptor may outrank a previous selection.
	delete(r.selected, d.Extension)
}

// Extensions returns the distinct registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exts []string
	for _, e := range r.entries {
		if !slices.Contains(exts, e.Extension) {
			exts = append(exts, e.Extension)
		}
	}
	slices.Sort(exts)
	return exts
}

// Match returns the longest registered extension name ends with. Matching is
// case-insensitive.
func (r *Registry) Match(name string) (string, bool) {
	lower := strings.ToLower(name)
	best := ""
	for _, ext := range r.Extensions() {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	return best, best != ""
}

// Select returns the backend for ext: the enabled, available descriptor with
// the highest priority, ties going to the earliest registration. The answer
// is memoized for the life of the registry.
func (r *Registry) Select(ctx context.Context, ext string) (Selection, error) {
	ext = normalizeExtension(ext)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.selected[ext]; ok {
		return Selection{ID: e.ID, Backend: e.Backend}, nil
	}

	logger := ctxlog.FromContext(ctx)
	for _, e := range r.candidates(ext) {
		if r.disabled[e.ID] {
			logger.Debug("Backend disabled by configuration.", "backend", e.ID, "extension", ext)
			continue
		}
		if !e.probe() {
			logger.Debug("Backend unavailable.", "backend", e.ID, "extension", ext)
			continue
		}
		logger.Debug("Selected backend.", "backend", e.ID, "extension", ext, "priority", e.Priority)
		r.selected[ext] = e
		return Selection{ID: e.ID, Backend: e.Backend}, nil
	}
	return Selection{}, fmt.Errorf("%w for %q", ErrBackendUnavailable, ext)
}

// Resolve selects a backend for every registered extension up front and logs
// the outcome. Extensions without an available backend are omitted.
func (r *Registry) Resolve(ctx context.Context) map[string]Selection {
	logger := ctxlog.FromContext(ctx)

	out := make(map[string]Selection)
	for _, ext := range r.Extensions() {
		sel, err := r.Select(ctx, ext)
		if err != nil {
			logger.Warn("No backend available.", "extension", ext)
			continue
		}
		logger.Info("Backend selected.", "extension", ext, "backend", sel.ID)
		out[ext] = sel
	}
	return out
}

// candidates returns the descriptors for ext in selection order.
func (r *Registry) candidates(ext string) []*entry {
	var out []*entry
	for _, e := range r.entries {
		if e.Extension == ext {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b *entry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})
	return out
}

// Status describes one registered backend for reporting.
type Status struct {
	ID        string `json:"id"`
	Extension string `json:"extension"`
	Priority  int    `json:"priority"`
	Disabled  bool   `json:"disabled"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

// Statuses probes every backend and reports it, ordered by extension and
// then by selection order.
func (r *Registry) Statuses(ctx context.Context) []Status {
	var out []Status
	for _, ext := range r.Extensions() {
		sel, err := r.Select(ctx, ext)

		r.mu.Lock()
		cands := r.candidates(ext)
		r.mu.Unlock()

		for _, e := range cands {
			out = append(out, Status{
				ID:        e.ID,
				Extension: e.Extension,
				Priority:  e.Priority,
				Disabled:  r.disabled[e.ID],
				Available: e.probe(),
				Selected:  err == nil && sel.ID == e.ID,
			})
		}
	}
	return out
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
