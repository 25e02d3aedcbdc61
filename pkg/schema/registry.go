package schema

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// Entry is a registered schema. Entries are immutable once published.
type Entry struct {
	Key          string
	Schema       *Schema
	Arrow        *arrow.Schema
	Fingerprint  string
	Version      int
	RegisteredAt time.Time
}

// Registry maps resource types to schemas.
//
// Registration is serialized by a mutex and publishes a new copy of the
// entry map; lookups read the current copy without locking. Registering a
// key that already exists replaces its entry (the version is bumped), while
// re-registering an identical schema leaves the existing entry in place.
type Registry struct {
	mu       sync.Mutex
	entries  atomic.Pointer[map[string]*Entry]
	logger   *zap.Logger
	onChange []func(old, new *Entry)
	compat   CompatibilityMode
}

// NewRegistry creates an empty schema registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{logger: logger, compat: CompatibilityNone}
	empty := make(map[string]*Entry)
	r.entries.Store(&empty)
	return r
}

// NewRegistryFromSet creates a registry holding every schema in set, keyed
// by resource type. It fails on the first invalid description.
func NewRegistryFromSet(set map[string]string, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := r.Register(k, set[k]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register parses description and stores it under key
func (r *Registry) Register(key, description string) (*Entry, error) {
	s, err := Parse(key, description)
	if err != nil {
		return nil, err
	}
	return r.RegisterSchema(key, s)
}

// RegisterSchema stores an already structured schema under key
func (r *Registry) RegisterSchema(key string, s *Schema) (*Entry, error) {
	if key == "" {
		return nil, errors.New(errors.ErrorTypeSchemaParse, "schema key is empty")
	}
	if s == nil || len(s.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeSchemaParse, "schema has no columns").
			WithDetail("key", key)
	}

	arrowSchema, err := s.ToArrow()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSchemaParse, "schema cannot be represented as arrow").
			WithDetail("key", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.entries.Load()
	fingerprint := s.Fingerprint()

	old := current[key]
	if old != nil && old.Fingerprint == fingerprint {
		r.logger.Debug("schema already registered",
			zap.String("key", key),
			zap.Int("version", old.Version))
		return old, nil
	}

	var changes []string
	if old != nil {
		if err := CheckCompatibility(old.Schema, s, r.compat); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeSchemaParse, "schema replacement rejected").
				WithDetail("key", key)
		}
		for _, c := range Diff(old.Schema, s) {
			changes = append(changes, c.String())
		}
	}

	entry := &Entry{
		Key:          key,
		Schema:       s,
		Arrow:        arrowSchema,
		Fingerprint:  fingerprint,
		Version:      1,
		RegisteredAt: time.Now(),
	}
	if old != nil {
		entry.Version = old.Version + 1
	}

	next := make(map[string]*Entry, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[key] = entry
	r.entries.Store(&next)

	for _, hook := range r.onChange {
		hook(old, entry)
	}

	r.logger.Info("schema registered",
		zap.String("key", key),
		zap.Int("version", entry.Version),
		zap.Int("columns", len(s.Columns)),
		zap.String("fingerprint", fingerprint),
		zap.Strings("changes", changes))

	return entry, nil
}

// Get retrieves the schema registered under key
func (r *Registry) Get(key string) (*Entry, error) {
	entry, ok := (*r.entries.Load())[key]
	if !ok {
		return nil, errors.New(errors.ErrorTypeSchemaNotFound, "target schema is not found").
			WithDetail("key", key)
	}
	return entry, nil
}

// Keys returns the registered keys in sorted order
func (r *Registry) Keys() []string {
	current := *r.entries.Load()
	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered schemas
func (r *Registry) Len() int {
	return len(*r.entries.Load())
}

// SetCompatibility sets which replacements of an existing key are accepted.
// New keys are always accepted.
func (r *Registry) SetCompatibility(mode CompatibilityMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compat = mode
}

// OnChange registers a callback invoked, under the registration lock, after
// an entry is added or replaced. old is nil for a first registration.
func (r *Registry) OnChange(callback func(old, new *Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, callback)
}
