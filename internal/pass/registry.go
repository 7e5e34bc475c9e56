package pass

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/kingrea/nbtidy/internal/config"
)

// Factory constructs a pass from the loaded configuration.
type Factory func(*config.Config) (Pass, error)

// Registry maps pass ids to factories. It is filled once at startup and
// read by a single command run.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs factory under id.
func (r *Registry) Register(id string, factory Factory) error {
	switch {
	case id == "":
		return errors.New("pass: id is required")
	case factory == nil:
		return errors.Errorf("pass: factory is required for %s", id)
	}
	if _, taken := r.factories[id]; taken {
		return errors.Errorf("pass: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve builds the pass registered as id. A nil cfg means the built-in
// defaults. The built pass must describe itself under the same id.
func (r *Registry) Resolve(id string, cfg *config.Config) (Pass, error) {
	factory, ok := r.factories[id]
	if !ok {
		return nil, errors.Errorf("pass: unknown id %s (known: %s)", id, strings.Join(r.IDs(), ", "))
	}
	if cfg == nil {
		cfg = config.Default()
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "pass: build %s", id)
	}
	info := p.Info()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if info.ID != id {
		return nil, errors.Errorf("pass: %s factory built %s", id, info.ID)
	}
	return p, nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
