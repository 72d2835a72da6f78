// Package games keeps the listener factories a session builds its games from.
package games

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fadedpez/gamemaster/internal/types"
	"github.com/fadedpez/gamemaster/pkg/catalog"
	"github.com/fadedpez/gamemaster/pkg/listener"
)

// Registry maps listener types to their factories
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a new listener registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers the factory of a listener type
func (r *Registry) Register(listenerType string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[listenerType]; exists {
		return types.NewGameError(types.ErrInvalidConfiguration, fmt.Sprintf("Listener type %s is already registered", listenerType))
	}

	r.factories[listenerType] = factory
	return nil
}

// Factory returns the factory for a listener type
func (r *Registry) Factory(listenerType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[listenerType]
	if !exists {
		return nil, types.NewGameError(types.ErrListenerNotFound, fmt.Sprintf("Listener type %s not found", listenerType))
	}

	return factory, nil
}

// Build creates the listener a catalog entry describes
func (r *Registry) Build(env *Env, spec catalog.ListenerSpec) (*listener.Listener, error) {
	factory, err := r.Factory(spec.Type)
	if err != nil {
		return nil, err
	}
	l, err := factory(env, spec)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidConfiguration, fmt.Sprintf("building listener %s", spec.Name), err)
	}
	return l, nil
}

// BuildAll creates every listener of the catalog in order. Listeners that
// fail to build are reported in the returned error and skipped.
func (r *Registry) BuildAll(env *Env) ([]*listener.Listener, error) {
	var (
		built []*listener.Listener
		errs  []error
	)
	for _, spec := range env.Catalog.Listeners {
		l, err := r.Build(env, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		built = append(built, l)
	}
	if len(errs) > 0 {
		return built, errors.Join(errs...)
	}
	return built, nil
}

// Types returns the registered listener types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
