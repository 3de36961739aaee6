package oracle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// Output is the read-only result object of a completed run
type Output interface {
	Value(name string) (float64, error)
}

// Values is a map-backed Output
type Values map[string]float64

// Value returns the named field
func (v Values) Value(name string) (float64, error) {
	x, ok := v[name]
	if !ok {
		return 0, fmt.Errorf("output field %q not found", name)
	}
	return x, nil
}

// Runtime is a stateful simulation handle.
// Setup writes positional inputs, Run blocks until the model finishes,
// Output exposes the results of the last run and Reset restores the initial state.
type Runtime interface {
	// Arity is the number of positional inputs Setup expects; zero means unchecked
	Arity() int
	ConfigureStatic(ctx context.Context, params map[string]float64) error
	Setup(ctx context.Context, inputs []float64) error
	Run(ctx context.Context) error
	Output(ctx context.Context) (Output, error)
	Reset(ctx context.Context) error
	Close() error
}

// Factory starts or connects a runtime for the given oracle configuration
type Factory func(ctx context.Context, cfg config.Oracle) (Runtime, error)

// Registry maps oracle kinds to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the remote factory registered
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("remote", RemoteFactory)
	return r
}

// Register adds or replaces the factory for kind
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Lookup returns the factory for kind
func (r *Registry) Lookup(kind string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	if !ok {
		return nil, models.ConfigErrorf("oracle.kind", "no runtime registered for %q", kind)
	}
	return f, nil
}

// Kinds lists registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
