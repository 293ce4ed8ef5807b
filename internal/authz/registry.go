package authz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CatalogSource lists every permission codename the store recognizes.
type CatalogSource interface {
	Codenames(ctx context.Context) (map[string]struct{}, error)
}

// Registry records every resource name a gated route was mounted with, so
// startup can verify each maps to real permission codenames instead of
// failing closed silently at request time.
type Registry struct {
	mu        sync.Mutex
	resources map[string]struct{}
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]struct{})}
}

func (r *Registry) register(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[strings.ToLower(resource)] = struct{}{}
}

// Resources returns the registered resource names, sorted.
func (r *Registry) Resources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.resources))
	for name := range r.resources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every action on every registered resource has a
// codename in the permission catalog. Call after mounting routes; a failure
// means a route would deny every request against it.
func (r *Registry) Validate(ctx context.Context, catalog CatalogSource) error {
	known, err := catalog.Codenames(ctx)
	if err != nil {
		return fmt.Errorf("authz: load permission catalog: %w", err)
	}

	var missing []string
	for _, resource := range r.Resources() {
		for _, action := range Actions {
			codename := Codename(action, resource)
			if _, ok := known[codename]; !ok {
				missing = append(missing, codename)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("authz: gated routes reference unknown codenames: %s", strings.Join(missing, ", "))
	}
	return nil
}
