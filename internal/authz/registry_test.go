package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	codenames map[string]struct{}
}

func (s stubCatalog) Codenames(ctx context.Context) (map[string]struct{}, error) {
	return s.codenames, nil
}

func fullCatalogFor(resources ...string) stubCatalog {
	codenames := make(map[string]struct{})
	for _, resource := range resources {
		for _, action := range Actions {
			codenames[Codename(action, resource)] = struct{}{}
		}
	}
	return stubCatalog{codenames: codenames}
}

func TestRegistryValidateOK(t *testing.T) {
	registry := NewRegistry()
	registry.register("orders")
	registry.register("cart")

	err := registry.Validate(context.Background(), fullCatalogFor("orders", "cart"))
	assert.NoError(t, err)
}

func TestRegistryValidateMissingCodename(t *testing.T) {
	registry := NewRegistry()
	registry.register("orders")
	registry.register("bogus")

	err := registry.Validate(context.Background(), fullCatalogFor("orders"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view_bogus")
}

func TestRegistryNormalizesCase(t *testing.T) {
	registry := NewRegistry()
	registry.register("Orders")

	assert.Equal(t, []string{"orders"}, registry.Resources())
	err := registry.Validate(context.Background(), fullCatalogFor("orders"))
	assert.NoError(t, err)
}

func TestMiddlewareRequireRegistersResource(t *testing.T) {
	registry := NewRegistry()
	m := Middleware{Gate: NewGate(newStubSource()), Registry: registry}

	// Mounting the middleware is what records the gated resource.
	_ = m.Require("cart")

	assert.Equal(t, []string{"cart"}, registry.Resources())
}
