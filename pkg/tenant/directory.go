package tenant

import (
	"context"
	"sync"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Directory is an in-memory tenant store for configuration-driven
// deployments and tests. Tenants are indexed by natural key and by the
// principals bound to them. Safe for concurrent use: writes are expected
// during startup, reads throughout the process lifetime.
type Directory struct {
	mu          sync.RWMutex
	byRUT       map[string]api.Tenant
	byPrincipal map[string]string // principal ID -> RUT
}

var _ Resolver = (*Directory)(nil)

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		byRUT:       make(map[string]api.Tenant),
		byPrincipal: make(map[string]string),
	}
}

// Add registers a tenant and binds the given principals to it.
// Re-adding a tenant with the same RUT overwrites the previous record.
func (d *Directory) Add(t api.Tenant, principals ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.byRUT[t.RUT] = t
	for _, p := range principals {
		d.byPrincipal[p] = t.RUT
	}
}

// Resolve looks up by hint first (the hint names the tenant directly),
// then by principal binding. Returns ErrNotFound when neither matches.
func (d *Directory) Resolve(_ context.Context, principalID, rut string) (api.Tenant, error) {
	if principalID == "" && rut == "" {
		return api.Tenant{}, ErrMissingIdentity
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if rut != "" {
		if t, ok := d.byRUT[rut]; ok {
			return t, nil
		}
		return api.Tenant{}, ErrNotFound
	}

	if key, ok := d.byPrincipal[principalID]; ok {
		if t, ok := d.byRUT[key]; ok {
			return t, nil
		}
	}
	return api.Tenant{}, ErrNotFound
}
