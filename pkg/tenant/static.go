package tenant

import (
	"context"

	"github.com/smarteros/mcp-router/pkg/api"
)

// StaticResolver is the placeholder tenant lookup: it always returns its
// template tenant, taking the RUT from the request hint when one is
// provided. The not-found branch never triggers here; it is reserved for
// real backing stores. Swap in Directory or postgres.Store for anything
// beyond demos.
type StaticResolver struct {
	// Template is the tenant to hand out. Zero value means Demo().
	Template api.Tenant
}

var _ Resolver = (*StaticResolver)(nil)

// Resolve returns the template tenant. The hint overrides the natural
// key so callers see their own RUT echoed back.
func (s *StaticResolver) Resolve(_ context.Context, principalID, rut string) (api.Tenant, error) {
	if principalID == "" && rut == "" {
		return api.Tenant{}, ErrMissingIdentity
	}

	t := s.Template
	if t.ID == "" {
		t = Demo()
	}
	if rut != "" {
		t.RUT = rut
	}
	return t, nil
}
