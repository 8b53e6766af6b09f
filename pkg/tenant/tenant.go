// Package tenant maps an authenticated principal (optionally
// disambiguated by a tenant hint from the request) to a fully populated
// Tenant record. The Resolver interface is the extensibility boundary:
// the demo StaticResolver, the in-memory Directory, and the Postgres
// store in the postgres subpackage all implement it, so production
// backends swap in without touching the authorizer.
package tenant

import (
	"context"
	"errors"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Sentinel errors for tenant resolution.
var (
	// ErrMissingIdentity is returned when neither a principal ID nor a
	// tenant hint is available to resolve from.
	ErrMissingIdentity = errors.New("no principal or tenant hint")

	// ErrNotFound is returned when the store has no record for the
	// given identity.
	ErrNotFound = errors.New("tenant not found")

	// ErrUpstream wraps transport-level store failures, distinct from
	// a definitive not-found answer.
	ErrUpstream = errors.New("tenant store unavailable")
)

// Resolver looks up the tenant serving a request. Either principalID or
// rut (the tenant hint) must be non-empty; implementations return
// ErrMissingIdentity when both are empty. A returned Tenant is always
// fully populated: non-empty ID and RUT, never partial.
type Resolver interface {
	Resolve(ctx context.Context, principalID, rut string) (api.Tenant, error)
}

// Demo returns the placeholder tenant the static resolver hands out.
// The RUT matches the reference demo fixture.
func Demo() api.Tenant {
	return api.Tenant{
		ID:   "tenant-demo",
		RUT:  "76.123.456-7",
		Plan: "pro",
		Features: map[string]any{
			"mcp": true,
			"n8n": true,
		},
		Limits: map[string]float64{
			"events_per_minute": 120,
		},
	}
}
