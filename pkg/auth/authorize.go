package auth

import (
	"context"
	"errors"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/observability"
	"github.com/smarteros/mcp-router/pkg/tenant"
)

// Authorizer composes credential verification and tenant resolution into
// the single authorization step that runs once per request, before
// dispatch. Either sub-step failing fails the whole request.
type Authorizer struct {
	Chain   *VerifierChain
	Tenants tenant.Resolver
}

// Authorize verifies the bearer token, resolves the tenant (using the
// request's tenant hint when present, falling back to the credential's
// own tenant binding), and builds the AuthContext. All failures are
// *api.Error values with stable reason codes; upstream outages map to
// upstream_unavailable rather than an auth rejection.
//
// The returned AuthContext is complete or nil: a handler never sees a
// partially built context.
func (a *Authorizer) Authorize(ctx context.Context, token, hint string) (*api.AuthContext, *api.Error) {
	result := a.Chain.Verify(ctx, token)
	if result.Decision != Yes {
		if result.Err != nil && errors.Is(result.Err, ErrUpstream) {
			return nil, api.NewUpstreamUnavailableError("identity provider unavailable")
		}
		return nil, api.NewInvalidCredentialError()
	}
	if result.Principal.ID == "" {
		// A verifier voted Yes without a principal. Treat as an internal
		// fault, not a caller error.
		return nil, api.NewServerError("verifier returned empty principal")
	}

	if hint == "" {
		hint = result.Principal.TenantRUT
	}

	t, err := a.Tenants.Resolve(ctx, result.Principal.ID, hint)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrMissingIdentity):
			observability.TenantLookupsTotal.WithLabelValues("missing_identity").Inc()
			return nil, api.NewMissingIdentityError()
		case errors.Is(err, tenant.ErrNotFound):
			observability.TenantLookupsTotal.WithLabelValues("not_found").Inc()
			return nil, api.NewTenantNotFoundError()
		case errors.Is(err, tenant.ErrUpstream):
			observability.TenantLookupsTotal.WithLabelValues("upstream_error").Inc()
			return nil, api.NewUpstreamUnavailableError("tenant store unavailable")
		default:
			observability.TenantLookupsTotal.WithLabelValues("error").Inc()
			return nil, api.NewServerError("tenant resolution failed")
		}
	}
	observability.TenantLookupsTotal.WithLabelValues("ok").Inc()

	return &api.AuthContext{
		PrincipalID: result.Principal.ID,
		Tenant:      t,
		Token:       token,
	}, nil
}
