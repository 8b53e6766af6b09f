package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/tenant"
)

// failingResolver always returns the configured error.
type failingResolver struct {
	err error
}

func (f *failingResolver) Resolve(_ context.Context, _, _ string) (api.Tenant, error) {
	return api.Tenant{}, f.err
}

func yesChain(principal Principal) *VerifierChain {
	return &VerifierChain{
		Verifiers:       []Verifier{&mockVerifier{result: VerifyResult{Decision: Yes, Principal: principal}}},
		DefaultDecision: No,
	}
}

func TestAuthorize_Success(t *testing.T) {
	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_demo"}),
		Tenants: &tenant.StaticResolver{},
	}

	ac, err := authz.Authorize(context.Background(), "sk_test_demo", "99.888.777-6")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ac.PrincipalID != "user_demo" {
		t.Errorf("PrincipalID = %q, want user_demo", ac.PrincipalID)
	}
	if ac.Tenant.RUT != "99.888.777-6" {
		t.Errorf("Tenant.RUT = %q, want hint", ac.Tenant.RUT)
	}
	if ac.Token != "sk_test_demo" {
		t.Errorf("Token not retained on context")
	}
}

func TestAuthorize_InvalidToken(t *testing.T) {
	authz := &Authorizer{
		Chain:   &VerifierChain{DefaultDecision: No},
		Tenants: &tenant.StaticResolver{},
	}

	_, err := authz.Authorize(context.Background(), "garbage", "")
	if err == nil {
		t.Fatal("Authorize succeeded, want invalid_credential")
	}
	if err.Type != api.ErrorTypeInvalidCredential {
		t.Errorf("Type = %q, want invalid_credential", err.Type)
	}
	if err.Code != "invalid_token" {
		t.Errorf("Code = %q, want invalid_token", err.Code)
	}
}

func TestAuthorize_EmptyToken(t *testing.T) {
	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_demo"}),
		Tenants: &tenant.StaticResolver{},
	}

	_, err := authz.Authorize(context.Background(), "", "")
	if err == nil || err.Type != api.ErrorTypeInvalidCredential {
		t.Errorf("err = %v, want invalid_credential", err)
	}
}

func TestAuthorize_MissingIdentity(t *testing.T) {
	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_demo"}),
		Tenants: &failingResolver{err: tenant.ErrMissingIdentity},
	}

	_, err := authz.Authorize(context.Background(), "sk_test_demo", "")
	if err == nil || err.Type != api.ErrorTypeMissingIdentity {
		t.Errorf("err = %v, want missing_identity", err)
	}
}

func TestAuthorize_TenantNotFound(t *testing.T) {
	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_demo"}),
		Tenants: &failingResolver{err: tenant.ErrNotFound},
	}

	_, err := authz.Authorize(context.Background(), "sk_test_demo", "")
	if err == nil || err.Type != api.ErrorTypeTenantNotFound {
		t.Errorf("err = %v, want tenant_not_found", err)
	}
}

func TestAuthorize_TenantStoreDown(t *testing.T) {
	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_demo"}),
		Tenants: &failingResolver{err: fmt.Errorf("%w: dial refused", tenant.ErrUpstream)},
	}

	_, err := authz.Authorize(context.Background(), "sk_test_demo", "")
	if err == nil || err.Type != api.ErrorTypeUpstreamUnavailable {
		t.Errorf("err = %v, want upstream_unavailable", err)
	}
}

func TestAuthorize_VerifierUpstreamDown(t *testing.T) {
	chain := &VerifierChain{
		Verifiers: []Verifier{&mockVerifier{result: VerifyResult{
			Decision: No,
			Err:      fmt.Errorf("%w: jwks fetch failed", ErrUpstream),
		}}},
		DefaultDecision: No,
	}
	authz := &Authorizer{Chain: chain, Tenants: &tenant.StaticResolver{}}

	_, err := authz.Authorize(context.Background(), "some.jwt.token", "")
	if err == nil || err.Type != api.ErrorTypeUpstreamUnavailable {
		t.Errorf("err = %v, want upstream_unavailable", err)
	}
}

func TestAuthorize_CredentialTenantBindingUsedAsHint(t *testing.T) {
	dir := tenant.NewDirectory()
	dir.Add(api.Tenant{ID: "t1", RUT: "11.111.111-1"})

	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_a", TenantRUT: "11.111.111-1"}),
		Tenants: dir,
	}

	ac, err := authz.Authorize(context.Background(), "sk-live-key", "")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ac.Tenant.ID != "t1" {
		t.Errorf("Tenant.ID = %q, want t1 via credential binding", ac.Tenant.ID)
	}
}

func TestAuthorize_RequestHintWinsOverBinding(t *testing.T) {
	dir := tenant.NewDirectory()
	dir.Add(api.Tenant{ID: "t1", RUT: "11.111.111-1"})
	dir.Add(api.Tenant{ID: "t2", RUT: "22.222.222-2"})

	authz := &Authorizer{
		Chain:   yesChain(Principal{ID: "user_a", TenantRUT: "11.111.111-1"}),
		Tenants: dir,
	}

	ac, err := authz.Authorize(context.Background(), "sk-live-key", "22.222.222-2")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ac.Tenant.ID != "t2" {
		t.Errorf("Tenant.ID = %q, want t2 (request hint wins)", ac.Tenant.ID)
	}
}

func TestAuthContext_RoundTrip(t *testing.T) {
	ac := &api.AuthContext{PrincipalID: "user_demo"}
	ctx := SetAuthContext(context.Background(), ac)

	if got := AuthContextFrom(ctx); got != ac {
		t.Errorf("AuthContextFrom = %v, want the stored context", got)
	}
	if got := AuthContextFrom(context.Background()); got != nil {
		t.Errorf("AuthContextFrom on empty ctx = %v, want nil", got)
	}
}
