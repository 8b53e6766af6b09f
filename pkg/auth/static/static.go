// Package static provides the placeholder credential verifier: any token
// carrying a configured prefix maps to a fixed demo principal. This is a
// development policy, not a security design; it exists so the demo
// deployment works end to end and is swappable for the apikey or jwt
// verifiers without touching callers.
package static

import (
	"context"
	"strings"

	"github.com/smarteros/mcp-router/pkg/auth"
)

// Verifier accepts tokens by prefix and maps them to one principal.
type Verifier struct {
	// Prefix is the accepted token prefix. Default "sk_test_".
	Prefix string

	// PrincipalID is the principal every accepted token maps to.
	// Default "user_demo".
	PrincipalID string
}

var _ auth.Verifier = (*Verifier)(nil)

// New creates a static verifier with the demo defaults.
func New() *Verifier {
	return &Verifier{}
}

// Verify accepts any token starting with the configured prefix and
// abstains on everything else so other verifiers in the chain can vote.
func (v *Verifier) Verify(_ context.Context, token string) auth.VerifyResult {
	prefix := v.Prefix
	if prefix == "" {
		prefix = "sk_test_"
	}

	if !strings.HasPrefix(token, prefix) {
		return auth.VerifyResult{Decision: auth.Abstain}
	}

	principal := v.PrincipalID
	if principal == "" {
		principal = "user_demo"
	}
	return auth.VerifyResult{
		Decision:  auth.Yes,
		Principal: auth.Principal{ID: principal},
	}
}
