package auth

import (
	"context"
	"errors"
)

// Decision represents the three possible outcomes of credential
// verification.
type Decision int

const (
	// Yes means the credential is valid. The chain stops and the
	// principal is used.
	Yes Decision = iota

	// No means a credential is present but invalid. The chain stops and
	// the request is rejected.
	No

	// Abstain means this verifier cannot handle the credential shape.
	// The chain continues to the next verifier.
	Abstain
)

// Principal is the authenticated caller identity returned by a Verifier.
type Principal struct {
	// ID is the stable principal identifier (required, non-empty on Yes).
	ID string

	// TenantRUT optionally binds the credential to a tenant natural key.
	// Used as the resolution hint when the request carries none.
	TenantRUT string
}

// VerifyResult carries the outcome of a verification attempt.
type VerifyResult struct {
	Decision  Decision
	Principal Principal // populated only when Decision == Yes
	Err       error     // populated only when Decision == No
}

// Verifier examines a raw bearer token and returns a three-outcome vote.
// The token arrives with the "Bearer " prefix already stripped and may
// be empty when the Authorization header was absent.
type Verifier interface {
	Verify(ctx context.Context, token string) VerifyResult
}

// Sentinel errors.
var (
	// ErrInvalidCredential marks a token that is empty, malformed, or
	// rejected by the identity provider.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUpstream wraps identity-provider transport failures, distinct
	// from a definitive rejection.
	ErrUpstream = errors.New("identity provider unavailable")
)

// VerifierChain evaluates verifiers in order using three-outcome voting.
type VerifierChain struct {
	// Verifiers are evaluated left to right.
	Verifiers []Verifier

	// DefaultDecision is used when all verifiers abstain. Production
	// deployments use No; Yes is only for development setups that
	// accept anonymous callers.
	DefaultDecision Decision
}

// Verify runs the chain. Stops on the first Yes or No. An empty token is
// rejected up front: without a credential there is nothing to vote on.
// If all verifiers abstain, the default decision applies.
func (c *VerifierChain) Verify(ctx context.Context, token string) VerifyResult {
	if token == "" {
		return VerifyResult{Decision: No, Err: ErrInvalidCredential}
	}

	for _, v := range c.Verifiers {
		result := v.Verify(ctx, token)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.DefaultDecision == Yes {
		return VerifyResult{
			Decision:  Yes,
			Principal: Principal{ID: "anonymous"},
		}
	}

	return VerifyResult{Decision: No, Err: ErrInvalidCredential}
}
