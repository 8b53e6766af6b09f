// Package apikey provides a credential verifier that validates bearer
// tokens against a static key store using SHA-256 hashing and
// constant-time comparison. Each key maps to a principal and optionally
// binds the credential to a tenant natural key.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/smarteros/mcp-router/pkg/auth"
)

// keyEntry maps a key hash to a principal.
type keyEntry struct {
	keyHash   [32]byte
	principal auth.Principal
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key       string
	Principal auth.Principal
}

// Verifier validates bearer tokens against a static key store.
type Verifier struct {
	keys []keyEntry
}

var _ auth.Verifier = (*Verifier)(nil)

// New creates an API key verifier from a list of raw keys. Keys are
// hashed immediately; plaintext keys are not stored.
func New(entries []RawKeyEntry) *Verifier {
	v := &Verifier{}
	for _, e := range entries {
		v.keys = append(v.keys, keyEntry{
			keyHash:   sha256.Sum256([]byte(e.Key)),
			principal: e.Principal,
		})
	}
	return v
}

// Verify hashes the token and compares it against the stored hashes.
// A known key votes Yes; an unknown token abstains so other verifiers
// in the chain (e.g. JWT) can still claim it.
func (v *Verifier) Verify(_ context.Context, token string) auth.VerifyResult {
	tokenHash := sha256.Sum256([]byte(token))

	for _, entry := range v.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.keyHash[:]) == 1 {
			return auth.VerifyResult{Decision: auth.Yes, Principal: entry.principal}
		}
	}

	return auth.VerifyResult{Decision: auth.Abstain}
}
