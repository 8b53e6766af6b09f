// Package auth turns an opaque bearer credential into an authorized
// request context.
//
// Credential verification uses a chain-of-responsibility pattern with
// three-outcome voting: each Verifier returns Yes (principal found),
// No (credential invalid), or Abstain (can't handle this credential
// shape). A configurable default voter decides when all verifiers
// abstain. The placeholder demo verifier (pkg/auth/static), hashed API
// keys (pkg/auth/apikey), and JWKS-validated JWTs (pkg/auth/jwt) all
// plug into the same interface, so swapping the demo policy for a
// production one never touches the Authorizer or the dispatcher.
//
// The Authorizer composes credential verification with tenant
// resolution into the single hard gate that runs before dispatch: no
// handler executes without a fully built AuthContext.
package auth
