// Package api defines the wire-level data shapes of the mcp-router
// gateway: the event envelope exchanged at the boundary (EventRequest,
// EventResponse), the identity types produced by authorization (Tenant,
// AuthContext), and the structured error taxonomy.
//
// Every failure crossing the boundary is an *Error carrying a stable,
// machine-readable type and code so callers can branch programmatically
// instead of parsing free-text messages.
package api
