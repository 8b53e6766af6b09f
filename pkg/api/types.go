package api

// EventRequest is the inbound event envelope posted to /mcp/route.
// Type selects the handler; Data carries the handler-specific payload
// and Meta carries cross-cutting metadata such as the source system,
// correlation IDs, and the optional tenant hint (meta.tenant_rut).
type EventRequest struct {
	// Type is the dot-namespaced event identifier, e.g. "lead.create".
	// Required.
	Type string `json:"type"`

	// Data is the handler-specific payload from the client
	// (Odoo, n8n, Shopify, ...).
	Data map[string]any `json:"data"`

	// Meta carries metadata such as source system, tenant_rut, and
	// correlation IDs.
	Meta map[string]any `json:"meta"`
}

// Normalize replaces nil Data/Meta with empty maps so handlers can index
// them without nil checks. The zero value of both fields is treated as
// "absent" on the wire.
func (r *EventRequest) Normalize() {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if r.Meta == nil {
		r.Meta = map[string]any{}
	}
}

// TenantHint returns the tenant natural key carried in meta.tenant_rut,
// or an empty string when absent.
func (r *EventRequest) TenantHint() string {
	if r.Meta == nil {
		return ""
	}
	if s, ok := r.Meta["tenant_rut"].(string); ok {
		return s
	}
	return ""
}

// EventResponse is the normalized handler result. Meta always includes
// "handled_by" (the dispatch key that served the request) and "tenant"
// (the serving tenant's natural key).
type EventResponse struct {
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result"`
	Meta   map[string]any `json:"meta"`
}

// Tenant is an organization scope with its own plan, feature flags, and
// rate limits. A Tenant is resolved once per request and read-only
// thereafter; ID and RUT are non-empty once resolved.
type Tenant struct {
	// ID is the opaque stable tenant identifier.
	ID string `json:"id"`

	// RUT is the tenant-facing natural key (external identifier).
	RUT string `json:"rut"`

	// Plan names the subscription plan. Defaults to "standard".
	Plan string `json:"plan"`

	// Features maps feature name to an enabled flag or config value.
	Features map[string]any `json:"features"`

	// Limits maps limit name to a numeric threshold,
	// e.g. "events_per_minute".
	Limits map[string]float64 `json:"limits"`
}

// EventsPerMinute returns the tenant's events_per_minute limit, or 0
// when the tenant has no such limit configured.
func (t *Tenant) EventsPerMinute() float64 {
	return t.Limits["events_per_minute"]
}

// AuthContext is the authorized identity for a single request. It is
// constructed once by the authorizer before dispatch, handed read-only
// to the handler, and never cached across requests.
type AuthContext struct {
	// PrincipalID is the stable caller identity from the credential
	// verifier.
	PrincipalID string

	// Tenant is the fully resolved tenant serving this request.
	Tenant Tenant

	// Token is the raw bearer credential, retained only for the
	// request's lifetime. Never logged.
	Token string
}
