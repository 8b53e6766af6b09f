package api

import "strings"

// ValidateEventRequest checks the envelope invariants: type is required
// and must not contain whitespace. Dot-namespacing ("lead.create") is the
// convention but not enforced, matching the boundary contract: unknown
// well-formed types surface as handler_not_found at dispatch, not as
// invalid requests.
func ValidateEventRequest(r *EventRequest) *Error {
	if r == nil {
		return NewInvalidRequestError("body", "missing request body")
	}
	if r.Type == "" {
		return NewInvalidRequestError("type", "type is required")
	}
	if strings.ContainsAny(r.Type, " \t\n") {
		return NewInvalidRequestError("type", "type must not contain whitespace")
	}
	return nil
}
