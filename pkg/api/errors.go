package api

import "fmt"

// ErrorType represents the category of a gateway error. The type decides
// the HTTP status at the boundary; the code is the stable reason callers
// branch on.
type ErrorType string

const (
	ErrorTypeInvalidCredential   ErrorType = "invalid_credential"
	ErrorTypeMissingIdentity     ErrorType = "missing_identity"
	ErrorTypeTenantNotFound      ErrorType = "tenant_not_found"
	ErrorTypeUnprocessableEvent  ErrorType = "unprocessable_event"
	ErrorTypeHandlerNotFound     ErrorType = "handler_not_found"
	ErrorTypeTooManyRequests     ErrorType = "too_many_requests"
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeInvalidRequest      ErrorType = "invalid_request"
	ErrorTypeServerError         ErrorType = "server_error"
)

// Error is a structured gateway error with type, machine-readable code,
// optional offending parameter, and human-readable message.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an Error for JSON serialization as the top-level
// error response body.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// NewInvalidCredentialError creates an Error for a missing, malformed,
// or provider-rejected bearer token. Boundary status: 401.
func NewInvalidCredentialError() *Error {
	return &Error{
		Type:    ErrorTypeInvalidCredential,
		Code:    "invalid_token",
		Message: "bearer token missing, malformed, or rejected",
	}
}

// NewMissingIdentityError creates an Error for a request that carries
// neither a usable principal nor a tenant hint. Boundary status: 401.
func NewMissingIdentityError() *Error {
	return &Error{
		Type:    ErrorTypeMissingIdentity,
		Code:    "missing_identity",
		Message: "no principal or tenant hint to resolve a tenant from",
	}
}

// NewTenantNotFoundError creates an Error for a principal whose tenant
// lookup yielded no record. Boundary status: 401.
func NewTenantNotFoundError() *Error {
	return &Error{
		Type:    ErrorTypeTenantNotFound,
		Code:    "tenant_not_found",
		Message: "no tenant record for the resolved identity",
	}
}

// NewUnprocessableEventError creates an Error for a handler-level payload
// validation failure. The code is the stable reason (e.g. "missing_email")
// and param names the offending field. Boundary status: 422.
func NewUnprocessableEventError(code, param, message string) *Error {
	return &Error{
		Type:    ErrorTypeUnprocessableEvent,
		Code:    code,
		Param:   param,
		Message: message,
	}
}

// NewHandlerNotFoundError creates an Error for an unregistered event type.
// The code carries the offending type for diagnostics; event types are
// not sensitive. Boundary status: 404.
func NewHandlerNotFoundError(eventType string) *Error {
	return &Error{
		Type:    ErrorTypeHandlerNotFound,
		Code:    "mcp_handler_not_found:" + eventType,
		Message: fmt.Sprintf("no handler registered for event type %q", eventType),
	}
}

// NewTooManyRequestsError creates an Error for a tenant that exceeded its
// rate limit. Boundary status: 429.
func NewTooManyRequestsError() *Error {
	return &Error{
		Type:    ErrorTypeTooManyRequests,
		Code:    "rate_limited",
		Message: "tenant event rate limit exceeded",
	}
}

// NewUpstreamUnavailableError creates an Error for an unreachable identity
// provider or tenant store. Distinct from auth rejection: the caller did
// nothing wrong. Boundary status: 503.
func NewUpstreamUnavailableError(message string) *Error {
	return &Error{
		Type:    ErrorTypeUpstreamUnavailable,
		Code:    "upstream_unavailable",
		Message: message,
	}
}

// NewInvalidRequestError creates an Error for a malformed request envelope.
// Boundary status: 400.
func NewInvalidRequestError(param, message string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidRequest,
		Code:    "invalid_request",
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an Error for internal failures. Boundary
// status: 500.
func NewServerError(message string) *Error {
	return &Error{
		Type:    ErrorTypeServerError,
		Code:    "server_error",
		Message: message,
	}
}
