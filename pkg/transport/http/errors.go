package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smarteros/mcp-router/pkg/api"
)

// HTTPStatusFromError maps an error type to its boundary status code.
func HTTPStatusFromError(e *api.Error) int {
	switch e.Type {
	case api.ErrorTypeInvalidCredential, api.ErrorTypeMissingIdentity, api.ErrorTypeTenantNotFound:
		return http.StatusUnauthorized
	case api.ErrorTypeUnprocessableEvent:
		return http.StatusUnprocessableEntity
	case api.ErrorTypeHandlerNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError serializes the error as {"error":{...}} with the status
// derived from its type. Non-api errors become opaque server errors.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		apiErr = api.NewServerError("internal error")
	}
	WriteErrorWithStatus(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteErrorWithStatus serializes the error with an explicit status,
// for the few places that override the type-derived mapping.
func WriteErrorWithStatus(w http.ResponseWriter, apiErr *api.Error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
