// Package router maps event types to handlers and dispatches inbound
// events through a middleware chain. The registry is the single lookup
// table of the gateway: every event type the service understands is
// registered here at startup.
package router

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Handler processes a single routed event for an authorized tenant.
// Implementations return either a response or an error, never both.
// Errors that are *api.Error values keep their reason code at the
// boundary; any other error surfaces as a generic server error.
type Handler interface {
	Handle(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	return f(ctx, req, ac)
}

// Registry maps event types to handlers. Registration happens at
// startup; dispatch is concurrent and lock-free apart from the read
// lock on the map.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds an event type to a handler. Re-registering the same
// type replaces the previous handler (last write wins) and logs a
// warning so a misconfigured double registration is visible.
func (r *Registry) Register(eventType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[eventType]; ok {
		slog.Warn("event type re-registered, replacing previous handler",
			"event_type", eventType,
		)
	}
	r.handlers[eventType] = h
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// lookup returns the handler for the event type, or nil.
func (r *Registry) lookup(eventType string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[eventType]
}

// Dispatch validates the envelope, looks up the handler for req.Type,
// and invokes it. The request is normalized first so handlers can index
// Data and Meta without nil checks.
//
// Failure modes:
//   - malformed envelope: invalid_request
//   - no handler for the type: handler_not_found carrying the type in
//     its reason code
//   - handler returned an error: passed through if it is an *api.Error,
//     otherwise wrapped as a server error (the original is logged, not
//     leaked to the caller)
func (r *Registry) Dispatch(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	if err := api.ValidateEventRequest(req); err != nil {
		return nil, err
	}
	req.Normalize()

	h := r.lookup(req.Type)
	if h == nil {
		return nil, api.NewHandlerNotFoundError(req.Type)
	}

	resp, err := h.Handle(ctx, req, ac)
	if err != nil {
		if apiErr, ok := err.(*api.Error); ok {
			return nil, apiErr
		}
		slog.Error("handler failed",
			"event_type", req.Type,
			"tenant", ac.Tenant.RUT,
			"error", err,
		)
		return nil, api.NewServerError("event handler failed")
	}
	return resp, nil
}
