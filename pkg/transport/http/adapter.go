// Package http serves the event-routing API over HTTP: the /mcp/route
// dispatch endpoint, the health probe, and the server lifecycle.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/auth"
	"github.com/smarteros/mcp-router/pkg/router"
)

// Adapter serves the routing API over HTTP. It decodes the event
// envelope, hands it to the dispatcher, and serializes the normalized
// response.
type Adapter struct {
	dispatcher router.Handler
	mux        *http.ServeMux
	config     Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	ServiceName     string
	MaxBodySize     int64
	ShutdownTimeout int // seconds
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ServiceName:     "mcp-router",
		MaxBodySize:     1 << 20, // 1 MB
		ShutdownTimeout: 30,
	}
}

// NewAdapter creates an HTTP adapter dispatching to the given handler
// (normally a Registry wrapped in the dispatch middleware chain).
func NewAdapter(dispatcher router.Handler, cfg Config) *Adapter {
	a := &Adapter{
		dispatcher: dispatcher,
		mux:        http.NewServeMux(),
		config:     cfg,
	}

	a.mux.HandleFunc("GET /health", a.handleHealth)
	a.mux.HandleFunc("POST /mcp/route", a.handleRoute)

	return a
}

// Handler returns the http.Handler for this adapter. The returned
// handler includes HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return requestIDMiddleware(a.mux)
}

// Mux exposes the underlying mux so the caller can attach extra
// endpoints (metrics, MCP) before wrapping with Handler-level
// middleware.
func (a *Adapter) Mux() *http.ServeMux {
	return a.mux
}

// handleHealth handles GET /health. It carries no tenant data and is
// exempt from authorization.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"ok":      "true",
		"service": a.config.ServiceName,
	})
}

// handleRoute handles POST /mcp/route. Authorization has already run in
// the auth middleware; a request arriving here without an AuthContext
// is a wiring bug, not a caller error.
func (a *Adapter) handleRoute(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		WriteErrorWithStatus(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteErrorWithStatus(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		WriteError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return
	}

	ac := authContextFrom(r)
	if ac == nil {
		WriteError(w, api.NewServerError("request reached dispatch without authorization"))
		return
	}

	resp, err := a.dispatcher.Handle(r.Context(), &req, ac)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// authContextFrom pulls the AuthContext the auth middleware stored on
// the request context.
func authContextFrom(r *http.Request) *api.AuthContext {
	return auth.AuthContextFrom(r.Context())
}

// requestIDMiddleware propagates the X-Request-ID header: an inbound ID
// is adopted as the correlation ID, otherwise one is generated, and the
// chosen ID is echoed on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = router.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(router.SetRequestID(r.Context(), id)))
	})
}
