package router

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/observability"
)

// Middleware wraps a Handler with cross-cutting behavior. Middlewares
// compose with Chain and apply to the whole dispatch pipeline, not to
// individual event types.
type Middleware func(Handler) Handler

// Chain composes middlewares around a handler. The first middleware is
// the outermost: Chain(h, a, b) runs a, then b, then h.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recovery converts a handler panic into a server error instead of
// tearing down the connection. The panic value and stack are logged.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (resp *api.EventResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("handler panicked",
						"event_type", req.Type,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp = nil
					err = api.NewServerError("event handler failed")
				}
			}()
			return next.Handle(ctx, req, ac)
		})
	}
}

// Logging logs one line per dispatch with the event type, tenant,
// request ID, outcome, and duration. The bearer token never appears.
func Logging() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req, ac)

			attrs := []any{
				"event_type", req.Type,
				"tenant", ac.Tenant.RUT,
				"principal", ac.PrincipalID,
				"request_id", RequestIDFrom(ctx),
				"duration", time.Since(start),
			}
			if err != nil {
				if apiErr, ok := err.(*api.Error); ok {
					attrs = append(attrs, "error_code", apiErr.Code)
				}
				slog.Warn("event dispatch failed", attrs...)
			} else {
				slog.Info("event dispatched", attrs...)
			}
			return resp, err
		})
	}
}

// Metrics records a dispatch counter and duration histogram per event
// type. The status label is "ok" or the failure's reason type.
func Metrics() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req, ac)

			status := "ok"
			if err != nil {
				status = "error"
				if apiErr, ok := err.(*api.Error); ok {
					status = string(apiErr.Type)
				}
			}

			observability.DispatchesTotal.WithLabelValues(req.Type, status).Inc()
			observability.DispatchDuration.WithLabelValues(req.Type).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// RequestID ensures the context carries a correlation ID for the rest of
// the pipeline, generating one when the transport did not supply it.
func RequestID() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
			if RequestIDFrom(ctx) == "" {
				ctx = SetRequestID(ctx, NewRequestID())
			}
			return next.Handle(ctx, req, ac)
		})
	}
}
