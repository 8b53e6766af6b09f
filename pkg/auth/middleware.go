package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/observability"
)

// TenantHintHeader optionally carries the tenant natural key out of
// band. When present it takes precedence over meta.tenant_rut in the
// body.
const TenantHintHeader = "X-Tenant-RUT"

// Middleware creates the HTTP authorization gate from an Authorizer and
// an optional TenantLimiter. It extracts the bearer token, peeks the
// request body for the tenant hint, authorizes, optionally enforces the
// tenant rate limit, and injects the AuthContext into the request
// context. Requests failing any step never reach the dispatcher.
//
// The body peek reads only meta.tenant_rut; full envelope validation
// happens later at dispatch. The body is restored afterwards so the
// route handler can decode it again. maxBodySize bounds the peek (and
// thereby the request body).
func Middleware(authz *Authorizer, limiter *TenantLimiter, maxBodySize int64, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)

			hint, restore, err := peekTenantHint(w, r, maxBodySize)
			if err != nil {
				// The peek reads through MaxBytesReader, so an oversize
				// body surfaces here, before the route handler's own
				// size check can run. Keep the boundary's 413 contract.
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					writeAuthErrorStatus(w,
						api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", maxBodySize)),
						http.StatusRequestEntityTooLarge,
					)
					return
				}
				writeAuthError(w, api.NewInvalidRequestError("body", err.Error()))
				return
			}
			r.Body = restore

			ac, authErr := authz.Authorize(r.Context(), token, hint)
			if authErr != nil {
				slog.Warn("authorization failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"reason", authErr.Code,
				)
				observability.AuthFailuresTotal.WithLabelValues(string(authErr.Type)).Inc()
				writeAuthError(w, authErr)
				return
			}

			slog.Debug("authorization succeeded",
				"principal", ac.PrincipalID,
				"tenant", ac.Tenant.RUT,
				"path", r.URL.Path,
			)

			if limiter != nil && !limiter.Allow(ac.Tenant) {
				slog.Warn("tenant rate limit exceeded",
					"tenant", ac.Tenant.RUT,
					"plan", ac.Tenant.Plan,
				)
				observability.RateLimitRejectedTotal.WithLabelValues(ac.Tenant.Plan).Inc()
				writeAuthError(w, api.NewTooManyRequestsError())
				return
			}

			next.ServeHTTP(w, r.WithContext(SetAuthContext(r.Context(), ac)))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authorization.
var DefaultBypassEndpoints = []string{"/health", "/metrics"}

// bearerToken extracts the raw token from the Authorization header,
// stripping the "Bearer " prefix. Returns an empty string when the
// header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// hintEnvelope is the minimal body shape read during the auth peek.
type hintEnvelope struct {
	Meta struct {
		TenantRUT string `json:"tenant_rut"`
	} `json:"meta"`
}

// peekTenantHint reads the request body to extract the tenant hint and
// returns a replacement body carrying the same bytes. The X-Tenant-RUT
// header wins over the body field. A malformed body yields an empty
// hint, not an error: payload validation is the dispatcher's job, and
// resolution may still succeed on the principal alone. Only a body
// exceeding maxBodySize is an error here.
func peekTenantHint(w http.ResponseWriter, r *http.Request, maxBodySize int64) (string, io.ReadCloser, error) {
	if h := r.Header.Get(TenantHintHeader); h != "" {
		return h, r.Body, nil
	}

	if r.Body == nil {
		return "", http.NoBody, nil
	}

	limited := http.MaxBytesReader(w, r.Body, maxBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", nil, err
	}
	restore := io.NopCloser(bytes.NewReader(body))

	var env hintEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", restore, nil
	}
	return env.Meta.TenantRUT, restore, nil
}

// writeAuthError writes an *api.Error with the status derived from its
// type. Kept local to avoid an import cycle with the transport package.
func writeAuthError(w http.ResponseWriter, e *api.Error) {
	status := http.StatusUnauthorized
	switch e.Type {
	case api.ErrorTypeInvalidRequest:
		status = http.StatusBadRequest
	case api.ErrorTypeTooManyRequests:
		status = http.StatusTooManyRequests
	case api.ErrorTypeUpstreamUnavailable:
		status = http.StatusServiceUnavailable
	case api.ErrorTypeServerError:
		status = http.StatusInternalServerError
	}
	writeAuthErrorStatus(w, e, status)
}

// writeAuthErrorStatus writes an *api.Error with an explicit status.
func writeAuthErrorStatus(w http.ResponseWriter, e *api.Error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: e})
}
