package handler

import (
	"context"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Payments handles "payment.status" events: status notifications from
// payment processors.
type Payments struct{}

// Handle reflects the reported payment status back to the caller.
// Status defaults to "pending" only when the processor omitted the key;
// a reported value, empty string included, passes through. The
// reference passes through untouched so the caller can correlate.
func (Payments) Handle(_ context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	var status any = "pending"
	if v, ok := req.Data["status"]; ok {
		status = v
	}

	return &api.EventResponse{
		OK: true,
		Result: map[string]any{
			"status":    status,
			"reference": req.Data["reference"],
		},
		Meta: responseMeta("mcp.payments.check_status", ac),
	}, nil
}
