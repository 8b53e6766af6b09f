package handler

import (
	"context"
	"fmt"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Leads handles "lead.create" events: it records an inbound sales lead
// from an upstream channel (web form, WhatsApp, Shopify checkout).
type Leads struct{}

// Handle creates a lead. data.email is required; data.id is honored
// when the caller supplies one, otherwise a deterministic id is derived
// from the email so retries from the same channel stay idempotent.
func (Leads) Handle(_ context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	email, _ := req.Data["email"].(string)
	if email == "" {
		return nil, api.NewUnprocessableEventError("missing_email", "email", "lead requires data.email")
	}

	id, _ := req.Data["id"].(string)
	if id == "" {
		id = fmt.Sprintf("lead_%s", email)
	}

	return &api.EventResponse{
		OK: true,
		Result: map[string]any{
			"id":     id,
			"status": "created",
		},
		Meta: responseMeta("mcp.leads.create", ac),
	}, nil
}

// responseMeta builds the meta block every handler stamps: the dispatch
// key that served the request and the serving tenant's natural key.
func responseMeta(handledBy string, ac *api.AuthContext) map[string]any {
	return map[string]any{
		"handled_by": handledBy,
		"tenant":     ac.Tenant.RUT,
	}
}
