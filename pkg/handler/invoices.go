package handler

import (
	"context"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Invoices handles "invoice.issued" events coming from the billing
// system.
type Invoices struct{}

// Handle acknowledges an issued invoice. Only an absent number falls
// back to the "INV-000" placeholder: billing systems in the field emit
// the event before the folio is assigned. A present value, empty string
// included, passes through verbatim.
func (Invoices) Handle(_ context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	var number any = "INV-000"
	if v, ok := req.Data["number"]; ok {
		number = v
	}

	return &api.EventResponse{
		OK: true,
		Result: map[string]any{
			"number": number,
			"status": "issued",
		},
		Meta: responseMeta("mcp.invoices.issue", ac),
	}, nil
}
