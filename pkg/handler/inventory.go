package handler

import (
	"context"

	"github.com/smarteros/mcp-router/pkg/api"
)

// Inventory handles "inventory.sync" events: stock level updates pushed
// from the warehouse or e-commerce backend.
type Inventory struct{}

// Handle records a stock sync. The "unknown" placeholder and the 0
// quantity apply only when the keys are absent; present values echo
// back verbatim so the caller can see exactly what the warehouse sent.
func (Inventory) Handle(_ context.Context, req *api.EventRequest, ac *api.AuthContext) (*api.EventResponse, error) {
	var sku any = "unknown"
	if v, ok := req.Data["sku"]; ok {
		sku = v
	}

	var quantity any = float64(0)
	if v, ok := req.Data["quantity"]; ok {
		quantity = v
	}

	return &api.EventResponse{
		OK: true,
		Result: map[string]any{
			"sku":             sku,
			"synced_quantity": quantity,
		},
		Meta: responseMeta("mcp.inventory.sync_stock", ac),
	}, nil
}
