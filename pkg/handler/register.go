package handler

import "github.com/smarteros/mcp-router/pkg/router"

// RegisterAll binds every built-in handler to its event type.
func RegisterAll(r *router.Registry) {
	r.Register("lead.create", Leads{})
	r.Register("invoice.issued", Invoices{})
	r.Register("payment.status", Payments{})
	r.Register("inventory.sync", Inventory{})
}
