package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/router"
)

func testAuthContext() *api.AuthContext {
	return &api.AuthContext{
		PrincipalID: "user_demo",
		Tenant:      api.Tenant{ID: "tenant-demo", RUT: "76.123.456-7", Plan: "pro"},
	}
}

func newRequest(eventType string, data map[string]any) *api.EventRequest {
	req := &api.EventRequest{Type: eventType, Data: data}
	req.Normalize()
	return req
}

func TestLeads_Create(t *testing.T) {
	resp, err := Leads{}.Handle(context.Background(), newRequest("lead.create", map[string]any{
		"email": "ana@acme.cl",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if resp.Result["id"] != "lead_ana@acme.cl" {
		t.Errorf("id = %v, want lead_ana@acme.cl", resp.Result["id"])
	}
	if resp.Result["status"] != "created" {
		t.Errorf("status = %v, want created", resp.Result["status"])
	}
	if resp.Meta["handled_by"] != "mcp.leads.create" {
		t.Errorf("handled_by = %v, want mcp.leads.create", resp.Meta["handled_by"])
	}
	if resp.Meta["tenant"] != "76.123.456-7" {
		t.Errorf("tenant = %v, want the serving tenant RUT", resp.Meta["tenant"])
	}
}

func TestLeads_CallerSuppliedID(t *testing.T) {
	resp, err := Leads{}.Handle(context.Background(), newRequest("lead.create", map[string]any{
		"email": "ana@acme.cl",
		"id":    "crm-00042",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["id"] != "crm-00042" {
		t.Errorf("id = %v, want the caller-supplied id", resp.Result["id"])
	}
}

func TestLeads_MissingEmail(t *testing.T) {
	for _, data := range []map[string]any{
		nil,
		{"email": ""},
		{"email": 42},
	} {
		_, err := Leads{}.Handle(context.Background(), newRequest("lead.create", data), testAuthContext())

		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("data=%v: err = %v, want *api.Error", data, err)
		}
		if apiErr.Type != api.ErrorTypeUnprocessableEvent {
			t.Errorf("data=%v: Type = %q, want unprocessable_event", data, apiErr.Type)
		}
		if apiErr.Code != "missing_email" || apiErr.Param != "email" {
			t.Errorf("data=%v: code/param = %q/%q, want missing_email/email", data, apiErr.Code, apiErr.Param)
		}
	}
}

func TestInvoices_Issue(t *testing.T) {
	resp, err := Invoices{}.Handle(context.Background(), newRequest("invoice.issued", map[string]any{
		"number": "INV-1042",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["number"] != "INV-1042" || resp.Result["status"] != "issued" {
		t.Errorf("result = %v, want number INV-1042 status issued", resp.Result)
	}
	if resp.Meta["handled_by"] != "mcp.invoices.issue" {
		t.Errorf("handled_by = %v", resp.Meta["handled_by"])
	}
}

func TestInvoices_DefaultNumber(t *testing.T) {
	resp, err := Invoices{}.Handle(context.Background(), newRequest("invoice.issued", nil), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["number"] != "INV-000" {
		t.Errorf("number = %v, want INV-000 placeholder", resp.Result["number"])
	}
}

func TestInvoices_EmptyNumberPassesThrough(t *testing.T) {
	resp, err := Invoices{}.Handle(context.Background(), newRequest("invoice.issued", map[string]any{
		"number": "",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["number"] != "" {
		t.Errorf("number = %v, want the reported empty string, not the placeholder", resp.Result["number"])
	}
}

func TestPayments_Status(t *testing.T) {
	resp, err := Payments{}.Handle(context.Background(), newRequest("payment.status", map[string]any{
		"status":    "paid",
		"reference": "tx_889",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["status"] != "paid" || resp.Result["reference"] != "tx_889" {
		t.Errorf("result = %v, want status paid reference tx_889", resp.Result)
	}
	if resp.Meta["handled_by"] != "mcp.payments.check_status" {
		t.Errorf("handled_by = %v", resp.Meta["handled_by"])
	}
}

func TestPayments_DefaultPending(t *testing.T) {
	resp, err := Payments{}.Handle(context.Background(), newRequest("payment.status", nil), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["status"] != "pending" {
		t.Errorf("status = %v, want pending", resp.Result["status"])
	}
	if ref, ok := resp.Result["reference"]; !ok || ref != nil {
		t.Errorf("reference = %v, want nil passthrough", ref)
	}
}

func TestPayments_EmptyStatusPassesThrough(t *testing.T) {
	resp, err := Payments{}.Handle(context.Background(), newRequest("payment.status", map[string]any{
		"status": "",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["status"] != "" {
		t.Errorf("status = %v, want the reported empty string, not pending", resp.Result["status"])
	}
}

func TestInventory_Sync(t *testing.T) {
	resp, err := Inventory{}.Handle(context.Background(), newRequest("inventory.sync", map[string]any{
		"sku":      "SKU-100",
		"quantity": float64(12),
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["sku"] != "SKU-100" {
		t.Errorf("sku = %v, want SKU-100", resp.Result["sku"])
	}
	if resp.Result["synced_quantity"] != float64(12) {
		t.Errorf("synced_quantity = %v, want 12", resp.Result["synced_quantity"])
	}
	if resp.Meta["handled_by"] != "mcp.inventory.sync_stock" {
		t.Errorf("handled_by = %v", resp.Meta["handled_by"])
	}
}

func TestInventory_Defaults(t *testing.T) {
	resp, err := Inventory{}.Handle(context.Background(), newRequest("inventory.sync", nil), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["sku"] != "unknown" {
		t.Errorf("sku = %v, want unknown", resp.Result["sku"])
	}
	if resp.Result["synced_quantity"] != float64(0) {
		t.Errorf("synced_quantity = %v, want 0", resp.Result["synced_quantity"])
	}
}

func TestInventory_ReportedValuesPassThrough(t *testing.T) {
	resp, err := Inventory{}.Handle(context.Background(), newRequest("inventory.sync", map[string]any{
		"sku":      "",
		"quantity": "12",
	}), testAuthContext())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Result["sku"] != "" {
		t.Errorf("sku = %v, want the reported empty string, not the placeholder", resp.Result["sku"])
	}
	if resp.Result["synced_quantity"] != "12" {
		t.Errorf("synced_quantity = %v, want the reported value echoed, not a coerced 0", resp.Result["synced_quantity"])
	}
}

func TestRegisterAll(t *testing.T) {
	r := router.NewRegistry()
	RegisterAll(r)

	want := []string{"inventory.sync", "invoice.issued", "lead.create", "payment.status"}
	got := r.Types()
	if len(got) != len(want) {
		t.Fatalf("Types() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Types()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
