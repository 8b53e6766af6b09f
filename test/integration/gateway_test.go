package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func TestHealth(t *testing.T) {
	resp, err := http.Get(testEnv.Gateway.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	expectStatus(t, resp, http.StatusOK)

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	resp.Body.Close()

	if body["ok"] != "true" || body["service"] != "mcp-router" {
		t.Errorf("body = %v", body)
	}
}

func TestLeadCreateRoundTrip(t *testing.T) {
	resp := routeEvent(t, demoToken, eventPayload("lead.create", map[string]any{
		"email": "cliente@tienda.cl",
	}))
	expectStatus(t, resp, http.StatusOK)

	out := decodeEvent(t, resp)
	if !out.OK {
		t.Error("ok = false")
	}
	if out.Result["id"] != "lead_cliente@tienda.cl" || out.Result["status"] != "created" {
		t.Errorf("result = %v", out.Result)
	}
	if out.Meta["handled_by"] != "mcp.leads.create" {
		t.Errorf("handled_by = %v", out.Meta["handled_by"])
	}
	if out.Meta["tenant"] != "76.123.456-7" {
		t.Errorf("tenant = %v, want the demo tenant RUT", out.Meta["tenant"])
	}
}

func TestLeadCreateMissingEmail(t *testing.T) {
	resp := routeEvent(t, demoToken, eventPayload("lead.create", map[string]any{
		"name": "Ana",
	}))
	expectStatus(t, resp, http.StatusUnprocessableEntity)

	apiErr := decodeError(t, resp)
	if apiErr.Code != "missing_email" || apiErr.Param != "email" {
		t.Errorf("error = %+v, want missing_email on email", apiErr)
	}
}

func TestUnknownEventType(t *testing.T) {
	resp := routeEvent(t, demoToken, eventPayload("unknown.event", nil))
	expectStatus(t, resp, http.StatusNotFound)

	apiErr := decodeError(t, resp)
	if !strings.Contains(apiErr.Code, "unknown.event") {
		t.Errorf("Code = %q, want it to carry the unmatched type", apiErr.Code)
	}
}

func TestMissingToken(t *testing.T) {
	resp := routeEvent(t, "", eventPayload("lead.create", map[string]any{
		"email": "a@b.cl",
	}))
	expectStatus(t, resp, http.StatusUnauthorized)

	apiErr := decodeError(t, resp)
	if apiErr.Code != "invalid_token" {
		t.Errorf("Code = %q, want invalid_token", apiErr.Code)
	}
}

func TestInvalidTokenNeverReachesHandlers(t *testing.T) {
	// A recording handler on a dedicated event type proves rejection
	// happens before dispatch.
	invoked := false
	testEnv.Registry.Register("probe.auth", routerProbe(&invoked))

	resp := routeEvent(t, "not-a-valid-token", eventPayload("probe.auth", nil))
	expectStatus(t, resp, http.StatusUnauthorized)

	if invoked {
		t.Error("handler invoked despite rejected token")
	}
}

func TestTenantBindingFromAPIKey(t *testing.T) {
	resp := routeEvent(t, aliceKey, eventPayload("invoice.issued", map[string]any{
		"number": "INV-7",
	}))
	expectStatus(t, resp, http.StatusOK)

	out := decodeEvent(t, resp)
	if out.Meta["tenant"] != "11.111.111-1" {
		t.Errorf("tenant = %v, want the key's bound tenant", out.Meta["tenant"])
	}
}

func TestRateLimitPerTenant(t *testing.T) {
	// tenant-limited allows 3 events/minute; the 4th must get 429.
	var got429 bool
	for i := 0; i < 4; i++ {
		resp := routeEvent(t, limitedToken, eventPayload("payment.status", map[string]any{
			"status": "paid",
		}))
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr := decodeError(t, resp)
			if apiErr.Code != "rate_limited" {
				t.Errorf("Code = %q, want rate_limited", apiErr.Code)
			}
			got429 = true
			break
		}
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	if !got429 {
		t.Error("tenant quota never enforced")
	}

	// Other tenants are unaffected.
	resp := routeEvent(t, demoToken, eventPayload("payment.status", nil))
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestConcurrentDistinctHandlers(t *testing.T) {
	events := []struct {
		payload map[string]any
		want    string
	}{
		{eventPayload("lead.create", map[string]any{"email": "c@d.cl"}), "mcp.leads.create"},
		{eventPayload("invoice.issued", nil), "mcp.invoices.issue"},
		{eventPayload("payment.status", nil), "mcp.payments.check_status"},
		{eventPayload("inventory.sync", map[string]any{"sku": "S-1", "quantity": 5}), "mcp.inventory.sync_stock"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, ev := range events {
			wg.Add(1)
			go func(payload map[string]any, want string) {
				defer wg.Done()
				resp := routeEvent(t, demoToken, payload)
				if resp.StatusCode != http.StatusOK {
					t.Errorf("status = %d for %v", resp.StatusCode, payload["type"])
					resp.Body.Close()
					return
				}
				out := decodeEvent(t, resp)
				if out.Meta["handled_by"] != want {
					t.Errorf("handled_by = %v, want %s", out.Meta["handled_by"], want)
				}
			}(ev.payload, ev.want)
		}
	}
	wg.Wait()
}

func TestRequestIDPropagated(t *testing.T) {
	body := strings.NewReader(`{"type":"payment.status"}`)
	req, err := http.NewRequest(http.MethodPost, testEnv.Gateway.URL+"/mcp/route", body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+demoToken)
	req.Header.Set("X-Request-ID", "req_integration_7")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req_integration_7" {
		t.Errorf("X-Request-ID = %q, want the client ID echoed", got)
	}
}

func TestMetricsBypassAuth(t *testing.T) {
	// /metrics is in the bypass list; without a metrics handler mounted
	// in this environment it would 404, so probe /health, the other
	// bypass endpoint, without credentials.
	resp, err := http.Get(testEnv.Gateway.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 without credentials", resp.StatusCode)
	}
}

func TestMalformedJSON(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testEnv.Gateway.URL+"/mcp/route", strings.NewReader("{oops"))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+demoToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestOversizeBody(t *testing.T) {
	// The default 1 MB cap is enforced at the auth middleware's body
	// peek, the first reader in the composed stack.
	padding := strings.Repeat("x", 1<<20)
	resp := routeEvent(t, demoToken, eventPayload("lead.create", map[string]any{
		"email":   "a@b.cl",
		"padding": padding,
	}))
	expectStatus(t, resp, http.StatusRequestEntityTooLarge)

	apiErr := decodeError(t, resp)
	if apiErr.Code != "invalid_request" {
		t.Errorf("Code = %q, want invalid_request", apiErr.Code)
	}
}

func TestHeaderHintSelectsTenant(t *testing.T) {
	body := strings.NewReader(`{"type":"invoice.issued","meta":{"tenant_rut":"76.123.456-7"}}`)
	req, err := http.NewRequest(http.MethodPost, testEnv.Gateway.URL+"/mcp/route", body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+aliceKey)
	req.Header.Set("X-Tenant-RUT", "11.111.111-1")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	expectStatus(t, resp, http.StatusOK)

	out := decodeEvent(t, resp)
	if out.Meta["tenant"] != "11.111.111-1" {
		t.Errorf("tenant = %v, want the header hint to win", out.Meta["tenant"])
	}
}

func TestUnknownTenantHint(t *testing.T) {
	body := strings.NewReader(`{"type":"invoice.issued","meta":{"tenant_rut":"99.999.999-9"}}`)
	req, err := http.NewRequest(http.MethodPost, testEnv.Gateway.URL+"/mcp/route", body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+aliceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	expectStatus(t, resp, http.StatusUnauthorized)

	apiErr := decodeError(t, resp)
	if apiErr.Code != "tenant_not_found" {
		t.Errorf("Code = %q, want tenant_not_found", apiErr.Code)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	testEnv.Registry.Register("probe.panic", panicProbe())

	resp := routeEvent(t, demoToken, eventPayload("probe.panic", nil))
	expectStatus(t, resp, http.StatusInternalServerError)
	resp.Body.Close()

	// The server survives and keeps serving.
	resp = routeEvent(t, demoToken, eventPayload("payment.status", nil))
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
