// Package mcptools exposes the gateway as an MCP (Model Context
// Protocol) tool server, so agent runtimes can route events and inspect
// tenants through tool calls instead of raw HTTP.
//
// Two tools are exposed:
//   - route_event: authorize a bearer token and dispatch one event
//     through the same pipeline as POST /mcp/route
//   - get_tenant: authorize and return the resolved tenant record
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/auth"
	"github.com/smarteros/mcp-router/pkg/router"
)

// ServerVersion is reported in the MCP handshake.
const ServerVersion = "v1.0.0"

// Gateway bundles the authorizer and dispatcher the tools run against.
// Both calls go through the full pipeline: a tool call is never a back
// door around authorization.
type Gateway struct {
	Authorizer *auth.Authorizer
	Dispatcher router.Handler
}

// RouteEventInput is the input schema for the route_event tool.
type RouteEventInput struct {
	Token     string         `json:"token" jsonschema_description:"Bearer credential for the calling principal"`
	Type      string         `json:"type" jsonschema_description:"Dot-namespaced event type, e.g. lead.create"`
	Data      map[string]any `json:"data,omitempty" jsonschema_description:"Handler-specific payload"`
	Meta      map[string]any `json:"meta,omitempty" jsonschema_description:"Event metadata, may carry tenant_rut"`
	TenantRUT string         `json:"tenant_rut,omitempty" jsonschema_description:"Tenant hint, overrides meta.tenant_rut"`
}

// RouteEventOutput mirrors the HTTP EventResponse.
type RouteEventOutput struct {
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// GetTenantInput is the input schema for the get_tenant tool.
type GetTenantInput struct {
	Token     string `json:"token" jsonschema_description:"Bearer credential for the calling principal"`
	TenantRUT string `json:"tenant_rut,omitempty" jsonschema_description:"Tenant natural key; defaults to the credential's own tenant"`
}

// GetTenantOutput is the resolved tenant record.
type GetTenantOutput struct {
	ID       string             `json:"id"`
	RUT      string             `json:"rut"`
	Plan     string             `json:"plan"`
	Features map[string]any     `json:"features,omitempty"`
	Limits   map[string]float64 `json:"limits,omitempty"`
}

// NewServer builds the MCP server with both tools registered.
func NewServer(gw *Gateway) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "mcp-router", Version: ServerVersion},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "route_event",
		Description: "Authorize and dispatch one business event through the gateway",
	}, gw.routeEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tenant",
		Description: "Authorize and return the tenant record the credential resolves to",
	}, gw.getTenant)

	return server
}

// routeEvent implements the route_event tool.
func (gw *Gateway) routeEvent(ctx context.Context, _ *mcp.CallToolRequest, input RouteEventInput) (*mcp.CallToolResult, RouteEventOutput, error) {
	req := &api.EventRequest{Type: input.Type, Data: input.Data, Meta: input.Meta}
	req.Normalize()

	hint := input.TenantRUT
	if hint == "" {
		hint = req.TenantHint()
	}

	ac, authErr := gw.Authorizer.Authorize(ctx, input.Token, hint)
	if authErr != nil {
		return toolError(authErr), RouteEventOutput{}, nil
	}

	resp, err := gw.Dispatcher.Handle(ctx, req, ac)
	if err != nil {
		return toolError(err), RouteEventOutput{}, nil
	}

	out := RouteEventOutput{OK: resp.OK, Result: resp.Result, Meta: resp.Meta}
	return toolResult(out), out, nil
}

// getTenant implements the get_tenant tool.
func (gw *Gateway) getTenant(ctx context.Context, _ *mcp.CallToolRequest, input GetTenantInput) (*mcp.CallToolResult, GetTenantOutput, error) {
	ac, authErr := gw.Authorizer.Authorize(ctx, input.Token, input.TenantRUT)
	if authErr != nil {
		return toolError(authErr), GetTenantOutput{}, nil
	}

	out := GetTenantOutput{
		ID:       ac.Tenant.ID,
		RUT:      ac.Tenant.RUT,
		Plan:     ac.Tenant.Plan,
		Features: ac.Tenant.Features,
		Limits:   ac.Tenant.Limits,
	}
	return toolResult(out), out, nil
}

// toolResult serializes the output as the tool's text content.
func toolResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("serializing tool result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// toolError reports a failure through the MCP result channel. Gateway
// errors keep their stable reason codes so the agent can branch on them.
func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if apiErr, ok := err.(*api.Error); ok {
		if data, jerr := json.Marshal(api.ErrorResponse{Error: apiErr}); jerr == nil {
			msg = string(data)
		}
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
