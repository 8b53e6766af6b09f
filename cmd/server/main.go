// Command server runs the mcp-router event gateway.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, MCPROUTER_CONFIG, ./config.yaml, or
// /etc/mcp-router/config.yaml), then MCPROUTER_* environment overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/auth"
	"github.com/smarteros/mcp-router/pkg/auth/apikey"
	"github.com/smarteros/mcp-router/pkg/auth/jwt"
	"github.com/smarteros/mcp-router/pkg/auth/static"
	"github.com/smarteros/mcp-router/pkg/config"
	"github.com/smarteros/mcp-router/pkg/handler"
	"github.com/smarteros/mcp-router/pkg/mcptools"
	"github.com/smarteros/mcp-router/pkg/observability"
	"github.com/smarteros/mcp-router/pkg/router"
	"github.com/smarteros/mcp-router/pkg/tenant"
	"github.com/smarteros/mcp-router/pkg/tenant/postgres"
	transporthttp "github.com/smarteros/mcp-router/pkg/transport/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()

	// Build the credential verifier chain from the configured modes.
	chain, err := buildVerifierChain(cfg)
	if err != nil {
		return fmt.Errorf("building verifier chain: %w", err)
	}

	// Build the tenant resolver.
	resolver, cleanup, err := buildResolver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building tenant resolver: %w", err)
	}
	defer cleanup()

	authz := &auth.Authorizer{Chain: chain, Tenants: resolver}
	limiter := auth.NewTenantLimiter(cfg.Auth.DefaultEventsPerMinute)

	// Registry with the built-in handlers and the dispatch pipeline.
	registry := router.NewRegistry()
	handler.RegisterAll(registry)
	dispatcher := router.Chain(router.HandlerFunc(registry.Dispatch),
		router.Recovery(),
		router.RequestID(),
		router.Logging(),
		router.Metrics(),
	)
	slog.Info("handlers registered", "event_types", registry.Types())

	// HTTP adapter plus optional extra endpoints.
	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.Addr = ":" + strconv.Itoa(cfg.Server.Port)
	adapterCfg.MaxBodySize = cfg.Server.MaxBodySize
	adapter := transporthttp.NewAdapter(dispatcher, adapterCfg)

	bypass := []string{"/health"}
	if cfg.Observability.Metrics.Enabled {
		adapter.Mux().Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
		bypass = append(bypass, cfg.Observability.Metrics.Path)
		slog.Info("metrics enabled", "path", cfg.Observability.Metrics.Path)
	}
	if cfg.MCP.Enabled {
		mountMCP(adapter.Mux(), cfg, authz, dispatcher)
		bypass = append(bypass, cfg.MCP.Path)
		slog.Info("MCP tool server enabled", "path", cfg.MCP.Path)
	}

	// Compose the middleware stack: metrics outermost, then auth.
	h := auth.Middleware(authz, limiter, cfg.Server.MaxBodySize, bypass)(adapter.Handler())
	h = observabilityMiddleware(cfg, h)

	srv := transporthttp.NewServer(h,
		transporthttp.WithAddr(adapterCfg.Addr),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
	)

	slog.Info("gateway starting",
		"port", cfg.Server.Port,
		"auth_modes", cfg.Auth.Modes,
		"tenants", cfg.Tenants.Type,
	)
	return srv.ListenAndServe()
}

// buildVerifierChain assembles one verifier per configured auth mode,
// tried in the configured order.
func buildVerifierChain(cfg *config.Config) (*auth.VerifierChain, error) {
	var verifiers []auth.Verifier

	for _, mode := range cfg.Auth.Modes {
		switch mode {
		case "static":
			verifiers = append(verifiers, &static.Verifier{
				Prefix:      cfg.Auth.Static.Prefix,
				PrincipalID: cfg.Auth.Static.Principal,
			})
		case "apikey":
			entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
			for _, k := range cfg.Auth.APIKeys {
				entries = append(entries, apikey.RawKeyEntry{
					Key: k.Key,
					Principal: auth.Principal{
						ID:        k.Principal,
						TenantRUT: k.TenantRUT,
					},
				})
			}
			verifiers = append(verifiers, apikey.New(entries))
		case "jwt":
			verifiers = append(verifiers, jwt.New(jwt.Config{
				Issuer:      cfg.Auth.JWT.Issuer,
				Audience:    cfg.Auth.JWT.Audience,
				JWKSURL:     cfg.Auth.JWT.JWKSURL,
				UserClaim:   cfg.Auth.JWT.UserClaim,
				TenantClaim: cfg.Auth.JWT.TenantClaim,
			}))
		default:
			return nil, fmt.Errorf("unknown auth mode %q", mode)
		}
	}

	return &auth.VerifierChain{
		Verifiers:       verifiers,
		DefaultDecision: auth.No,
	}, nil
}

// buildResolver creates the tenant resolver for the configured backend.
// The returned cleanup closes any held connections.
func buildResolver(ctx context.Context, cfg *config.Config) (tenant.Resolver, func(), error) {
	noop := func() {}

	switch cfg.Tenants.Type {
	case "demo":
		return &tenant.StaticResolver{}, noop, nil

	case "static":
		dir := tenant.NewDirectory()
		for _, e := range cfg.Tenants.Entries {
			dir.Add(api.Tenant{
				ID:       e.ID,
				RUT:      e.RUT,
				Plan:     e.Plan,
				Features: e.Features,
				Limits:   e.Limits,
			}, e.Principals...)
		}
		return dir, noop, nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Tenants.Postgres.DSN,
			MaxConns:       cfg.Tenants.Postgres.MaxConns,
			MigrateOnStart: cfg.Tenants.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, noop, err
		}
		slog.Info("tenant store connected", "type", "postgres")
		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown tenants type %q", cfg.Tenants.Type)
	}
}

// mountMCP attaches the MCP tool server to the mux.
func mountMCP(mux *http.ServeMux, cfg *config.Config, authz *auth.Authorizer, dispatcher router.Handler) {
	server := mcptools.NewServer(&mcptools.Gateway{
		Authorizer: authz,
		Dispatcher: dispatcher,
	})
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	mux.Handle(cfg.MCP.Path, guardMCP(cfg.MCP.ServiceToken, mcpHandler))
}

// guardMCP requires the configured service token on the MCP endpoint.
// An empty token leaves the endpoint open (development mode); per-call
// credentials are still verified by the tools themselves.
func guardMCP(serviceToken string, next http.Handler) http.Handler {
	if serviceToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+serviceToken {
			transporthttp.WriteError(w, api.NewInvalidCredentialError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observabilityMiddleware wraps the handler with request metrics when
// metrics are enabled.
func observabilityMiddleware(cfg *config.Config, h http.Handler) http.Handler {
	if !cfg.Observability.Metrics.Enabled {
		return h
	}
	return observability.MetricsMiddleware(h)
}
