// Command mcp-server runs the gateway's MCP tool surface as a
// standalone service, for deployments where agent runtimes talk MCP
// directly and the HTTP routing endpoint is not wanted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/auth"
	"github.com/smarteros/mcp-router/pkg/auth/apikey"
	"github.com/smarteros/mcp-router/pkg/auth/jwt"
	"github.com/smarteros/mcp-router/pkg/auth/static"
	"github.com/smarteros/mcp-router/pkg/config"
	"github.com/smarteros/mcp-router/pkg/handler"
	"github.com/smarteros/mcp-router/pkg/mcptools"
	"github.com/smarteros/mcp-router/pkg/router"
	"github.com/smarteros/mcp-router/pkg/tenant"
	"github.com/smarteros/mcp-router/pkg/tenant/postgres"
	transporthttp "github.com/smarteros/mcp-router/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mcp-server failed", "error", err)
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

	chain, err := buildVerifierChain(cfg)
	if err != nil {
		return fmt.Errorf("building verifier chain: %w", err)
	}

	resolver, cleanup, err := buildResolver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building tenant resolver: %w", err)
	}
	defer cleanup()

	registry := router.NewRegistry()
	handler.RegisterAll(registry)
	dispatcher := router.Chain(router.HandlerFunc(registry.Dispatch),
		router.Recovery(),
		router.RequestID(),
		router.Logging(),
		router.Metrics(),
	)

	server := mcptools.NewServer(&mcptools.Gateway{
		Authorizer: &auth.Authorizer{Chain: chain, Tenants: resolver},
		Dispatcher: dispatcher,
	})
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(cfg.MCP.Path, guardMCP(cfg.MCP.ServiceToken, mcpHandler))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":"true","service":"mcp-router-mcp"}`))
	})

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	srv := transporthttp.NewServer(mux,
		transporthttp.WithAddr(addr),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
	)

	slog.Info("MCP tool server starting", "port", cfg.Server.Port, "path", cfg.MCP.Path)
	return srv.ListenAndServe()
}

// buildVerifierChain assembles one verifier per configured auth mode.
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
		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown tenants type %q", cfg.Tenants.Type)
	}
}

// guardMCP requires the configured service token on the MCP endpoint.
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
