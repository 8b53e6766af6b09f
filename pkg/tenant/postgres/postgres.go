// Package postgres provides a PostgreSQL-backed tenant.Resolver.
// It uses pgx/v5 for connection pooling and JSONB columns for feature
// flags and limits. Lookups go by natural key (RUT) when the request
// carries a hint, otherwise by principal binding.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarteros/mcp-router/pkg/api"
	"github.com/smarteros/mcp-router/pkg/tenant"
)

// Store is a PostgreSQL-backed tenant store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements tenant.Resolver at compile time.
var _ tenant.Resolver = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Resolve looks up the tenant for the given identity. The hint (RUT)
// takes precedence: it names a tenant directly. Without a hint, the
// principal's binding row decides. Returns tenant.ErrNotFound when no
// record matches and a tenant.ErrUpstream-wrapped error on transport
// failures.
func (s *Store) Resolve(ctx context.Context, principalID, rut string) (api.Tenant, error) {
	if principalID == "" && rut == "" {
		return api.Tenant{}, tenant.ErrMissingIdentity
	}

	var row pgx.Row
	if rut != "" {
		row = s.pool.QueryRow(ctx, `
			SELECT id, rut, plan, features, limits
			FROM tenants
			WHERE rut = $1
		`, rut)
	} else {
		row = s.pool.QueryRow(ctx, `
			SELECT t.id, t.rut, t.plan, t.features, t.limits
			FROM tenants t
			JOIN tenant_principals p ON p.tenant_id = t.id
			WHERE p.principal_id = $1
		`, principalID)
	}

	var (
		t            api.Tenant
		featuresJSON []byte
		limitsJSON   []byte
	)
	if err := row.Scan(&t.ID, &t.RUT, &t.Plan, &featuresJSON, &limitsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Tenant{}, tenant.ErrNotFound
		}
		return api.Tenant{}, fmt.Errorf("%w: querying tenant: %v", tenant.ErrUpstream, err)
	}

	if err := json.Unmarshal(featuresJSON, &t.Features); err != nil {
		return api.Tenant{}, fmt.Errorf("unmarshaling features: %w", err)
	}
	if err := json.Unmarshal(limitsJSON, &t.Limits); err != nil {
		return api.Tenant{}, fmt.Errorf("unmarshaling limits: %w", err)
	}
	if t.Features == nil {
		t.Features = map[string]any{}
	}
	if t.Limits == nil {
		t.Limits = map[string]float64{}
	}

	return t, nil
}

// CreateTenant inserts a tenant record. Used by provisioning flows and
// test seeding.
func (s *Store) CreateTenant(ctx context.Context, t api.Tenant) error {
	featuresJSON, err := json.Marshal(t.Features)
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}
	limitsJSON, err := json.Marshal(t.Limits)
	if err != nil {
		return fmt.Errorf("marshaling limits: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tenants (id, rut, plan, features, limits)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.RUT, t.Plan, featuresJSON, limitsJSON)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("tenant %s already exists", t.ID)
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

// BindPrincipal binds a principal identifier to a tenant so future
// resolutions by that principal land on the tenant. Re-binding moves
// the principal.
func (s *Store) BindPrincipal(ctx context.Context, principalID, tenantID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenant_principals (principal_id, tenant_id)
		VALUES ($1, $2)
		ON CONFLICT (principal_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
	`, principalID, tenantID)
	if err != nil {
		return fmt.Errorf("binding principal: %w", err)
	}
	return nil
}

// HealthCheck verifies the store connection is functional.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database connections.
func (s *Store) Close() {
	s.pool.Close()
}

// isDuplicateKey reports whether the error is a PostgreSQL unique
// violation (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
