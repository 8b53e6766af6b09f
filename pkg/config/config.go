// Package config provides unified configuration for the mcp-router
// gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (MCPROUTER_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the mcp-router gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Tenants       TenantsConfig       `yaml:"tenants"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 15s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s
	MaxBodySize  int64         `yaml:"max_body_size"` // default: 1 MB
}

// AuthConfig holds credential verification settings. Modes are tried in
// order; each mode contributes one verifier to the chain.
type AuthConfig struct {
	Modes   []string       `yaml:"modes"` // "static", "apikey", "jwt"; default: ["static"]
	Static  StaticConfig   `yaml:"static"`
	APIKeys []APIKeyConfig `yaml:"api_keys"` // entries for mode=apikey
	JWT     JWTConfig      `yaml:"jwt"`

	// DefaultEventsPerMinute applies to tenants without their own
	// events_per_minute limit. 0 disables the default limit.
	DefaultEventsPerMinute float64 `yaml:"default_events_per_minute"`
}

// StaticConfig describes the prefix-matching development verifier.
type StaticConfig struct {
	Prefix    string `yaml:"prefix"`    // default: "sk_test_"
	Principal string `yaml:"principal"` // default: "user_demo"
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key       string `yaml:"key"`
	KeyFile   string `yaml:"key_file"` // _file variant for key
	Principal string `yaml:"principal"`
	TenantRUT string `yaml:"tenant_rut"`
}

// JWTConfig holds JWT verifier settings.
type JWTConfig struct {
	Issuer      string `yaml:"issuer"`
	Audience    string `yaml:"audience"`
	JWKSURL     string `yaml:"jwks_url"`
	UserClaim   string `yaml:"user_claim"`   // default: "sub"
	TenantClaim string `yaml:"tenant_claim"` // default: "tenant_rut"
}

// TenantsConfig holds tenant resolution settings.
type TenantsConfig struct {
	Type     string         `yaml:"type"`    // "demo", "static", "postgres", default: "demo"
	Entries  []TenantEntry  `yaml:"entries"` // for type=static
	Postgres PostgresConfig `yaml:"postgres"`
}

// TenantEntry describes one tenant in the static directory.
type TenantEntry struct {
	ID         string             `yaml:"id"`
	RUT        string             `yaml:"rut"`
	Plan       string             `yaml:"plan"`
	Features   map[string]any     `yaml:"features"`
	Limits     map[string]float64 `yaml:"limits"`
	Principals []string           `yaml:"principals"` // principal IDs bound to this tenant
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// MCPConfig holds the MCP (Model Context Protocol) tool server settings.
type MCPConfig struct {
	Enabled          bool   `yaml:"enabled"` // default: false
	Path             string `yaml:"path"`    // default: "/mcp"
	ServiceToken     string `yaml:"service_token"`
	ServiceTokenFile string `yaml:"service_token_file"` // _file variant
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodySize:  1 << 20,
		},
		Auth: AuthConfig{
			Modes: []string{"static"},
			Static: StaticConfig{
				Prefix:    "sk_test_",
				Principal: "user_demo",
			},
			JWT: JWTConfig{
				UserClaim:   "sub",
				TenantClaim: "tenant_rut",
			},
		},
		Tenants: TenantsConfig{
			Type: "demo",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
