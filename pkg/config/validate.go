package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// server.max_body_size must be positive.
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	// auth.modes must be non-empty and each a known value.
	if len(c.Auth.Modes) == 0 {
		errs = append(errs, fmt.Errorf("auth.modes must list at least one mode"))
	}
	for _, mode := range c.Auth.Modes {
		switch mode {
		case "static", "apikey", "jwt":
			// valid
		default:
			errs = append(errs, fmt.Errorf("auth.modes entry must be \"static\", \"apikey\", or \"jwt\", got %q", mode))
		}
	}

	// jwt mode needs a key source.
	if hasMode(c.Auth.Modes, "jwt") && c.Auth.JWT.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.jwks_url is required when auth.modes includes \"jwt\""))
	}

	// apikey mode needs at least one key.
	if hasMode(c.Auth.Modes, "apikey") && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must list at least one key when auth.modes includes \"apikey\""))
	}

	// tenants.type must be a known value.
	switch c.Tenants.Type {
	case "demo", "static", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("tenants.type must be \"demo\", \"static\", or \"postgres\", got %q", c.Tenants.Type))
	}

	// If tenants.type is "static", entries must be present and well-formed.
	if c.Tenants.Type == "static" {
		if len(c.Tenants.Entries) == 0 {
			errs = append(errs, fmt.Errorf("tenants.entries must list at least one tenant when tenants.type is \"static\""))
		}
		for i, e := range c.Tenants.Entries {
			if e.ID == "" || e.RUT == "" {
				errs = append(errs, fmt.Errorf("tenants.entries[%d] requires both id and rut", i))
			}
		}
	}

	// If tenants.type is "postgres", DSN or DSNFile must be set.
	if c.Tenants.Type == "postgres" {
		if c.Tenants.Postgres.DSN == "" && c.Tenants.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("tenants.postgres.dsn or tenants.postgres.dsn_file is required when tenants.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}

// hasMode reports whether the mode list contains the given mode.
func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
