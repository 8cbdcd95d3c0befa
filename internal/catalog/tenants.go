package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/lnquery/internal/config"
	"github.com/roach88/lnquery/internal/ir"
	"github.com/roach88/lnquery/internal/queryir"
)

// ImportConfig upserts every tenant of cfg. A re-imported tenant has its
// service list replaced, so services removed from the CUE files disappear.
// Tenants absent from cfg are left untouched.
func (c *Catalog) ImportConfig(ctx context.Context, cfg *config.Config) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import config: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, t := range cfg.Tenants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tenants (name, ionapi_file, base_url, company, identity, rate_limit)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				ionapi_file = excluded.ionapi_file,
				base_url = excluded.base_url,
				company = excluded.company,
				identity = excluded.identity,
				rate_limit = excluded.rate_limit
		`, t.Name, t.IONAPIFile, t.BaseURL, t.Company, t.Identity, t.RateLimit)
		if err != nil {
			return 0, fmt.Errorf("import config: tenant %s: %w", t.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE tenant = ?`, t.Name); err != nil {
			return 0, fmt.Errorf("import config: tenant %s: clear services: %w", t.Name, err)
		}

		for i, s := range t.Services {
			expand, err := marshalExpand(s.Expand)
			if err != nil {
				return 0, fmt.Errorf("import config: service %s/%s: %w", t.Name, s.Name, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO services
				(tenant, name, position, api, path, entity, full_url, company, expand, description)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, t.Name, s.Name, i, string(s.API), s.Path, s.Entity, s.FullURL, s.Company, expand, s.Description)
			if err != nil {
				return 0, fmt.Errorf("import config: service %s/%s: %w", t.Name, s.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import config: commit: %w", err)
	}
	return len(cfg.Tenants), nil
}

// Tenants returns every tenant with its services, ordered by name.
func (c *Catalog) Tenants(ctx context.Context) ([]config.Tenant, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, ionapi_file, base_url, company, identity, rate_limit
		FROM tenants
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	tenants := []config.Tenant{}
	for rows.Next() {
		var t config.Tenant
		if err := rows.Scan(&t.Name, &t.IONAPIFile, &t.BaseURL, &t.Company, &t.Identity, &t.RateLimit); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	// Services are read after the tenant cursor is closed; the pool holds
	// a single connection.
	for i := range tenants {
		services, err := c.services(ctx, tenants[i].Name)
		if err != nil {
			return nil, err
		}
		tenants[i].Services = services
	}
	return tenants, nil
}

// Tenant returns a single tenant with its services.
// Returns ErrNotFound if the tenant was never imported.
func (c *Catalog) Tenant(ctx context.Context, name string) (config.Tenant, error) {
	var t config.Tenant
	err := c.db.QueryRowContext(ctx, `
		SELECT name, ionapi_file, base_url, company, identity, rate_limit
		FROM tenants
		WHERE name = ?
	`, name).Scan(&t.Name, &t.IONAPIFile, &t.BaseURL, &t.Company, &t.Identity, &t.RateLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Tenant{}, fmt.Errorf("tenant %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return config.Tenant{}, fmt.Errorf("read tenant: %w", err)
	}

	t.Services, err = c.services(ctx, name)
	if err != nil {
		return config.Tenant{}, err
	}
	return t, nil
}

// Lookup resolves a tenant and one of its services into a descriptor.
func (c *Catalog) Lookup(ctx context.Context, tenant, service string) (config.Tenant, queryir.ServiceDescriptor, error) {
	t, err := c.Tenant(ctx, tenant)
	if err != nil {
		return config.Tenant{}, queryir.ServiceDescriptor{}, err
	}
	s, ok := t.Service(service)
	if !ok {
		return config.Tenant{}, queryir.ServiceDescriptor{}, fmt.Errorf("service %s/%s: %w", tenant, service, ErrNotFound)
	}
	return t, t.Descriptor(s), nil
}

func (c *Catalog) services(ctx context.Context, tenant string) ([]config.Service, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, api, path, entity, full_url, company, expand, description
		FROM services
		WHERE tenant = ?
		ORDER BY position ASC
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []config.Service
	for rows.Next() {
		var s config.Service
		var api, expand string
		if err := rows.Scan(&s.Name, &api, &s.Path, &s.Entity, &s.FullURL, &s.Company, &expand, &s.Description); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		s.API = queryir.APIType(api)
		if s.Expand, err = unmarshalExpand(expand); err != nil {
			return nil, fmt.Errorf("service %s/%s: %w", tenant, s.Name, err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// marshalExpand stores an expand list as canonical JSON.
func marshalExpand(expand []string) (string, error) {
	data, err := ir.MarshalCanonical(expand)
	if err != nil {
		return "", fmt.Errorf("marshal expand: %w", err)
	}
	return string(data), nil
}

func unmarshalExpand(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var expand []string
	if err := json.Unmarshal([]byte(data), &expand); err != nil {
		return nil, fmt.Errorf("unmarshal expand: %w", err)
	}
	return expand, nil
}
