package config

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/lnquery/internal/queryir"
)

// Config is the set of declared tenants.
type Config struct {
	Dir     string
	Tenants []Tenant
}

// Tenant is an ERP environment and the services queried in it.
type Tenant struct {
	Name string

	// IONAPIFile is the path of the tenant's .ionapi credentials.
	IONAPIFile string

	// BaseURL overrides the gateway URL derived from the credentials.
	BaseURL string

	Company   string
	Identity  string
	RateLimit float64
	Services  []Service
}

// Service is one queryable endpoint of a tenant.
type Service struct {
	Name    string
	API     queryir.APIType
	Path    string
	Entity  string
	FullURL string
	Company string
	Expand  []string

	Description string
}

// Tenant returns the named tenant.
func (c *Config) Tenant(name string) (Tenant, bool) {
	for _, t := range c.Tenants {
		if t.Name == name {
			return t, true
		}
	}
	return Tenant{}, false
}

// Service returns the named service.
func (t Tenant) Service(name string) (Service, bool) {
	for _, s := range t.Services {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// Descriptor builds the ServiceDescriptor for a service of t. The service
// company wins over the tenant company.
func (t Tenant) Descriptor(s Service) queryir.ServiceDescriptor {
	company := s.Company
	if company == "" {
		company = t.Company
	}
	name := s.Path
	if name == "" {
		name = s.Name
	}
	return queryir.ServiceDescriptor{
		Tenant:      t.Name,
		APIType:     s.API,
		ServiceName: name,
		EntityName:  s.Entity,
		FullURL:     s.FullURL,
		Company:     company,
		Expand:      s.Expand,
	}
}

// Lookup resolves tenant and service names into a descriptor.
func (c *Config) Lookup(tenant, service string) (Tenant, queryir.ServiceDescriptor, error) {
	t, ok := c.Tenant(tenant)
	if !ok {
		return Tenant{}, queryir.ServiceDescriptor{}, fmt.Errorf("unknown tenant %q", tenant)
	}
	s, ok := t.Service(service)
	if !ok {
		return Tenant{}, queryir.ServiceDescriptor{}, fmt.Errorf("tenant %s has no service %q", tenant, service)
	}
	return t, t.Descriptor(s), nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
