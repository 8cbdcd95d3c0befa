package queryir

import (
	"errors"
	"fmt"
)

// APIType selects the wire protocol of a service.
type APIType string

const (
	APISOAP APIType = "soap"
	APIREST APIType = "rest"
)

// Valid reports whether t is a known API type.
func (t APIType) Valid() bool {
	return t == APISOAP || t == APIREST
}

// ServiceDescriptor identifies the remote endpoint a query targets.
type ServiceDescriptor struct {
	Tenant      string  `json:"tenant"`
	APIType     APIType `json:"api_type"`
	ServiceName string  `json:"service_name"`

	// EntityName is the OData entity set inside ServiceName.
	EntityName string `json:"entity_name,omitempty"`

	// FullURL overrides the URL derived from the tenant base URL.
	FullURL string `json:"full_url,omitempty"`

	// Company is the LN company number sent with every request.
	Company string `json:"company,omitempty"`

	// Expand lists OData navigation properties to inline. When set it
	// replaces any EXPAND written in the query text.
	Expand []string `json:"expand,omitempty"`
}

// RecordName returns the name whose blocks or entities hold records: the
// entity for REST services that name one, the service otherwise.
func (d ServiceDescriptor) RecordName() string {
	if d.APIType == APIREST && d.EntityName != "" {
		return d.EntityName
	}
	return d.ServiceName
}

// Validate checks the descriptor is usable.
func (d ServiceDescriptor) Validate() error {
	var errs []error
	if d.Tenant == "" {
		errs = append(errs, errors.New("descriptor: tenant is required"))
	}
	if !d.APIType.Valid() {
		errs = append(errs, fmt.Errorf("descriptor: unknown api type %q", d.APIType))
	}
	if d.ServiceName == "" {
		errs = append(errs, errors.New("descriptor: service name is required"))
	}
	return errors.Join(errs...)
}
