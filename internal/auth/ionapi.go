package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// Credentials is the content of an .ionapi file.
type Credentials struct {
	TenantID     string `json:"ti"`
	ClientName   string `json:"cn,omitempty"`
	ClientID     string `json:"ci"`
	ClientSecret string `json:"cs"`

	// IONAPIURL is the gateway base, e.g. https://mingle-ionapi.inforcloudsuite.com.
	IONAPIURL string `json:"iu"`

	// SSOURL is the authorization server base; the endpoint paths are
	// relative to it.
	SSOURL    string `json:"pu"`
	AuthPath  string `json:"oa"`
	TokenPath string `json:"ot"`

	RevokePath string `json:"or,omitempty"`

	// AccessKey and SecretKey are the service account's user and password.
	AccessKey string `json:"saak"`
	SecretKey string `json:"sask"`
}

// Parse decodes .ionapi JSON.
func Parse(data []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse ionapi: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// LoadFile reads and parses an .ionapi file.
func LoadFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read ionapi: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate reports every missing required key.
func (c Credentials) Validate() error {
	var errs []error
	required := []struct{ key, val string }{
		{"ti", c.TenantID},
		{"ci", c.ClientID},
		{"cs", c.ClientSecret},
		{"iu", c.IONAPIURL},
		{"pu", c.SSOURL},
		{"ot", c.TokenPath},
		{"saak", c.AccessKey},
		{"sask", c.SecretKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, fmt.Errorf("ionapi: missing %q", r.key))
		}
	}
	return errors.Join(errs...)
}

// BaseURL is the tenant-scoped ION API gateway URL.
func (c Credentials) BaseURL() string {
	return strings.TrimRight(c.IONAPIURL, "/") + "/" + c.TenantID
}

// OAuth2Config builds the client configuration for the tenant's
// authorization server.
func (c Credentials) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  joinURL(c.SSOURL, c.AuthPath),
			TokenURL: joinURL(c.SSOURL, c.TokenPath),
		},
	}
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
