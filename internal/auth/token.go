package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// Authorizer yields the Authorization header value for outgoing requests.
type Authorizer interface {
	Authorization(ctx context.Context) (string, error)
}

// Static is a fixed bearer token.
type Static string

// Authorization implements Authorizer.
func (s Static) Authorization(context.Context) (string, error) {
	return "Bearer " + string(s), nil
}

// ServiceAccount authorizes with an ION API service account. The first call
// performs the password grant; later calls reuse or refresh the token.
type ServiceAccount struct {
	creds  Credentials
	config *oauth2.Config

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewServiceAccount returns an Authorizer for creds.
func NewServiceAccount(creds Credentials) *ServiceAccount {
	return &ServiceAccount{creds: creds, config: creds.OAuth2Config()}
}

// Authorization implements Authorizer.
func (s *ServiceAccount) Authorization(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source != nil {
		tok, err := s.source.Token()
		if err == nil {
			return tok.Type() + " " + tok.AccessToken, nil
		}
		// Refresh failed; fall back to a fresh grant.
		s.source = nil
	}

	tok, err := s.config.PasswordCredentialsToken(ctx, s.creds.AccessKey, s.creds.SecretKey)
	if err != nil {
		return "", fmt.Errorf("ionapi token for %s: %w", s.creds.TenantID, err)
	}
	// The refreshing source must outlive the request context.
	refreshCtx := context.WithoutCancel(ctx)
	s.source = oauth2.ReuseTokenSource(tok, s.config.TokenSource(refreshCtx, tok))
	return tok.Type() + " " + tok.AccessToken, nil
}
