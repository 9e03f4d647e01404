package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/guillaumegay13/fieldflow/internal/spec"
)

// ClientCredentialsProvider fetches bearer tokens through the OAuth2
// client-credentials grant. Selected with FIELDFLOW_AUTH_TYPE=oauth2.
type ClientCredentialsProvider struct {
	config clientcredentials.Config

	mu     sync.Mutex
	source oauth2.TokenSource
}

// ClientCredentialsFromEnv reads the grant configuration from
// FIELDFLOW_AUTH_TOKEN_URL, FIELDFLOW_AUTH_CLIENT_ID,
// FIELDFLOW_AUTH_CLIENT_SECRET, and the optional space-separated
// FIELDFLOW_AUTH_SCOPES.
func ClientCredentialsFromEnv() (*ClientCredentialsProvider, error) {
	tokenURL := os.Getenv(envPrefix + "_TOKEN_URL")
	clientID := os.Getenv(envPrefix + "_CLIENT_ID")
	clientSecret := os.Getenv(envPrefix + "_CLIENT_SECRET")
	if tokenURL == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("auth: oauth2 requires %s_TOKEN_URL, %s_CLIENT_ID and %s_CLIENT_SECRET",
			envPrefix, envPrefix, envPrefix)
	}
	return &ClientCredentialsProvider{
		config: clientcredentials.Config{
			TokenURL:     tokenURL,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       strings.Fields(os.Getenv(envPrefix + "_SCOPES")),
		},
	}, nil
}

// GetHeaders returns an Authorization header with a valid access token,
// reusing the cached token until it expires.
func (p *ClientCredentialsProvider) GetHeaders(ctx context.Context, _ *spec.Operation) (map[string]string, error) {
	p.mu.Lock()
	if p.source == nil {
		p.source = p.config.TokenSource(ctx)
	}
	source := p.source
	p.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: fetching oauth2 token: %w", err)
	}
	return map[string]string{"Authorization": "Bearer " + token.AccessToken}, nil
}

// SanitizeHeaders returns a redacted copy safe for logging.
func (p *ClientCredentialsProvider) SanitizeHeaders(headers map[string]string) map[string]string {
	return sanitizeHeaders(headers)
}
