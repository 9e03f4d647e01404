// Package auth negotiates authentication headers for proxied upstream
// calls. Credentials come from the environment; which scheme to apply comes
// either from explicit configuration or from the OpenAPI document's
// security declarations.
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/guillaumegay13/fieldflow/internal/spec"
)

// envPrefix namespaces every credential environment variable.
const envPrefix = "FIELDFLOW_AUTH"

// redacted replaces credential material in sanitized header traces.
const redacted = "[REDACTED]"

// Provider produces auth headers for an operation and redacts them for
// logging. GetHeaders returns an empty map when no credential is available;
// that is not an error.
type Provider interface {
	GetHeaders(ctx context.Context, op *spec.Operation) (map[string]string, error)
	SanitizeHeaders(headers map[string]string) map[string]string
}

// Scheme is one concrete authentication scheme bound to a deterministic
// environment credential key.
type Scheme struct {
	Type       string // "bearer", "basic", or an apikey spelling
	HeaderName string
	Identifier string // optional scope; namespaces the credential variable
}

// EnvVar returns the environment variable holding the scheme's credential:
// FIELDFLOW_AUTH_VALUE, or FIELDFLOW_AUTH_<IDENTIFIER>_VALUE when scoped.
func (s Scheme) EnvVar() string {
	if s.Identifier != "" {
		return fmt.Sprintf("%s_%s_VALUE", envPrefix, strings.ToUpper(s.Identifier))
	}
	return envPrefix + "_VALUE"
}

func isAPIKeyType(authType string) bool {
	switch authType {
	case "apikey", "api-key", "api_key":
		return true
	}
	return false
}

// defaultHeaders maps auth types to their conventional header.
var defaultHeaders = map[string]string{
	"bearer":  "Authorization",
	"basic":   "Authorization",
	"apikey":  "X-API-Key",
	"api-key": "X-API-Key",
	"api_key": "X-API-Key",
}

// SchemeFromEnv reads an explicit scheme from FIELDFLOW_AUTH_TYPE and
// FIELDFLOW_AUTH_HEADER. It returns nil when no auth type is configured.
func SchemeFromEnv() *Scheme {
	authType := strings.ToLower(os.Getenv(envPrefix + "_TYPE"))
	if authType == "" {
		return nil
	}
	headerName := os.Getenv(envPrefix + "_HEADER")
	if headerName == "" {
		headerName = defaultHeaders[authType]
		if headerName == "" {
			headerName = "Authorization"
		}
	}
	return &Scheme{Type: authType, HeaderName: headerName}
}

// NewProvider selects the provider variant for this process. The choice is
// made once at startup: an explicit oauth2 scheme wins, then the document's
// security declarations, then the plain environment provider.
func NewProvider(scheme *Scheme, securitySchemes map[string]map[string]any) (Provider, error) {
	if scheme != nil && scheme.Type == "oauth2" {
		return ClientCredentialsFromEnv()
	}
	env := &EnvironmentProvider{Scheme: scheme}
	if len(securitySchemes) > 0 {
		return NewSpecSecurityProvider(securitySchemes, env), nil
	}
	return env, nil
}

// EnvironmentProvider resolves credentials from environment variables for a
// fixed explicit scheme.
type EnvironmentProvider struct {
	Scheme *Scheme
}

// GetHeaders returns the headers for the configured scheme, or an empty map
// when no scheme is configured or its credential is unset.
func (p *EnvironmentProvider) GetHeaders(_ context.Context, _ *spec.Operation) (map[string]string, error) {
	if p.Scheme == nil {
		return map[string]string{}, nil
	}
	return p.HeadersForScheme(*p.Scheme), nil
}

// HeadersForScheme builds headers for an arbitrary scheme. Used directly by
// the spec-security provider while it walks requirement alternatives.
func (p *EnvironmentProvider) HeadersForScheme(scheme Scheme) map[string]string {
	credential := os.Getenv(scheme.EnvVar())
	if credential == "" {
		return map[string]string{}
	}

	headers := map[string]string{}
	switch {
	case scheme.Type == "bearer":
		headers[scheme.HeaderName] = "Bearer " + credential
	case scheme.Type == "basic":
		headers[scheme.HeaderName] = "Basic " + credential
	case isAPIKeyType(scheme.Type):
		headers[scheme.HeaderName] = credential
	}
	return headers
}

// SanitizeHeaders returns a redacted copy safe for logging.
func (p *EnvironmentProvider) SanitizeHeaders(headers map[string]string) map[string]string {
	return sanitizeHeaders(headers)
}

// sensitiveHeaders are matched case-insensitively during sanitization.
var sensitiveHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"api-key":        true,
	"x-auth-token":   true,
	"x-access-token": true,
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, value := range headers {
		if !sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = value
			continue
		}
		// Keep the scheme word so traces still show what kind of
		// credential was attached.
		lower := strings.ToLower(value)
		switch {
		case strings.HasPrefix(lower, "bearer "):
			sanitized[key] = "Bearer " + redacted
		case strings.HasPrefix(lower, "basic "):
			sanitized[key] = "Basic " + redacted
		default:
			sanitized[key] = redacted
		}
	}
	return sanitized
}
