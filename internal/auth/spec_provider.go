package auth

import (
	"context"
	"strings"

	"github.com/guillaumegay13/fieldflow/internal/spec"
)

// SpecSecurityProvider negotiates headers from an operation's OpenAPI
// security declarations. It wraps an EnvironmentProvider for the actual
// credential lookup.
type SpecSecurityProvider struct {
	schemes map[string]map[string]any
	env     *EnvironmentProvider
}

// NewSpecSecurityProvider builds a provider over the document's
// securitySchemes declarations.
func NewSpecSecurityProvider(schemes map[string]map[string]any, env *EnvironmentProvider) *SpecSecurityProvider {
	return &SpecSecurityProvider{schemes: schemes, env: env}
}

// GetHeaders walks the operation's security alternatives in declared order
// and returns the first non-empty header set. Within a multi-scheme
// requirement only the first scheme name is honored; the remaining names
// are ignored.
func (p *SpecSecurityProvider) GetHeaders(_ context.Context, op *spec.Operation) (map[string]string, error) {
	if op == nil || len(op.Security) == 0 {
		return map[string]string{}, nil
	}
	for _, requirement := range op.Security {
		if len(requirement.Schemes) == 0 {
			continue
		}
		scheme := p.schemeConfig(requirement.Schemes[0])
		if scheme == nil {
			continue
		}
		if headers := p.env.HeadersForScheme(*scheme); len(headers) > 0 {
			return headers, nil
		}
	}
	return map[string]string{}, nil
}

// schemeConfig converts a declared security scheme into a concrete Scheme.
// Supported shapes: apiKey-in-header, http-bearer, http-basic. Anything
// else (cookies, query keys, oauth2 flows) yields nil.
func (p *SpecSecurityProvider) schemeConfig(name string) *Scheme {
	declared, ok := p.schemes[name]
	if !ok {
		return nil
	}
	schemeType, _ := declared["type"].(string)
	switch schemeType {
	case "apiKey":
		if in, _ := declared["in"].(string); in != "header" {
			return nil
		}
		headerName, _ := declared["name"].(string)
		if headerName == "" {
			headerName = "X-API-Key"
		}
		return &Scheme{Type: "apikey", HeaderName: headerName, Identifier: name}
	case "http":
		httpScheme, _ := declared["scheme"].(string)
		switch strings.ToLower(httpScheme) {
		case "bearer":
			return &Scheme{Type: "bearer", HeaderName: "Authorization", Identifier: name}
		case "basic":
			return &Scheme{Type: "basic", HeaderName: "Authorization", Identifier: name}
		}
	}
	return nil
}

// SanitizeHeaders delegates to the wrapped environment provider.
func (p *SpecSecurityProvider) SanitizeHeaders(headers map[string]string) map[string]string {
	return p.env.SanitizeHeaders(headers)
}
