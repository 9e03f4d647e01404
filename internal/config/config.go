// Package config resolves the process configuration once at startup. The
// resulting Settings value is immutable and passed explicitly to every
// component that needs it.
package config

import (
	"fmt"
	"os"

	"github.com/guillaumegay13/fieldflow/internal/auth"
)

// Environment variables consulted when flags leave a value unset.
const (
	EnvSpecPath = "FIELDFLOW_OPENAPI_SPEC_PATH"
	EnvBaseURL  = "FIELDFLOW_TARGET_API_BASE_URL"
)

// DefaultSpecPath is used when neither flag nor environment names a spec.
const DefaultSpecPath = "examples/jsonplaceholder_openapi.yaml"

// Error is a fatal configuration problem; it aborts startup.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "config: " + e.Reason }

// Settings is the resolved process configuration.
type Settings struct {
	SpecPath string
	// BaseURL is the explicit upstream override; when empty the base URL
	// comes from the document's servers list.
	BaseURL string
	// AuthScheme is the explicitly configured scheme, nil when auth is
	// negotiated from the document (or absent).
	AuthScheme *auth.Scheme
	// IncludeTools and ExcludeTools narrow the registered operation set.
	IncludeTools string
	ExcludeTools string
}

// Load resolves settings from flag values, falling back to the environment.
// Flag values win when non-empty.
func Load(specPath, baseURL string) Settings {
	if specPath == "" {
		specPath = os.Getenv(EnvSpecPath)
	}
	if specPath == "" {
		specPath = DefaultSpecPath
	}
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	return Settings{
		SpecPath:   specPath,
		BaseURL:    baseURL,
		AuthScheme: auth.SchemeFromEnv(),
	}
}

// ResolveBaseURL picks the upstream base URL: the explicit override wins,
// then the document's first server entry. Absence of both is fatal.
func (s Settings) ResolveBaseURL(fromSpec string) (string, error) {
	if s.BaseURL != "" {
		return s.BaseURL, nil
	}
	if fromSpec != "" {
		return fromSpec, nil
	}
	return "", &Error{Reason: fmt.Sprintf(
		"upstream base URL could not be determined: set %s or declare servers in the spec", EnvBaseURL)}
}
