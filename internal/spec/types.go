// Package spec loads an OpenAPI document and compiles it into immutable
// operation descriptors: one callable operation per method+path, with typed
// parameter, body, and response descriptors resolved from the document's
// component schemas.
package spec

import "fmt"

// Kind discriminates the Type variants.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindOptional
	KindList
	KindRecord
)

// Type is a compiled type descriptor. Identical $ref targets resolve to the
// same cached *Type instance, so pointer equality holds across operations.
type Type struct {
	Kind Kind

	// Format carries a string sub-format (date, date-time, uuid, email).
	// It never changes the wire representation.
	Format string

	// Elem is the inner type for KindOptional and the item type for KindList.
	Elem *Type

	// Name is the canonical model name for KindRecord.
	Name string

	// Fields are the record's fields in deterministic order.
	Fields []Field
}

// Field describes one record field after name sanitization.
type Field struct {
	Name        string // identifier-safe name
	Alias       string // original wire name, set only when sanitization changed it
	Type        *Type
	Required    bool
	Default     any
	Description string
}

// WireName returns the name the field carries on the wire.
func (f Field) WireName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Unwrap strips optional wrappers.
func (t *Type) Unwrap() *Type {
	for t.Kind == KindOptional {
		t = t.Elem
	}
	return t
}

// Parameter describes a path or query parameter of an operation.
type Parameter struct {
	Name        string
	In          string // "path" or "query"
	Required    bool
	Schema      map[string]any
	Description string
}

// SecurityRequirement is one acceptable set of authentication schemes for
// an operation. Schemes holds the scheme names in deterministic order;
// Scopes maps each scheme to its declared scope list (scopes are ignored
// when negotiating, but kept for listing).
type SecurityRequirement struct {
	Schemes []string
	Scopes  map[string][]string
}

// Operation is one compiled method+path entry. Operations are built once at
// startup and never mutated.
type Operation struct {
	Name    string
	Method  string // lowercase
	Path    string // template with {name} placeholders
	Summary string

	PathParams  []Parameter
	QueryParams []Parameter

	BodyType     *Type // nil when the operation has no JSON request body
	BodyRequired bool

	ResponseType   *Type // nil when no JSON response schema is declared
	ResponseSchema map[string]any

	Security []SecurityRequirement
}

// DisplaySummary returns the operation summary, falling back to
// "METHOD /path" when the document declares none.
func (op *Operation) DisplaySummary() string {
	if op.Summary != "" {
		return op.Summary
	}
	return fmt.Sprintf("%s %s", upperMethod(op.Method), op.Path)
}

func upperMethod(m string) string {
	b := []byte(m)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
