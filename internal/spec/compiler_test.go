package spec

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// ResolveRef tests
// ---------------------------------------------------------------------------

func testDoc() map[string]any {
	return map[string]any{
		"paths": map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{
				"User": map[string]any{
					"type":     "object",
					"required": []any{"id", "name"},
					"properties": map[string]any{
						"id":        map[string]any{"type": "integer"},
						"name":      map[string]any{"type": "string"},
						"user-name": map[string]any{"type": "string"},
					},
				},
				"Empty": map[string]any{"type": "object"},
			},
		},
	}
}

func TestResolveRef(t *testing.T) {
	c := NewCompiler(testDoc())

	got, err := c.ResolveRef("#/components/schemas/User")
	if err != nil {
		t.Fatalf("ResolveRef returned error: %v", err)
	}
	if got["type"] != "object" {
		t.Errorf("resolved type = %v, want object", got["type"])
	}
}

func TestResolveRef_Errors(t *testing.T) {
	c := NewCompiler(testDoc())
	tests := []struct {
		name string
		ref  string
	}{
		{"missing component", "#/components/schemas/Nope"},
		{"unsupported root", "#/definitions/User"},
		{"external ref", "other.yaml#/components/schemas/User"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.ResolveRef(tc.ref)
			if err == nil {
				t.Fatalf("ResolveRef(%q) succeeded, want error", tc.ref)
			}
			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Errorf("error type %T, want *ResolutionError", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// schemaToType tests
// ---------------------------------------------------------------------------

func TestSchemaToType_Primitives(t *testing.T) {
	c := NewCompiler(testDoc())
	tests := []struct {
		name       string
		schema     map[string]any
		wantKind   Kind
		wantFormat string
	}{
		{"string", map[string]any{"type": "string"}, KindString, ""},
		{"integer", map[string]any{"type": "integer"}, KindInteger, ""},
		{"number", map[string]any{"type": "number"}, KindNumber, ""},
		{"boolean", map[string]any{"type": "boolean"}, KindBoolean, ""},
		{"date-time format", map[string]any{"type": "string", "format": "date-time"}, KindString, "date-time"},
		{"email format", map[string]any{"type": "string", "format": "email"}, KindString, "email"},
		{"unknown format dropped", map[string]any{"type": "string", "format": "hostname"}, KindString, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.CompileRequestBody("t", tc.schema)
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != tc.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tc.wantKind)
			}
			if got.Format != tc.wantFormat {
				t.Errorf("Format = %q, want %q", got.Format, tc.wantFormat)
			}
		})
	}
}

func TestSchemaToType_NullableWrapsOptional(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("t", map[string]any{"type": "string", "nullable": true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindOptional || got.Elem.Kind != KindString {
		t.Errorf("got %+v, want optional string", got)
	}
}

func TestSchemaToType_ResponseForcesOptional(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileResponse("t", map[string]any{"type": "integer"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindOptional || got.Elem.Kind != KindInteger {
		t.Errorf("got %+v, want optional integer", got)
	}
}

func TestSchemaToType_Array(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("t", map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "nullable": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindList {
		t.Fatalf("Kind = %v, want list", got.Kind)
	}
	// Item nullability is honored, but items are never force-wrapped.
	if got.Elem.Kind != KindOptional || got.Elem.Elem.Kind != KindString {
		t.Errorf("item = %+v, want optional string", got.Elem)
	}
}

func TestSchemaToType_EnumWithoutTypeIsString(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("t", map[string]any{"enum": []any{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindString {
		t.Errorf("Kind = %v, want string", got.Kind)
	}
}

func TestSchemaToType_UnknownShapeIsAny(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("t", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindAny {
		t.Errorf("Kind = %v, want any", got.Kind)
	}
}

// ---------------------------------------------------------------------------
// Record construction tests
// ---------------------------------------------------------------------------

func TestBuildRecord_RequiredAndAliases(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("User", map[string]any{"$ref": "#/components/schemas/User"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindRecord {
		t.Fatalf("Kind = %v, want record", got.Kind)
	}

	byName := make(map[string]Field)
	for _, f := range got.Fields {
		byName[f.Name] = f
	}

	if f := byName["id"]; !f.Required || f.Type.Kind != KindInteger {
		t.Errorf("id = %+v, want required integer", f)
	}
	if f := byName["name"]; !f.Required {
		t.Errorf("name.Required = false, want true")
	}
	f, ok := byName["user_name"]
	if !ok {
		t.Fatalf("sanitized field user_name missing; fields: %v", got.Fields)
	}
	if f.Alias != "user-name" {
		t.Errorf("alias = %q, want user-name", f.Alias)
	}
	if f.Required {
		t.Error("user-name should be optional")
	}
	if f.Type.Kind != KindOptional {
		t.Errorf("optional field type = %v, want optional wrapper", f.Type.Kind)
	}
}

func TestBuildRecord_ResponseFieldsAllOptional(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileResponse("User_response", map[string]any{"$ref": "#/components/schemas/User"})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range got.Fields {
		if f.Required {
			t.Errorf("response field %s marked required", f.Name)
		}
	}
}

func TestBuildRecord_EmptyPropertiesGetCatchAll(t *testing.T) {
	c := NewCompiler(testDoc())
	got, err := c.CompileRequestBody("Empty", map[string]any{"$ref": "#/components/schemas/Empty"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Fields) != 1 || got.Fields[0].Name != "value" {
		t.Fatalf("fields = %+v, want single catch-all value field", got.Fields)
	}
	if got.Fields[0].Type.Kind != KindOptional {
		t.Error("catch-all field should be optional")
	}
}

func TestBuildRecord_CacheReturnsSameInstance(t *testing.T) {
	c := NewCompiler(testDoc())
	first, err := c.CompileRequestBody("x", map[string]any{"$ref": "#/components/schemas/User"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.CompileResponse("y", map[string]any{"$ref": "#/components/schemas/User"})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("repeated $ref compiled to distinct instances, want shared cache entry")
	}
}

func TestBuildRecord_SelfReferenceTerminates(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{
				"Node": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"next": map[string]any{"$ref": "#/components/schemas/Node"},
					},
				},
			},
		},
	}
	c := NewCompiler(doc)
	got, err := c.CompileRequestBody("Node", map[string]any{"$ref": "#/components/schemas/Node"})
	if err != nil {
		t.Fatal(err)
	}
	next := got.Fields[0].Type.Unwrap()
	if next != got {
		t.Error("self reference did not resolve to the record under construction")
	}
}

// ---------------------------------------------------------------------------
// Name sanitization tests
// ---------------------------------------------------------------------------

func TestSanitizeFieldName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantAlias string
	}{
		{"clean name untouched", "email", "email", ""},
		{"dash replaced", "user-name", "user_name", "user-name"},
		{"dot replaced", "a.b", "a_b", "a.b"},
		{"leading digit prefixed", "1st", "field_1st", "1st"},
		{"empty becomes field", "", "field", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, alias := SanitizeFieldName(tc.input, make(map[string]bool))
			if got != tc.want {
				t.Errorf("sanitized = %q, want %q", got, tc.want)
			}
			if alias != tc.wantAlias {
				t.Errorf("alias = %q, want %q", alias, tc.wantAlias)
			}
		})
	}
}

func TestSanitizeFieldName_CollisionsSuffixed(t *testing.T) {
	used := make(map[string]bool)
	first, _ := SanitizeFieldName("user-name", used)
	second, secondAlias := SanitizeFieldName("user.name", used)
	if first != "user_name" {
		t.Errorf("first = %q, want user_name", first)
	}
	if second != "user_name_2" {
		t.Errorf("second = %q, want user_name_2", second)
	}
	if secondAlias != "user.name" {
		t.Errorf("second alias = %q, want user.name", secondAlias)
	}
}

func TestCanonicalName_Anonymous(t *testing.T) {
	c := NewCompiler(testDoc())
	first := c.canonicalName("")
	second := c.canonicalName("")
	if first == second {
		t.Errorf("anonymous names collide: %q vs %q", first, second)
	}
	if first != "AnonymousModel1" {
		t.Errorf("first anonymous name = %q, want AnonymousModel1", first)
	}
}

func TestCanonicalName_CollisionSuffixed(t *testing.T) {
	c := NewCompiler(testDoc())
	first := c.canonicalName("user")
	second := c.canonicalName("User")
	if first != "User" {
		t.Errorf("first = %q, want User", first)
	}
	if second == first {
		t.Error("colliding canonical names not disambiguated")
	}
}
