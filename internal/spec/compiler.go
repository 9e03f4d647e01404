package spec

import (
	"fmt"
	"sort"
	"strings"
)

// ResolutionError reports a $ref that could not be resolved against the
// document. Resolution failures abort spec compilation.
type ResolutionError struct {
	Ref    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", e.Ref, e.Reason)
}

// Compiler converts JSON-Schema-like fragments from the document into Type
// descriptors. Compiled records are cached by their pre-sanitization lookup
// name, so repeated references to the same component reuse one instance and
// self-referential schemas terminate.
type Compiler struct {
	components map[string]any
	cache      map[string]*Type
	usedNames  map[string]bool
	anonIndex  int
}

// NewCompiler creates a compiler over a decoded OpenAPI document.
func NewCompiler(doc map[string]any) *Compiler {
	components, _ := doc["components"].(map[string]any)
	return &Compiler{
		components: components,
		cache:      make(map[string]*Type),
		usedNames:  make(map[string]bool),
	}
}

// CompileResponse compiles a response schema. Every field of a response
// record is optional: upstream APIs routinely omit declared properties.
func (c *Compiler) CompileResponse(name string, schema map[string]any) (*Type, error) {
	return c.schemaToType(name, schema, true)
}

// CompileRequestBody compiles a request body schema.
func (c *Compiler) CompileRequestBody(name string, schema map[string]any) (*Type, error) {
	return c.schemaToType(name, schema, false)
}

// TypeForParameter compiles the schema of a path or query parameter.
func (c *Compiler) TypeForParameter(p Parameter) (*Type, error) {
	return c.schemaToType("param_"+p.Name, p.Schema, false)
}

// ResolveRef walks a "#/components/..." pointer and returns the target
// object. Unsupported pointer roots, missing segments, and non-object
// targets are *ResolutionError.
func (c *Compiler) ResolveRef(ref string) (map[string]any, error) {
	parts := strings.Split(ref, "/")
	if len(parts) < 2 || parts[0] != "#" || parts[1] != "components" {
		return nil, &ResolutionError{Ref: ref, Reason: "only #/components/... references are supported"}
	}
	var node any = c.components
	for _, part := range parts[2:] {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, &ResolutionError{Ref: ref, Reason: fmt.Sprintf("segment %q is not an object", part)}
		}
		child, ok := obj[part]
		if !ok {
			return nil, &ResolutionError{Ref: ref, Reason: fmt.Sprintf("component %q not found", part)}
		}
		node = child
	}
	target, ok := node.(map[string]any)
	if !ok {
		return nil, &ResolutionError{Ref: ref, Reason: "target is not an object"}
	}
	return target, nil
}

// stringFormats are the string sub-formats tracked on compiled types.
var stringFormats = map[string]bool{
	"date":      true,
	"date-time": true,
	"uuid":      true,
	"email":     true,
}

func (c *Compiler) schemaToType(name string, schema map[string]any, forceOptional bool) (*Type, error) {
	if ref, ok := schema["$ref"].(string); ok {
		resolved, err := c.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		segs := strings.Split(ref, "/")
		return c.schemaToType(segs[len(segs)-1], resolved, forceOptional)
	}

	schemaType, _ := schema["type"].(string)
	if schemaType == "" {
		if _, ok := schema["properties"]; ok {
			schemaType = "object"
		}
	}

	switch schemaType {
	case "object":
		return c.buildRecord(name, schema, forceOptional)
	case "array":
		items, _ := schema["items"].(map[string]any)
		if items == nil {
			items = map[string]any{}
		}
		// List items are compiled as-is; optionality never applies to them.
		item, err := c.schemaToType(name+"Item", items, false)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindList, Elem: item}, nil
	case "string", "integer", "number", "boolean":
		t := &Type{Kind: primitiveKind(schemaType)}
		if schemaType == "string" {
			if fmtName, _ := schema["format"].(string); stringFormats[fmtName] {
				t.Format = fmtName
			}
		}
		if isNullable(schema) || forceOptional {
			return &Type{Kind: KindOptional, Elem: t}, nil
		}
		return t, nil
	}

	// An enum without an explicit type collapses to string.
	if _, ok := schema["enum"]; ok {
		return &Type{Kind: KindString}, nil
	}

	// Unrecognized shapes pass values through untyped.
	return &Type{Kind: KindAny}, nil
}

func primitiveKind(schemaType string) Kind {
	switch schemaType {
	case "string":
		return KindString
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	default:
		return KindAny
	}
}

func isNullable(schema map[string]any) bool {
	nullable, _ := schema["nullable"].(bool)
	return nullable
}

func (c *Compiler) buildRecord(name string, schema map[string]any, forceOptional bool) (*Type, error) {
	if cached, ok := c.cache[name]; ok {
		return cached, nil
	}

	// Cache the record before filling fields so self-referential schemas
	// resolve to the instance under construction instead of looping.
	rec := &Type{Kind: KindRecord, Name: c.canonicalName(name)}
	c.cache[name] = rec

	properties, _ := schema["properties"].(map[string]any)
	requiredSet := requiredNames(schema)

	propNames := make([]string, 0, len(properties))
	for propName := range properties {
		propNames = append(propNames, propName)
	}
	sort.Strings(propNames)

	used := make(map[string]bool)
	fields := make([]Field, 0, len(propNames))
	for _, propName := range propNames {
		propSchema, _ := properties[propName].(map[string]any)
		if propSchema == nil {
			propSchema = map[string]any{}
		}
		nestedName := strings.ReplaceAll(name+"_"+propName, " ", "_")
		fieldType, err := c.schemaToType(nestedName, propSchema, false)
		if err != nil {
			return nil, err
		}

		isRequired := requiredSet[propName] && !forceOptional && !isNullable(propSchema)
		if !isRequired && fieldType.Kind != KindOptional {
			fieldType = &Type{Kind: KindOptional, Elem: fieldType}
		}

		sanitized, alias := SanitizeFieldName(propName, used)
		description, _ := propSchema["description"].(string)
		fields = append(fields, Field{
			Name:        sanitized,
			Alias:       alias,
			Type:        fieldType,
			Required:    isRequired,
			Default:     propSchema["default"],
			Description: description,
		})
	}

	// A record with no declared properties accepts anything through a
	// single optional catch-all field.
	if len(fields) == 0 {
		fields = append(fields, Field{
			Name: "value",
			Type: &Type{Kind: KindOptional, Elem: &Type{Kind: KindAny}},
		})
	}

	rec.Fields = fields
	return rec, nil
}

func requiredNames(schema map[string]any) map[string]bool {
	set := make(map[string]bool)
	raw, _ := schema["required"].([]any)
	for _, v := range raw {
		if s, ok := v.(string); ok {
			set[s] = true
		}
	}
	return set
}

// canonicalName derives a unique model name from a lookup name. Anonymous
// or colliding names receive a process-wide increasing suffix.
func (c *Compiler) canonicalName(name string) string {
	if name == "" {
		c.anonIndex++
		return fmt.Sprintf("AnonymousModel%d", c.anonIndex)
	}
	var b strings.Builder
	for _, r := range titleCase(name) {
		if isAlnum(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	sanitized := b.String()
	if sanitized != "" && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "Model_" + sanitized
	}
	if sanitized == "" {
		c.anonIndex++
		sanitized = fmt.Sprintf("Model_%d", c.anonIndex)
	} else if c.usedNames[sanitized] {
		c.anonIndex++
		sanitized = fmt.Sprintf("%s_%d", sanitized, c.anonIndex)
	}
	c.usedNames[sanitized] = true
	return sanitized
}

// SanitizeFieldName makes a wire name identifier-safe: disallowed runes are
// replaced with underscores, a leading digit gets a "field_" prefix, and
// collisions within the record take a counter suffix. The returned alias is
// the original name when sanitization changed it, "" otherwise.
func SanitizeFieldName(name string, used map[string]bool) (sanitized, alias string) {
	var b strings.Builder
	for _, r := range name {
		if isAlnum(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	sanitized = b.String()
	if sanitized == "" {
		sanitized = "field"
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "field_" + sanitized
	}
	candidate := sanitized
	for index := 1; used[candidate]; {
		index++
		candidate = fmt.Sprintf("%s_%d", sanitized, index)
	}
	used[candidate] = true
	if candidate != name {
		alias = name
	}
	return candidate, alias
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// titleCase uppercases the first letter of every alphanumeric run and
// lowercases the rest, mirroring how component paths become model names.
func titleCase(s string) string {
	var b strings.Builder
	startOfWord := true
	for _, r := range s {
		switch {
		case !isAlnum(r):
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			startOfWord = false
		default:
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
