package tooling

import "github.com/guillaumegay13/fieldflow/internal/spec"

// InputSchema emits the tool's composite parameter model as a JSON Schema
// document, the contract both front-ends publish for the tool.
func (t *Tool) InputSchema() map[string]any {
	return schemaForType(t.Model, make(map[*spec.Type]bool))
}

// SchemaForType converts a compiled type descriptor into a JSON Schema
// fragment. Optional wrappers are transparent: optionality is expressed
// through the enclosing record's required list.
func SchemaForType(t *spec.Type) map[string]any {
	return schemaForType(t, make(map[*spec.Type]bool))
}

func schemaForType(t *spec.Type, inProgress map[*spec.Type]bool) map[string]any {
	switch t.Kind {
	case spec.KindOptional:
		return schemaForType(t.Elem, inProgress)
	case spec.KindString:
		schema := map[string]any{"type": "string"}
		if t.Format != "" {
			schema["format"] = t.Format
		}
		return schema
	case spec.KindInteger:
		return map[string]any{"type": "integer"}
	case spec.KindNumber:
		return map[string]any{"type": "number"}
	case spec.KindBoolean:
		return map[string]any{"type": "boolean"}
	case spec.KindList:
		return map[string]any{"type": "array", "items": schemaForType(t.Elem, inProgress)}
	case spec.KindRecord:
		// Break reference cycles: a record already being emitted appears
		// as a bare object.
		if inProgress[t] {
			return map[string]any{"type": "object", "title": t.Name}
		}
		inProgress[t] = true
		defer delete(inProgress, t)

		properties := make(map[string]any, len(t.Fields))
		var required []string
		for _, field := range t.Fields {
			fieldSchema := schemaForType(field.Type, inProgress)
			if field.Description != "" {
				fieldSchema["description"] = field.Description
			}
			if field.Default != nil {
				fieldSchema["default"] = field.Default
			}
			properties[field.Name] = fieldSchema
			if field.Required {
				required = append(required, field.Name)
			}
		}
		schema := map[string]any{
			"type":       "object",
			"title":      t.Name,
			"properties": properties,
		}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	default:
		return map[string]any{}
	}
}
