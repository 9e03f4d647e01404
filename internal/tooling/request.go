// Package tooling turns compiled operations into registered tools: one
// composite callable-parameter model per operation, plus the mapping tables
// front-ends need to translate caller arguments back to wire names.
package tooling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guillaumegay13/fieldflow/internal/spec"
)

// Tool is one registered callable operation. Tools are built once at
// startup and never mutated.
type Tool struct {
	Operation *spec.Operation

	// Model is the composite parameter record: one field per path/query
	// parameter, an optional body field, and the implicit fields selector.
	Model *spec.Type

	// PathMap and QueryMap map wire parameter names to the sanitized
	// field names exposed on the model.
	PathMap  map[string]string
	QueryMap map[string]string

	// BodyField and FieldsField are the sanitized names of the body and
	// selector fields. BodyField is "" when the operation takes no body.
	BodyField   string
	FieldsField string
}

// ValidationError is a client-input fault raised while binding call
// arguments, before any network activity.
type ValidationError struct {
	MissingParams []string
	Reason        string
}

func (e *ValidationError) Error() string {
	if len(e.MissingParams) > 0 {
		return fmt.Sprintf("missing required parameters: %s", strings.Join(e.MissingParams, ", "))
	}
	return e.Reason
}

// Build assembles the composite parameter model for an operation.
func Build(op *spec.Operation, compiler *spec.Compiler) (*Tool, error) {
	tool := &Tool{
		Operation: op,
		PathMap:   make(map[string]string),
		QueryMap:  make(map[string]string),
	}
	used := make(map[string]bool)
	var fields []spec.Field

	addParam := func(param spec.Parameter, mapping map[string]string) error {
		sanitized, alias := spec.SanitizeFieldName(param.Name, used)
		paramType, err := compiler.TypeForParameter(param)
		if err != nil {
			return err
		}
		defaultValue, hasDefault := param.Schema["default"]
		if !param.Required && paramType.Kind != spec.KindOptional {
			paramType = &spec.Type{Kind: spec.KindOptional, Elem: paramType}
		}
		mapping[param.Name] = sanitized
		fields = append(fields, spec.Field{
			Name:  sanitized,
			Alias: alias,
			Type:  paramType,
			// A declared default makes even a required parameter
			// optional at call time.
			Required:    param.Required && !hasDefault,
			Default:     defaultValue,
			Description: param.Description,
		})
		return nil
	}

	for _, param := range op.PathParams {
		if err := addParam(param, tool.PathMap); err != nil {
			return nil, err
		}
	}
	for _, param := range op.QueryParams {
		if err := addParam(param, tool.QueryMap); err != nil {
			return nil, err
		}
	}

	if op.BodyType != nil {
		sanitized, _ := spec.SanitizeFieldName("body", used)
		tool.BodyField = sanitized
		bodyType := op.BodyType
		if !op.BodyRequired && bodyType.Kind != spec.KindOptional {
			bodyType = &spec.Type{Kind: spec.KindOptional, Elem: bodyType}
		}
		fields = append(fields, spec.Field{
			Name:        sanitized,
			Type:        bodyType,
			Required:    op.BodyRequired,
			Description: "JSON request body",
		})
	}

	fieldsName, _ := spec.SanitizeFieldName("fields", used)
	tool.FieldsField = fieldsName
	fields = append(fields, spec.Field{
		Name: fieldsName,
		Type: &spec.Type{Kind: spec.KindOptional, Elem: &spec.Type{
			Kind: spec.KindList,
			Elem: &spec.Type{Kind: spec.KindString},
		}},
		Description: "Subset of response properties to include in the result.",
	})

	tool.Model = &spec.Type{
		Kind:   spec.KindRecord,
		Name:   op.Name + "_payload",
		Fields: fields,
	}
	return tool, nil
}

// BuildAll compiles the full registered-tool set.
func BuildAll(operations []*spec.Operation, compiler *spec.Compiler) ([]*Tool, error) {
	tools := make([]*Tool, 0, len(operations))
	for _, op := range operations {
		tool, err := Build(op, compiler)
		if err != nil {
			return nil, fmt.Errorf("tooling: building model for %s: %w", op.Name, err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Call holds one bound invocation, keyed by wire names and ready for the
// proxy pipeline.
type Call struct {
	PathParams  map[string]any
	QueryParams map[string]any
	Body        map[string]any
	Fields      []string
}

// BindArguments validates a caller's argument object against the tool
// model. Arguments are keyed by sanitized field names; original wire names
// are honored as aliases. An absent argument falls back to the parameter's
// schema default; a required parameter with neither is a validation error.
func (t *Tool) BindArguments(args map[string]any) (*Call, error) {
	call := &Call{
		PathParams:  make(map[string]any),
		QueryParams: make(map[string]any),
	}

	var missing []string
	for wire, canonical := range t.PathMap {
		value := lookupArg(args, canonical, wire)
		if value == nil {
			value = t.field(canonical).Default
		}
		if value == nil {
			missing = append(missing, wire)
			continue
		}
		call.PathParams[wire] = value
	}

	for wire, canonical := range t.QueryMap {
		field := t.field(canonical)
		value := lookupArg(args, canonical, wire)
		if value == nil {
			value = field.Default
		}
		if value == nil {
			if field.Required {
				missing = append(missing, wire)
			}
			continue
		}
		call.QueryParams[wire] = value
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ValidationError{MissingParams: missing}
	}

	if t.BodyField != "" {
		switch body := args[t.BodyField].(type) {
		case nil:
			if t.Operation.BodyRequired {
				return nil, &ValidationError{Reason: "request body is required"}
			}
		case map[string]any:
			call.Body = body
		default:
			return nil, &ValidationError{Reason: "request body must be an object"}
		}
	}

	fields, err := stringList(args[t.FieldsField])
	if err != nil {
		return nil, err
	}
	call.Fields = fields
	return call, nil
}

// field returns the model field with the given sanitized name.
func (t *Tool) field(name string) spec.Field {
	for _, f := range t.Model.Fields {
		if f.Name == name {
			return f
		}
	}
	return spec.Field{}
}

func lookupArg(args map[string]any, canonical, wire string) any {
	if value, ok := args[canonical]; ok && value != nil {
		return value
	}
	if value, ok := args[wire]; ok {
		return value
	}
	return nil
}

func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Reason: "fields must be a list of strings"}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &ValidationError{Reason: "fields must be a list of strings"}
	}
}
