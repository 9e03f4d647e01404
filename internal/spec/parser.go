package spec

import (
	"fmt"
	"sort"
	"strings"
)

// jsonMediaTypes are the response/request media types treated as JSON.
var jsonMediaTypes = []string{"application/json", "application/vnd.api+json"}

// responseStatusPriority is the order in which response entries are scanned
// for a JSON schema; the first hit wins.
var responseStatusPriority = []string{"200", "201", "202", "default"}

// supportedMethods are the HTTP methods compiled into operations, in the
// order they are emitted for each path.
var supportedMethods = []string{"get", "post", "put", "patch", "delete"}

// Parser walks a decoded OpenAPI document and produces the operation set.
type Parser struct {
	doc             map[string]any
	compiler        *Compiler
	securitySchemes map[string]map[string]any
	globalSecurity  []SecurityRequirement
}

// NewParser validates the document shape and prepares a parser. A document
// without a paths map is rejected.
func NewParser(doc map[string]any) (*Parser, error) {
	if _, ok := doc["paths"].(map[string]any); !ok {
		return nil, fmt.Errorf("openapi document must define a paths object")
	}
	return &Parser{
		doc:             doc,
		compiler:        NewCompiler(doc),
		securitySchemes: parseSecuritySchemes(doc),
		globalSecurity:  parseSecurityList(doc["security"]),
	}, nil
}

// Compiler returns the schema compiler backing this parser.
func (p *Parser) Compiler() *Compiler { return p.compiler }

// SecuritySchemes returns the raw security scheme declarations from
// components.securitySchemes, keyed by scheme name.
func (p *Parser) SecuritySchemes() map[string]map[string]any { return p.securitySchemes }

// Parse compiles every operation in the document. Operations are emitted in
// lexical path order so the registered tool set is deterministic.
func (p *Parser) Parse() ([]*Operation, error) {
	paths := p.doc["paths"].(map[string]any)

	pathKeys := make([]string, 0, len(paths))
	for path := range paths {
		pathKeys = append(pathKeys, path)
	}
	sort.Strings(pathKeys)

	var operations []*Operation
	for _, path := range pathKeys {
		pathItem, ok := paths[path].(map[string]any)
		if !ok {
			continue
		}
		commonParams, _ := pathItem["parameters"].([]any)
		for _, method := range supportedMethods {
			raw, ok := pathItem[method]
			if !ok {
				continue
			}
			operation, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			op, err := p.compileOperation(method, path, operation, commonParams)
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
		}
	}
	return operations, nil
}

func (p *Parser) compileOperation(method, path string, operation map[string]any, commonParams []any) (*Operation, error) {
	name := p.operationName(method, path, operation)

	operationParams, _ := operation["parameters"].([]any)
	pathParams, queryParams, err := p.collectParameters(commonParams, operationParams)
	if err != nil {
		return nil, err
	}

	op := &Operation{
		Name:        name,
		Method:      method,
		Path:        path,
		PathParams:  pathParams,
		QueryParams: queryParams,
	}
	if summary, ok := operation["summary"].(string); ok {
		op.Summary = summary
	}

	if responseSchema := extractResponseSchema(operation); responseSchema != nil {
		op.ResponseSchema = responseSchema
		responseType, err := p.compiler.CompileResponse(name+"_response", responseSchema)
		if err != nil {
			return nil, err
		}
		op.ResponseType = responseType
	}

	bodySchema, bodyRequired := extractRequestBody(operation)
	op.BodyRequired = bodyRequired
	if bodySchema != nil {
		bodyType, err := p.compiler.CompileRequestBody(name+"_body", bodySchema)
		if err != nil {
			return nil, err
		}
		op.BodyType = bodyType
	}

	// An operation-level security list, even an empty one, replaces the
	// document default entirely.
	if rawSecurity, ok := operation["security"]; ok {
		op.Security = parseSecurityList(rawSecurity)
	} else {
		op.Security = p.globalSecurity
	}
	return op, nil
}

// collectParameters gathers path-level and operation-level parameters.
// Both levels are included as declared; names colliding across the two
// levels are not deduplicated.
func (p *Parser) collectParameters(commonParams, operationParams []any) (pathParams, queryParams []Parameter, err error) {
	all := make([]any, 0, len(commonParams)+len(operationParams))
	all = append(all, commonParams...)
	all = append(all, operationParams...)

	for _, raw := range all {
		param, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		location, _ := param["in"].(string)
		if location != "path" && location != "query" {
			continue
		}
		schema, _ := param["schema"].(map[string]any)
		if schema == nil {
			schema = map[string]any{}
		}
		if ref, ok := schema["$ref"].(string); ok {
			schema, err = p.compiler.ResolveRef(ref)
			if err != nil {
				return nil, nil, err
			}
		}
		name, _ := param["name"].(string)
		if name == "" {
			name = "unknown"
		}
		required, _ := param["required"].(bool)
		description, _ := param["description"].(string)
		compiled := Parameter{
			Name:        name,
			In:          location,
			Required:    required,
			Schema:      schema,
			Description: description,
		}
		if location == "path" {
			pathParams = append(pathParams, compiled)
		} else {
			queryParams = append(queryParams, compiled)
		}
	}
	return pathParams, queryParams, nil
}

func extractResponseSchema(operation map[string]any) map[string]any {
	responses, ok := operation["responses"].(map[string]any)
	if !ok {
		return nil
	}
	for _, status := range responseStatusPriority {
		response, ok := responses[status].(map[string]any)
		if !ok {
			continue
		}
		if schema := jsonContentSchema(response["content"]); schema != nil {
			return schema
		}
	}
	return nil
}

func extractRequestBody(operation map[string]any) (schema map[string]any, required bool) {
	requestBody, ok := operation["requestBody"].(map[string]any)
	if !ok {
		return nil, false
	}
	required, _ = requestBody["required"].(bool)
	return jsonContentSchema(requestBody["content"]), required
}

func jsonContentSchema(rawContent any) map[string]any {
	content, ok := rawContent.(map[string]any)
	if !ok {
		return nil
	}
	for _, mime := range jsonMediaTypes {
		media, ok := content[mime].(map[string]any)
		if !ok {
			continue
		}
		if schema, ok := media["schema"].(map[string]any); ok {
			return schema
		}
	}
	return nil
}

// operationName slugs the operationId when present, otherwise synthesizes a
// name from the method and path segments, rewriting {x} to by_x.
func (p *Parser) operationName(method, path string, operation map[string]any) string {
	if opID, ok := operation["operationId"].(string); ok {
		return toIdentifier(opID)
	}
	parts := []string{method}
	for _, piece := range strings.Split(strings.Trim(path, "/"), "/") {
		if piece == "" {
			continue
		}
		if strings.HasPrefix(piece, "{") && strings.HasSuffix(piece, "}") {
			parts = append(parts, "by", piece[1:len(piece)-1])
		} else {
			parts = append(parts, piece)
		}
	}
	return toIdentifier(strings.Join(parts, "_"))
}

// toIdentifier lowercases and replaces disallowed runes with underscores,
// collapsing runs and trimming the ends. Operation names are unique slugs
// as long as operationIds are; synthesized names inherit path uniqueness.
func toIdentifier(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if isAlnum(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	identifier := b.String()
	for strings.Contains(identifier, "__") {
		identifier = strings.ReplaceAll(identifier, "__", "_")
	}
	identifier = strings.ToLower(strings.Trim(identifier, "_"))
	if identifier == "" {
		return "operation"
	}
	if identifier[0] >= '0' && identifier[0] <= '9' {
		identifier = "op_" + identifier
	}
	return identifier
}

func parseSecuritySchemes(doc map[string]any) map[string]map[string]any {
	schemes := make(map[string]map[string]any)
	components, _ := doc["components"].(map[string]any)
	raw, _ := components["securitySchemes"].(map[string]any)
	for name, value := range raw {
		if scheme, ok := value.(map[string]any); ok {
			schemes[name] = scheme
		}
	}
	return schemes
}

// parseSecurityList converts a raw security array into requirements. JSON
// decoding does not preserve key order inside a requirement object, so
// scheme names are sorted to keep negotiation deterministic.
func parseSecurityList(raw any) []SecurityRequirement {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	requirements := make([]SecurityRequirement, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		req := SecurityRequirement{Scopes: make(map[string][]string)}
		for scheme, rawScopes := range obj {
			req.Schemes = append(req.Schemes, scheme)
			if scopeList, ok := rawScopes.([]any); ok {
				for _, s := range scopeList {
					if scope, ok := s.(string); ok {
						req.Scopes[scheme] = append(req.Scopes[scheme], scope)
					}
				}
			}
		}
		sort.Strings(req.Schemes)
		requirements = append(requirements, req)
	}
	return requirements
}
