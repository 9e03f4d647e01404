package spec

import (
	"testing"
)

func parseDoc(t *testing.T, doc map[string]any) []*Operation {
	t.Helper()
	p, err := NewParser(doc)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	ops, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ops
}

func TestNewParser_RequiresPaths(t *testing.T) {
	if _, err := NewParser(map[string]any{"info": map[string]any{}}); err == nil {
		t.Fatal("NewParser accepted a document without paths")
	}
}

func TestParse_OperationNames(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/users/{id}": map[string]any{
				"get": map[string]any{},
				"delete": map[string]any{
					"operationId": "Remove User!",
				},
			},
			"/users/{id}/posts": map[string]any{
				"get": map[string]any{},
			},
		},
	}
	ops := parseDoc(t, doc)
	got := make(map[string]bool)
	for _, op := range ops {
		got[op.Name] = true
	}
	for _, want := range []string{"get_users_by_id", "remove_user", "get_users_by_id_posts"} {
		if !got[want] {
			t.Errorf("operation %q missing; got %v", want, got)
		}
	}
}

func TestParse_MethodsAndOrder(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/b": map[string]any{
				"get":     map[string]any{},
				"head":    map[string]any{}, // unsupported, skipped
				"summary": "not a method",
			},
			"/a": map[string]any{
				"post": map[string]any{},
			},
		},
	}
	ops := parseDoc(t, doc)
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2", len(ops))
	}
	if ops[0].Path != "/a" || ops[1].Path != "/b" {
		t.Errorf("paths out of order: %s, %s", ops[0].Path, ops[1].Path)
	}
}

func TestParse_ParametersFromBothLevels(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/users/{id}": map[string]any{
				"parameters": []any{
					map[string]any{"name": "id", "in": "path", "required": true,
						"schema": map[string]any{"type": "integer"}},
				},
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "expand", "in": "query",
							"schema": map[string]any{"type": "string"}},
						map[string]any{"name": "id", "in": "path", "required": true,
							"schema": map[string]any{"type": "integer"}},
						map[string]any{"name": "session", "in": "cookie"},
					},
				},
			},
		},
	}
	ops := parseDoc(t, doc)
	op := ops[0]
	// Path-level and operation-level declarations are both kept, even for
	// the same name.
	if len(op.PathParams) != 2 {
		t.Errorf("got %d path params, want 2 (no dedup)", len(op.PathParams))
	}
	if len(op.QueryParams) != 1 || op.QueryParams[0].Name != "expand" {
		t.Errorf("query params = %+v, want just expand", op.QueryParams)
	}
}

func TestParse_ResponseSchemaPriority(t *testing.T) {
	mkResponse := func(marker string) map[string]any {
		return map[string]any{
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"type": "string", "description": marker},
				},
			},
		}
	}
	doc := map[string]any{
		"paths": map[string]any{
			"/a": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"default": mkResponse("default"),
						"201":     mkResponse("created"),
						"404":     mkResponse("not found"),
					},
				},
			},
		},
	}
	ops := parseDoc(t, doc)
	if ops[0].ResponseSchema == nil {
		t.Fatal("no response schema extracted")
	}
	if got := ops[0].ResponseSchema["description"]; got != "created" {
		t.Errorf("picked %v, want the 201 schema", got)
	}
	if ops[0].ResponseType == nil {
		t.Error("response type not compiled")
	}
}

func TestParse_ResponseSchemaVendorJSON(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/a": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": map[string]any{
							"content": map[string]any{
								"text/plain": map[string]any{
									"schema": map[string]any{"type": "string"},
								},
								"application/vnd.api+json": map[string]any{
									"schema": map[string]any{"type": "object", "properties": map[string]any{
										"ok": map[string]any{"type": "boolean"},
									}},
								},
							},
						},
					},
				},
			},
		},
	}
	ops := parseDoc(t, doc)
	if ops[0].ResponseType == nil || ops[0].ResponseType.Kind != KindRecord {
		t.Errorf("vendor JSON media type not honored: %+v", ops[0].ResponseType)
	}
}

func TestParse_RequestBody(t *testing.T) {
	doc := map[string]any{
		"paths": map[string]any{
			"/a": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"title": map[string]any{"type": "string"},
									},
								},
							},
						},
					},
				},
				"get": map[string]any{},
			},
		},
	}
	ops := parseDoc(t, doc)
	var post *Operation
	for _, op := range ops {
		if op.Method == "post" {
			post = op
		}
	}
	if post.BodyType == nil || !post.BodyRequired {
		t.Errorf("body = %+v required = %v, want compiled required body", post.BodyType, post.BodyRequired)
	}
	for _, op := range ops {
		if op.Method == "get" && op.BodyType != nil {
			t.Error("get operation has a body type")
		}
	}
}

func TestParse_SecurityOverride(t *testing.T) {
	doc := map[string]any{
		"security": []any{
			map[string]any{"globalKey": []any{}},
		},
		"paths": map[string]any{
			"/default": map[string]any{"get": map[string]any{}},
			"/override": map[string]any{
				"get": map[string]any{
					"security": []any{
						map[string]any{"opKey": []any{"read"}},
					},
				},
			},
			"/none": map[string]any{
				"get": map[string]any{
					"security": []any{},
				},
			},
		},
	}
	ops := parseDoc(t, doc)
	byPath := make(map[string]*Operation)
	for _, op := range ops {
		byPath[op.Path] = op
	}

	if got := byPath["/default"].Security; len(got) != 1 || got[0].Schemes[0] != "globalKey" {
		t.Errorf("/default security = %+v, want global default", got)
	}
	if got := byPath["/override"].Security; len(got) != 1 || got[0].Schemes[0] != "opKey" {
		t.Errorf("/override security = %+v, want operation-level", got)
	}
	if got := byPath["/override"].Security[0].Scopes["opKey"]; len(got) != 1 || got[0] != "read" {
		t.Errorf("scopes = %v, want [read]", got)
	}
	// An empty operation-level list still replaces the default entirely.
	if got := byPath["/none"].Security; len(got) != 0 {
		t.Errorf("/none security = %+v, want empty", got)
	}
}

func TestToIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"listUsers", "listusers"},
		{"Remove User!", "remove_user"},
		{"a--b", "a_b"},
		{"__x__", "x"},
		{"42nd", "op_42nd"},
		{"", "operation"},
		{"///", "operation"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := toIdentifier(tc.input); got != tc.want {
				t.Errorf("toIdentifier(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
