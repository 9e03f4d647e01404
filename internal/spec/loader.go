package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an OpenAPI document from a JSON or YAML file. The content is
// tried as JSON first and as YAML on failure, and must decode to an object.
func Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spec: reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("spec: %s is neither valid JSON nor YAML: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("spec: %s must decode to an object", path)
	}
	return doc, nil
}

// ExtractBaseURL returns the first non-empty servers[].url entry, or ""
// when the document declares no usable server.
func ExtractBaseURL(doc map[string]any) string {
	servers, ok := doc["servers"].([]any)
	if !ok {
		return ""
	}
	for _, raw := range servers {
		server, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if url, ok := server["url"].(string); ok {
			if trimmed := strings.TrimSpace(url); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
