package jetschema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompileJSON decodes a JSON schema description and compiles it.
func CompileJSON(data []byte) (*Schema, error) {
	var desc map[string]any
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, invalidSchema()
	}
	return Compile(desc)
}

// CompileYAML decodes a YAML schema description and compiles it. The YAML
// tree is normalized to the JSON-like map[string]any shape Compile expects.
func CompileYAML(data []byte) (*Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, invalidSchema()
	}
	desc := yamlAnyToStringMap(node)
	if desc == nil {
		return nil, invalidSchema()
	}
	return Compile(desc)
}

// CompileFile loads a schema description from a .json, .yaml, or .yml file.
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return CompileYAML(data)
	default:
		return CompileJSON(data)
	}
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively. Non-map roots
// return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
