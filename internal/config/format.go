package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// knownExtensions lists the file extensions the resolver recognizes, in the
// order file discovery tries them when more than one candidate exists in a
// directory.
var knownExtensions = []string{"toml", "json", "json5", "yaml", "yml"}

// knownStems lists the file-name stems (sans extension) file discovery
// looks for.
var knownStems = []string{"config", ".jp"}

// decodeFile reads and decodes a configuration file into a generic value
// tree (map[string]any / []any / scalars), dispatching on its extension.
func decodeFile(path string, data []byte) (map[string]any, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	out := make(map[string]any)

	switch ext {
	case "toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("config: parse TOML %s: %w", path, err)
		}
	case "json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("config: parse JSON %s: %w", path, err)
		}
	case "json5":
		if err := json5.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("config: parse JSON5 %s: %w", path, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("config: parse YAML %s: %w", path, err)
		}
		out = normalizeYAMLMaps(out).(map[string]any)
	default:
		return nil, fmt.Errorf("config: unrecognized extension %q for %s", ext, path)
	}
	return out, nil
}

// normalizeYAMLMaps converts the map[string]interface{}/map[interface{}]interface{}
// mix yaml.v3 can produce into the map[string]any shape the rest of the
// resolver assumes.
func normalizeYAMLMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMaps(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLMaps(val)
		}
		return out
	default:
		return v
	}
}
