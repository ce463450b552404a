package tool

import "encoding/json"

// renderArguments formats a tool call's arguments as indented JSON for
// presentation in an edit-mode inquiry.
func renderArguments(arguments map[string]any) string {
	data, err := json.MarshalIndent(arguments, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// parseArguments reparses an edited arguments string back into a map.
func parseArguments(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	return out, nil
}
