package config

// compiledDefaults is the lowest-precedence layer: every key the resolver
// knows about, with a sensible out-of-the-box value. It also doubles as the
// reference tree that key-path assignment validates paths against, so every
// assignable key must have an entry here.
func compiledDefaults() map[string]any {
	return map[string]any{
		"default_provider": "",
		"providers":        map[string]any{},
		"mcp": map[string]any{
			"upstream": "",
			"servers":  []any{},
		},
		"cache": map[string]any{
			"ttl_hours": float64(24),
		},
		"assistant": map[string]any{
			"temperature": 0.7,
			"max_tokens":  float64(4096),
			"model":       "",
		},
		"tool": map[string]any{
			"default_run":    "ask",
			"default_result": "always",
			"approvals":      map[string]any{},
			"choice":         "auto",
		},
		"ui": map[string]any{
			"syntax_theme": "vulcan",
		},
	}
}

// DefaultsPartial returns the compiled-in defaults as a Partial tree with
// every leaf tagged LeafDefault.
func DefaultsPartial() *Partial {
	return FromValue(compiledDefaults(), LeafDefault)
}
