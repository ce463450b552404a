package config

import "testing"

func TestDecodeFileTOML(t *testing.T) {
	out, err := decodeFile("config.toml", []byte(`
default_provider = "openai"
[cache]
ttl_hours = 12
`))
	if err != nil {
		t.Fatalf("decodeFile: %v", err)
	}
	if out["default_provider"] != "openai" {
		t.Fatalf("default_provider = %v", out["default_provider"])
	}
	cache := out["cache"].(map[string]any)
	if cache["ttl_hours"] != int64(12) {
		t.Fatalf("cache.ttl_hours = %v (%T)", cache["ttl_hours"], cache["ttl_hours"])
	}
}

func TestDecodeFileJSON5AllowsComments(t *testing.T) {
	out, err := decodeFile("config.json5", []byte(`{
		// trailing commas and comments are fine in json5
		default_provider: "anthropic",
	}`))
	if err != nil {
		t.Fatalf("decodeFile: %v", err)
	}
	if out["default_provider"] != "anthropic" {
		t.Fatalf("default_provider = %v", out["default_provider"])
	}
}

func TestDecodeFileYAMLNormalizesNestedMaps(t *testing.T) {
	out, err := decodeFile("config.yaml", []byte(`
mcp:
  servers:
    - name: search
      command: search-server
`))
	if err != nil {
		t.Fatalf("decodeFile: %v", err)
	}
	mcp, ok := out["mcp"].(map[string]any)
	if !ok {
		t.Fatalf("mcp is %T, want map[string]any", out["mcp"])
	}
	servers, ok := mcp["servers"].([]any)
	if !ok || len(servers) != 1 {
		t.Fatalf("mcp.servers = %+v", mcp["servers"])
	}
	first, ok := servers[0].(map[string]any)
	if !ok || first["name"] != "search" {
		t.Fatalf("mcp.servers[0] = %+v (%T)", servers[0], servers[0])
	}
}

func TestDecodeFileRejectsUnknownExtension(t *testing.T) {
	if _, err := decodeFile("config.ini", []byte("x=1")); err == nil {
		t.Fatal("expected error for unrecognized extension")
	}
}
