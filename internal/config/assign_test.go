package config

import (
	"strings"
	"testing"
)

func TestParseAssignmentOperators(t *testing.T) {
	cases := []struct {
		in       string
		wantPath []string
		wantOp   AssignOp
		wantVal  string
	}{
		{"default_provider=openai", []string{"default_provider"}, OpReplaceString, "openai"},
		{"assistant.temperature:=0.9", []string{"assistant", "temperature"}, OpReplaceJSON, "0.9"},
		{"mcp.servers+=foo", []string{"mcp", "servers"}, OpAppend, "foo"},
		{`mcp.servers:+={"name":"foo"}`, []string{"mcp", "servers"}, OpAppendJSON, `{"name":"foo"}`},
	}
	for _, c := range cases {
		got, err := ParseAssignment(c.in)
		if err != nil {
			t.Fatalf("ParseAssignment(%q): %v", c.in, err)
		}
		if got.Op != c.wantOp || got.Value != c.wantVal || !equalSlices(got.Path, c.wantPath) {
			t.Fatalf("ParseAssignment(%q) = %+v, want path=%v op=%v val=%q", c.in, got, c.wantPath, c.wantOp, c.wantVal)
		}
	}
}

func TestParseAssignmentRejectsMissingEquals(t *testing.T) {
	if _, err := ParseAssignment("default_provider"); err == nil {
		t.Fatal("expected error for assignment with no '='")
	}
}

func TestApplyReplaceString(t *testing.T) {
	target := Empty()
	ref := DefaultsPartial()
	a, err := ParseAssignment("default_provider=anthropic")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := Apply(target, ref, a); err != nil {
		t.Fatalf("apply: %v", err)
	}
	m := target.Materialize().(map[string]any)
	if m["default_provider"] != "anthropic" {
		t.Fatalf("default_provider = %v", m["default_provider"])
	}
}

func TestApplyUnknownKeyListsReachableKeys(t *testing.T) {
	target := Empty()
	ref := DefaultsPartial()
	a, _ := ParseAssignment("no_such_key=value")
	err := Apply(target, ref, a)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "reachable keys") || !strings.Contains(err.Error(), "default_provider") {
		t.Fatalf("error does not list reachable keys: %v", err)
	}
}

func TestApplyAppend(t *testing.T) {
	target := Empty()
	ref := DefaultsPartial()
	a1, _ := ParseAssignment("mcp.servers+=first")
	if err := Apply(target, ref, a1); err != nil {
		t.Fatalf("apply 1: %v", err)
	}
	a2, _ := ParseAssignment("mcp.servers+=second")
	if err := Apply(target, ref, a2); err != nil {
		t.Fatalf("apply 2: %v", err)
	}
	m := target.Materialize().(map[string]any)
	servers := m["mcp"].(map[string]any)["servers"].([]any)
	if len(servers) != 2 || servers[0] != "first" || servers[1] != "second" {
		t.Fatalf("servers = %+v", servers)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
