package tool

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRegistryResolvesBuiltin(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterBuiltin(&echoTool{name: "echo"})

	got, ok := reg.Resolve(context.Background(), "echo")
	if !ok {
		t.Fatalf("expected to resolve builtin echo")
	}
	if got.Name() != "echo" {
		t.Fatalf("unexpected tool: %s", got.Name())
	}
}

func TestRegistryResolveUnknownFailsWithoutMCP(t *testing.T) {
	reg := NewRegistry(nil)
	if _, ok := reg.Resolve(context.Background(), "missing"); ok {
		t.Fatalf("expected unknown tool to fail to resolve")
	}
}

func TestDescribeToolsExcludesItself(t *testing.T) {
	reg := NewRegistry(nil)
	dt := NewDescribeTools(reg)
	reg.RegisterBuiltin(dt)
	reg.RegisterBuiltin(&echoTool{name: "echo"})

	outcome := dt.Execute(context.Background(), nil, nil)
	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("expected success outcome, got %+v", outcome)
	}
	var listed []map[string]any
	if err := json.Unmarshal([]byte(outcome.Content), &listed); err != nil {
		t.Fatalf("decode describe_tools output: %v", err)
	}
	for _, tl := range listed {
		if tl["name"] == describeToolsName {
			t.Fatalf("describe_tools should not list itself")
		}
	}
}
