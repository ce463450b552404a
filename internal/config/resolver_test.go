package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestResolvePrecedenceChain checks the file, conversation and CLI layers of
// the chain. The contested field (assistant.model) is set at the user-global,
// workspace, CWD, conversation and CLI layers, and only the CLI value
// survives; max_tokens (workspace), syntax_theme (CWD) and ttl_hours
// (user-global) are each set by one layer only and must come through. The
// env layer is not set here.
func TestResolvePrecedenceChain(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	userGlobalDir := filepath.Join(home, ".config", "jp")
	if err := os.MkdirAll(userGlobalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(userGlobalDir, "config.toml"), `
assistant.model = "user-global-model"
cache.ttl_hours = 1
`)

	workspace := t.TempDir()
	writeFile(t, filepath.Join(workspace, "config.yaml"), `
assistant:
  model: workspace-model
  max_tokens: 2048
`)

	cwd := filepath.Join(workspace, "sub", "dir")
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(cwd, ".jp.json"), `{"assistant": {"model": "cwd-model"}, "ui": {"syntax_theme": "nord"}}`)

	r := NewResolver(workspace, cwd)
	r.SetConversationPartial(objPartial(map[string]*Partial{
		"assistant": objPartial(map[string]*Partial{"model": leafStr("conversation-model")}),
	}))
	if err := r.SetCLIAssignments([]string{"assistant.model=cli-model"}); err != nil {
		t.Fatalf("SetCLIAssignments: %v", err)
	}

	merged, watched, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(watched) == 0 {
		t.Fatal("expected at least one watched path")
	}

	cfg, err := Decode(merged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cfg.Assistant.Model != "cli-model" {
		t.Fatalf("assistant.model = %q, want cli-model (CLI must win)", cfg.Assistant.Model)
	}
	if cfg.Assistant.MaxTokens != 2048 {
		t.Fatalf("assistant.max_tokens = %d, want 2048 from workspace layer", cfg.Assistant.MaxTokens)
	}
	if cfg.UI.SyntaxTheme != "nord" {
		t.Fatalf("ui.syntax_theme = %q, want nord from CWD-upward layer", cfg.UI.SyntaxTheme)
	}
	if cfg.Cache.TTLHours != 1 {
		t.Fatalf("cache.ttl_hours = %d, want 1 from user-global layer", cfg.Cache.TTLHours)
	}
}

// TestResolveWithoutCLIFallsToConversation confirms that dropping the CLI
// layer exposes the next one down (per-conversation).
func TestResolveWithoutCLIFallsToConversation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	workspace := t.TempDir()
	r := NewResolver(workspace, workspace)
	r.SetConversationPartial(objPartial(map[string]*Partial{
		"assistant": objPartial(map[string]*Partial{"model": leafStr("conversation-model")}),
	}))

	merged, _, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	cfg, err := Decode(merged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Assistant.Model != "conversation-model" {
		t.Fatalf("assistant.model = %q, want conversation-model", cfg.Assistant.Model)
	}
}

// TestResolveFallsBackToCompiledDefaults proves an empty environment (no
// files, no env vars, no overlays) still resolves to the compiled defaults.
func TestResolveFallsBackToCompiledDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	workspace := t.TempDir()
	r := NewResolver(workspace, workspace)
	merged, watched, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(watched) != 0 {
		t.Fatalf("expected no watched paths, got %v", watched)
	}
	cfg, err := Decode(merged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Fatalf("cache.ttl_hours = %d, want compiled default 24", cfg.Cache.TTLHours)
	}
	if cfg.UI.SyntaxTheme != "vulcan" {
		t.Fatalf("ui.syntax_theme = %q, want compiled default vulcan", cfg.UI.SyntaxTheme)
	}
}

// TestEnvOverridesCompiledDefaults confirms JP_-prefixed environment
// variables sit above compiled defaults but below every file-backed layer.
// assistant.model has no internal underscore in either segment, so
// JP_A_B_C -> a.b.c maps it unambiguously.
func TestEnvOverridesCompiledDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JP_ASSISTANT_MODEL", "env-model")

	workspace := t.TempDir()
	r := NewResolver(workspace, workspace)
	merged, _, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	cfg, err := Decode(merged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Assistant.Model != "env-model" {
		t.Fatalf("assistant.model = %q, want env-model from env", cfg.Assistant.Model)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
