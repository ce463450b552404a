package config

import "testing"

func leafStr(v string) *Partial { return NewLeaf(LeafOverridden, v) }

func objPartial(children map[string]*Partial) *Partial {
	return &Partial{Children: children}
}

func TestWithFallbackIdentities(t *testing.T) {
	x := objPartial(map[string]*Partial{"a": leafStr("1")})

	if got := Empty().WithFallback(x); !materializeEqual(got, x) {
		t.Fatalf("with_fallback(empty, X) != X: %+v", got.Materialize())
	}
	if got := x.WithFallback(Empty()); !materializeEqual(got, x) {
		t.Fatalf("with_fallback(X, empty) != X: %+v", got.Materialize())
	}
}

func TestWithFallbackRightAssociative(t *testing.T) {
	x := objPartial(map[string]*Partial{"a": leafStr("x")})
	y := objPartial(map[string]*Partial{"a": leafStr("y"), "b": leafStr("y")})
	z := objPartial(map[string]*Partial{"b": leafStr("z"), "c": leafStr("z")})

	left := x.WithFallback(y).WithFallback(z)
	right := x.WithFallback(y.WithFallback(z))

	if !materializeEqual(left, right) {
		t.Fatalf("merge not right-associative: left=%+v right=%+v", left.Materialize(), right.Materialize())
	}
}

func TestWithFallbackHigherPrecedenceWins(t *testing.T) {
	high := objPartial(map[string]*Partial{"model": objPartial(map[string]*Partial{"id": leafStr("openai/gpt-4o")})})
	low := objPartial(map[string]*Partial{"model": objPartial(map[string]*Partial{"id": leafStr("anthropic/claude")})})

	merged := high.WithFallback(low)
	m := merged.Materialize().(map[string]any)
	modelMap := m["model"].(map[string]any)
	if modelMap["id"] != "openai/gpt-4o" {
		t.Fatalf("model.id = %v, want openai/gpt-4o", modelMap["id"])
	}
}

func TestDefaultPreservation(t *testing.T) {
	overridden := NewLeaf(LeafOverridden, "custom")
	def := NewLeaf(LeafDefault, "builtin")

	merged := overridden.WithFallback(def)
	if merged.Leaf.Value != "custom" || merged.Leaf.State != LeafOverridden {
		t.Fatalf("overridden leaf should win: %+v", merged.Leaf)
	}

	// An overlay explicitly restoring the default still counts as a set
	// leaf (LeafDefault, not LeafUnset) and so still wins over a lower
	// layer's override.
	restoredDefault := NewLeaf(LeafDefault, "builtin")
	lowerOverride := NewLeaf(LeafOverridden, "custom")
	merged2 := restoredDefault.WithFallback(lowerOverride)
	if merged2.Leaf.Value != "builtin" {
		t.Fatalf("explicitly-restored default should win over lower override: %+v", merged2.Leaf)
	}
}

func TestDeltaScenario(t *testing.T) {
	prev := objPartial(map[string]*Partial{
		"model": objPartial(map[string]*Partial{"id": leafStr("openai/gpt-4o")}),
		"tools": objPartial(map[string]*Partial{
			"run_me": objPartial(map[string]*Partial{"enable": NewLeaf(LeafOverridden, true)}),
		}),
	})
	next := objPartial(map[string]*Partial{
		"model": objPartial(map[string]*Partial{"id": leafStr("openai/gpt-4o")}),
		"tools": objPartial(map[string]*Partial{
			"run_me": objPartial(map[string]*Partial{
				"enable": NewLeaf(LeafOverridden, false),
				"run":    leafStr("ask"),
			}),
		}),
	})

	d := Delta(prev, next)
	m := d.Materialize().(map[string]any)
	if _, ok := m["model"]; ok {
		t.Fatalf("unchanged model.id should not appear in delta: %+v", m)
	}
	tools := m["tools"].(map[string]any)["run_me"].(map[string]any)
	if tools["enable"] != false || tools["run"] != "ask" {
		t.Fatalf("delta.tools.run_me = %+v, want enable=false run=ask", tools)
	}
}

func TestApplyDeltaRecoversNext(t *testing.T) {
	prev := objPartial(map[string]*Partial{"a": leafStr("1"), "b": leafStr("2")})
	next := objPartial(map[string]*Partial{"a": leafStr("1"), "b": leafStr("3")})

	d := Delta(prev, next)
	applied := d.WithFallback(prev)
	if !materializeEqual(applied, next) {
		t.Fatalf("apply(prev, delta(prev, next)) != next: got %+v want %+v", applied.Materialize(), next.Materialize())
	}
}

func materializeEqual(a, b *Partial) bool {
	return deepEqual(normalizeForCompare(a.Materialize()), normalizeForCompare(b.Materialize()))
}

// normalizeForCompare treats an empty map the same as nil, since Materialize
// can produce either depending on whether a branch had any set children.
func normalizeForCompare(v any) any {
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	return v
}
