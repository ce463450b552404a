// Package config implements the layered configuration resolver: file
// discovery and parsing across formats, a precedence-ordered merge down to
// a single immutable value, key-path assignment, and delta computation
// between two configuration snapshots.
package config

// LeafState distinguishes why a leaf holds the value it does, so merging
// two layers can tell "never set" apart from "explicitly set to the
// default" — an overlay that explicitly restores a default must still win
// over a lower layer's override.
type LeafState int

const (
	LeafUnset LeafState = iota
	LeafDefault
	LeafOverridden
)

// Partial is one layer's worth of configuration: a tree whose leaves carry
// both a value and the state that produced it. Nodes are either a leaf
// (Leaf != nil) or an object/array of children (Children != nil); arrays
// are represented as Children keyed by decimal string index, consistent
// with the key-path grammar's numeric path segments.
type Partial struct {
	Leaf     *Leaf
	Children map[string]*Partial
}

// Leaf is a single configuration value together with the state that
// produced it.
type Leaf struct {
	State LeafState
	Value any
}

// Empty returns a Partial with nothing set, the unit of merging.
func Empty() *Partial { return &Partial{} }

// NewLeaf wraps a value in a leaf Partial with the given state.
func NewLeaf(state LeafState, value any) *Partial {
	return &Partial{Leaf: &Leaf{State: state, Value: value}}
}

// IsEmpty reports whether this node (recursively) carries no set values.
func (p *Partial) IsEmpty() bool {
	if p == nil {
		return true
	}
	if p.Leaf != nil {
		return p.Leaf.State == LeafUnset
	}
	for _, c := range p.Children {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// IsComplete reports whether every leaf reachable from this node is set
// (Default or Overridden, never Unset).
func (p *Partial) IsComplete() bool {
	if p == nil {
		return false
	}
	if p.Leaf != nil {
		return p.Leaf.State != LeafUnset
	}
	if len(p.Children) == 0 {
		return true
	}
	for _, c := range p.Children {
		if !c.IsComplete() {
			return false
		}
	}
	return true
}

// WithFallback returns a new Partial with p's set values preserved and
// fallback's values filling in anywhere p leaves unset. p wins on conflict
// at every depth: this is how higher-precedence layers are merged over
// lower ones.
func (p *Partial) WithFallback(fallback *Partial) *Partial {
	switch {
	case p == nil && fallback == nil:
		return Empty()
	case p == nil:
		return fallback.clone()
	case fallback == nil:
		return p.clone()
	}

	if p.Leaf != nil || fallback.Leaf != nil {
		if p.Leaf != nil && p.Leaf.State != LeafUnset {
			return &Partial{Leaf: &Leaf{State: p.Leaf.State, Value: p.Leaf.Value}}
		}
		if fallback.Leaf != nil {
			return &Partial{Leaf: &Leaf{State: fallback.Leaf.State, Value: fallback.Leaf.Value}}
		}
		return Empty()
	}

	out := &Partial{Children: make(map[string]*Partial, len(p.Children)+len(fallback.Children))}
	for k, v := range fallback.Children {
		out.Children[k] = v.clone()
	}
	for k, v := range p.Children {
		if existing, ok := out.Children[k]; ok {
			out.Children[k] = v.WithFallback(existing)
		} else {
			out.Children[k] = v.clone()
		}
	}
	return out
}

func (p *Partial) clone() *Partial {
	if p == nil {
		return nil
	}
	if p.Leaf != nil {
		return &Partial{Leaf: &Leaf{State: p.Leaf.State, Value: p.Leaf.Value}}
	}
	children := make(map[string]*Partial, len(p.Children))
	for k, v := range p.Children {
		children[k] = v.clone()
	}
	return &Partial{Children: children}
}

// Delta returns a Partial holding only the leaves where next differs from
// prev; unchanged leaves come back Unset. If every leaf is unchanged the
// result is empty (IsEmpty reports true), matching "replaying events yields
// the exact configuration in effect at any point" — a delta with nothing in
// it means that event changed nothing.
func Delta(prev, next *Partial) *Partial {
	switch {
	case prev == nil && next == nil:
		return Empty()
	case prev == nil:
		return next.clone()
	case next == nil:
		return Empty()
	}

	if prev.Leaf != nil || next.Leaf != nil {
		if next.Leaf == nil {
			return Empty()
		}
		if prev.Leaf == nil || prev.Leaf.State == LeafUnset {
			return &Partial{Leaf: &Leaf{State: next.Leaf.State, Value: next.Leaf.Value}}
		}
		if !valuesEqual(prev.Leaf.Value, next.Leaf.Value) || prev.Leaf.State != next.Leaf.State {
			return &Partial{Leaf: &Leaf{State: next.Leaf.State, Value: next.Leaf.Value}}
		}
		return &Partial{Leaf: &Leaf{State: LeafUnset}}
	}

	out := &Partial{Children: make(map[string]*Partial)}
	for k, nextChild := range next.Children {
		d := Delta(prev.Children[k], nextChild)
		if !d.IsEmpty() {
			out.Children[k] = d
		}
	}
	return out
}

func valuesEqual(a, b any) bool {
	// Deep-equal via a cheap reflect-free path for the scalar/slice/map
	// shapes config values actually take (strings, numbers, bools, nested
	// maps/slices thereof); fall back to fmt-based comparison otherwise.
	return deepEqual(a, b)
}

// Materialize resolves this Partial to a plain Go value tree
// (map[string]any / []any / scalar), dropping all state information. Unset
// leaves are omitted entirely.
func (p *Partial) Materialize() any {
	if p == nil {
		return nil
	}
	if p.Leaf != nil {
		if p.Leaf.State == LeafUnset {
			return nil
		}
		return p.Leaf.Value
	}
	if isArrayShaped(p.Children) {
		arr := make([]any, len(p.Children))
		for k, v := range p.Children {
			arr[indexOf(k)] = v.Materialize()
		}
		return arr
	}
	out := make(map[string]any, len(p.Children))
	for k, v := range p.Children {
		if m := v.Materialize(); m != nil || !v.IsEmpty() {
			out[k] = m
		}
	}
	return out
}
