package config

import (
	"fmt"
	"sort"
	"strconv"
)

// FromValue builds a Partial tree from a plain decoded value (as produced by
// a TOML/JSON/JSON5/YAML decoder into map[string]any / []any / scalars),
// tagging every leaf with state.
func FromValue(v any, state LeafState) *Partial {
	switch t := v.(type) {
	case map[string]any:
		children := make(map[string]*Partial, len(t))
		for k, val := range t {
			children[k] = FromValue(val, state)
		}
		return &Partial{Children: children}
	case []any:
		children := make(map[string]*Partial, len(t))
		for i, val := range t {
			children[strconv.Itoa(i)] = FromValue(val, state)
		}
		return &Partial{Children: children}
	default:
		return NewLeaf(state, v)
	}
}

// isArrayShaped reports whether a Children map represents a sequence: every
// key is a decimal index covering 0..len-1 with no gaps.
func isArrayShaped(children map[string]*Partial) bool {
	if len(children) == 0 {
		return false
	}
	seen := make([]bool, len(children))
	for k := range children {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || n >= len(children) {
			return false
		}
		seen[n] = true
	}
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}

func indexOf(k string) int {
	n, _ := strconv.Atoi(k)
	return n
}

// deepEqual compares the scalar/map/slice value shapes config leaves take.
func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !deepEqual(v, bv[k]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprint(a) == fmt.Sprint(b) && sameKind(a, b)
	}
}

func sameKind(a, b any) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

// sortedKeys returns m's keys in sorted order, for deterministic iteration
// where output order matters (e.g. "list all reachable keys" error text).
func sortedKeys(m map[string]*Partial) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
