package tool

import (
	"fmt"
	"strings"
)

// ChoiceKind discriminates the ways a turn may constrain which tools the
// model is allowed to call.
type ChoiceKind int

const (
	// ChoiceAuto lets the model call zero, one, or multiple tools freely.
	ChoiceAuto ChoiceKind = iota
	// ChoiceNone forbids any tool call, even if tools are available.
	ChoiceNone
	// ChoiceRequired forces the model to call at least one tool.
	ChoiceRequired
	// ChoiceFunction requires calling exactly the named tool.
	ChoiceFunction
)

// Choice is a parsed tool-choice constraint for one turn.
type Choice struct {
	Kind     ChoiceKind
	Function string // populated only when Kind == ChoiceFunction
}

// Auto, None, and Required are the three non-function Choice values.
var (
	Auto     = Choice{Kind: ChoiceAuto}
	None     = Choice{Kind: ChoiceNone}
	Required = Choice{Kind: ChoiceRequired}
)

// ParseChoice parses a tool-choice string as accepted on the command line
// or in configuration: "auto", "none"/"false", "required"/"true", a bare
// tool name, or "fn:<name>".
func ParseChoice(s string) (Choice, error) {
	switch s {
	case "auto":
		return Auto, nil
	case "none", "false":
		return None, nil
	case "required", "true":
		return Required, nil
	}
	if strings.HasPrefix(s, "fn:") && len(s) > 3 {
		return Choice{Kind: ChoiceFunction, Function: s[3:]}, nil
	}
	if isToolName(s) {
		return Choice{Kind: ChoiceFunction, Function: s}, nil
	}
	return Choice{}, fmt.Errorf("tool: unknown tool choice %q", s)
}

func isToolName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
