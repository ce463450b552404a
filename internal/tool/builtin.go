package tool

import (
	"context"
	"encoding/json"

	"github.com/xonecas/jpcore/internal/mcp"
)

// describeToolsName is the name the model calls to introspect its own tool
// surface.
const describeToolsName = "describe_tools"

// describeTools is a builtin tool that returns, for each currently
// registered tool, its name/description/command template/properties as
// structured JSON, without executing anything. Mirrors
// jp_llm::tool::builtin::describe_tools.
type describeTools struct {
	registry *Registry
}

// NewDescribeTools constructs the describe_tools builtin bound to registry.
func NewDescribeTools(registry *Registry) Tool {
	return &describeTools{registry: registry}
}

func (t *describeTools) Name() string { return describeToolsName }

func (t *describeTools) Describe() mcp.Tool {
	return mcp.Tool{
		Name:        describeToolsName,
		Description: "List every tool currently available, including its command template and properties, without invoking it.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

func (t *describeTools) Execute(ctx context.Context, _ map[string]any, _ map[string]any) Outcome {
	tools, err := t.registry.Describe(ctx)
	if err != nil {
		return Failure(err.Error(), "", true)
	}
	// Exclude describe_tools from its own listing.
	filtered := make([]mcp.Tool, 0, len(tools))
	for _, tl := range tools {
		if tl.Name == describeToolsName {
			continue
		}
		filtered = append(filtered, tl)
	}

	data, err := json.Marshal(filtered)
	if err != nil {
		return Failure(err.Error(), "", false)
	}
	return Success(string(data))
}
