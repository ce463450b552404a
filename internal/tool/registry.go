package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xonecas/jpcore/internal/mcp"
)

// Tool is one callable tool, resolved either as a builtin or as an adapter
// over an MCP server.
type Tool interface {
	Name() string
	Execute(ctx context.Context, arguments map[string]any, answers map[string]any) Outcome
}

// Describer is implemented by builtin tools so the Registry (and the
// describe_tools builtin) can advertise their shape without executing them.
type Describer interface {
	Describe() mcp.Tool
}

// Registry resolves a tool name against, in order, the fixed set of builtin
// tools and then the configured MCP servers, reached through a Proxy so
// upstream rate limiting is retried rather than surfaced to the caller.
// Unknown names resolve to (nil, false).
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Tool
	mcp      *mcp.Proxy
}

// NewRegistry constructs a Registry backed by proxy (may be nil if no MCP
// servers are configured).
func NewRegistry(proxy *mcp.Proxy) *Registry {
	return &Registry{builtins: make(map[string]Tool), mcp: proxy}
}

// RegisterBuiltin adds a builtin tool, replacing any existing tool under the
// same name.
func (r *Registry) RegisterBuiltin(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[t.Name()] = t
}

// Resolve finds the tool to execute for name: a builtin first, then an MCP
// tool advertised by any connected server.
func (r *Registry) Resolve(ctx context.Context, name string) (Tool, bool) {
	r.mu.RLock()
	builtin, ok := r.builtins[name]
	r.mu.RUnlock()
	if ok {
		return builtin, true
	}

	if r.mcp == nil {
		return nil, false
	}
	tools, err := r.mcp.ListTools(ctx)
	if err != nil {
		return nil, false
	}
	for _, t := range tools {
		if t.Name == name {
			return &mcpTool{name: name, proxy: r.mcp}, true
		}
	}
	return nil, false
}

// Describe lists every builtin (that implements Describer) and every
// MCP-advertised tool's metadata, for the describe_tools builtin and for
// building the provider-facing tool schema list.
func (r *Registry) Describe(ctx context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	var out []mcp.Tool
	for _, t := range r.builtins {
		if d, ok := t.(Describer); ok {
			out = append(out, d.Describe())
		}
	}
	r.mu.RUnlock()

	if r.mcp != nil {
		mcpTools, err := r.mcp.ListTools(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, mcpTools...)
	}
	return out, nil
}

// mcpTool adapts an MCP-advertised tool to the Tool interface.
type mcpTool struct {
	name  string
	proxy *mcp.Proxy
}

func (t *mcpTool) Name() string { return t.name }

func (t *mcpTool) Execute(ctx context.Context, arguments map[string]any, _ map[string]any) Outcome {
	args, err := json.Marshal(arguments)
	if err != nil {
		return Failure(err.Error(), "", false)
	}
	result, err := t.proxy.CallTool(ctx, t.name, args)
	if err != nil {
		return Failure(err.Error(), "", true)
	}
	if result.IsError {
		return Failure(extractText(result.Content), "", false)
	}
	return Success(extractText(result.Content))
}

func extractText(content []mcp.ContentBlock) string {
	var text string
	for _, block := range content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}
