package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager owns one StdioClient per configured MCP server and satisfies
// UpstreamClient by fanning a request out across all of them, mirroring the
// Rust predecessor's Client (a HashMap of named RunningService connections)
// rather than the single-upstream shape the teacher's Proxy was written
// against.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*StdioClient
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{clients: make(map[string]*StdioClient)}
}

// Connect spawns and dials the server described by spec, registering it
// under spec.Name.
func (m *Manager) Connect(ctx context.Context, spec ServerSpec) error {
	c, err := Dial(ctx, spec)
	if err != nil {
		return fmt.Errorf("mcp: connect %s: %w", spec.Name, err)
	}
	m.mu.Lock()
	m.clients[spec.Name] = c
	m.mu.Unlock()
	return nil
}

// Initialize performs the handshake against every connected server.
func (m *Manager) Initialize(ctx context.Context, clientInfo map[string]interface{}) (*Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *Response
	for name, c := range m.clients {
		resp, err := c.Initialize(ctx, clientInfo)
		if err != nil {
			return nil, fmt.Errorf("mcp: initialize %s: %w", name, err)
		}
		if resp.Error != nil {
			return resp, nil
		}
		last = resp
	}
	if last == nil {
		last = &Response{JSONRPC: "2.0"}
	}
	return last, nil
}

// ListTools concatenates the tool list from every connected server.
func (m *Manager) ListTools(ctx context.Context) ([]Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tools []Tool
	for name, c := range m.clients {
		ts, err := c.ListTools(ctx)
		if err != nil {
			log.Warn().Err(err).Str("server", name).Msg("mcp: failed to list tools")
			continue
		}
		tools = append(tools, ts...)
	}
	return tools, nil
}

// CallTool finds the server advertising name and dispatches the call to it.
func (m *Manager) CallTool(ctx context.Context, name string, arguments interface{}) (*ToolResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		ts, err := c.ListTools(ctx)
		if err != nil {
			continue
		}
		for _, t := range ts {
			if t.Name == name {
				return c.CallTool(ctx, name, arguments)
			}
		}
	}
	return nil, fmt.Errorf("mcp: unknown tool %q", name)
}

// Close shuts down every connected server, collecting any errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mcp: close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
