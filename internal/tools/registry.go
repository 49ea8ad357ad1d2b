package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerFunc is the native implementation behind one mcp.Tool.
type HandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type entry struct {
	tool    mcp.Tool
	handler HandlerFunc
}

// Registry is the closed set of tools the agent loop's LLM-fallback
// tool-call iteration may invoke (Register/List/Call),
// rebuilt against mark3labs/mcp-go's Tool/CallToolRequest types directly
// instead of the original domain.NativeTool wrapper.
type Registry struct {
	entries map[string]entry
	order   []string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds tool under handler, preserving registration order for
// List().
func (r *Registry) Register(tool mcp.Tool, handler HandlerFunc) {
	if _, exists := r.entries[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
}

// List returns the tool definitions in registration order, for the LLM's
// tool-call schema.
func (r *Registry) List() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].tool)
	}
	return out
}

// Call dispatches a single tool invocation by name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("tool %s not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return e.handler(ctx, req)
}
