package agent

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Message is one turn in the conversation handed to the LLM; the session
// package's ChatTurn history is projected into a slice of these.
type Message struct {
	Role    string // "user", "assistant", "tool", "system"
	Content string
}

// ToolCall is a single function-call the LLM asked the loop to execute.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Completion is one LLM turn: either plain text (loop ends) or tool calls
// to execute and feed back (loop continues).
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider is the external LLM collaborator boundary; OpenAIProvider
// adapts openai-go/v3's client to it.
type Provider interface {
	// Complete runs one model turn over history with tools available for
	// function-calling.
	Complete(ctx context.Context, history []Message, tools []mcp.Tool) (Completion, error)
	// ScopeCheck asks a short, low-temperature SIM/NAO classification
	// prompt.
	ScopeCheck(ctx context.Context, text string) (bool, error)
}
