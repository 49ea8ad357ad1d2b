// Package tools implements the native tool handlers the agent loop's LLM
// fallback can call: cron scheduling, list management, and event lookup.
// Each tool pairs an mcp.Tool schema (mcp.NewTool/mcp.WithString) with a
// handler(ctx, request) implementation.
package tools

import "context"

type ownerKey struct{}

// Owner identifies the (channel, chat_id) a tool call is executing on
// behalf of, carried via context since mcp.CallToolRequest has no room for
// caller-supplied side data.
type Owner struct {
	Channel  string
	ChatID   string
	Timezone string
	Locale   string
}

// WithOwner attaches owner to ctx.
func WithOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext retrieves the Owner attached by WithOwner.
func OwnerFromContext(ctx context.Context) (Owner, bool) {
	o, ok := ctx.Value(ownerKey{}).(Owner)
	return o, ok
}
