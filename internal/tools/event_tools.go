package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zapista-bot/zapista-core/internal/user"
)

// EventTools exposes calendar events (typically created from an ICS
// attachment by the channel adapter) for LLM lookup.
type EventTools struct {
	store user.Store
}

// NewEventTools builds the event tool set bound to store.
func NewEventTools(store user.Store) *EventTools {
	return &EventTools{store: store}
}

// Register wires the event-listing tool into reg.
func (t *EventTools) Register(reg *Registry) {
	reg.Register(t.listTool(), t.handleList)
}

func (t *EventTools) listTool() mcp.Tool {
	return mcp.NewTool(
		"list_my_events",
		mcp.WithDescription("Lists the user's upcoming calendar events."),
	)
}

func (t *EventTools) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	events, err := t.store.ListEvents(ctx, owner.Channel, owner.ChatID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return mcp.NewToolResultText("no upcoming events"), nil
	}
	out := ""
	for _, ev := range events {
		out += fmt.Sprintf("%s: %s\n", time.UnixMilli(ev.StartAtMs).Format("2006-01-02 15:04"), ev.Title)
	}
	return mcp.NewToolResultText(out), nil
}
