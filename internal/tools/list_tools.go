package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zapista-bot/zapista-core/internal/user"
)

// ListTools exposes the named-list operations (e.g. "/list mercado add
// leite") as LLM-callable tools.
type ListTools struct {
	store user.Store
}

// NewListTools builds the list tool set bound to store.
func NewListTools(store user.Store) *ListTools {
	return &ListTools{store: store}
}

// Register wires all list tools into reg.
func (t *ListTools) Register(reg *Registry) {
	reg.Register(t.addTool(), t.handleAdd)
	reg.Register(t.showTool(), t.handleShow)
}

func (t *ListTools) addTool() mcp.Tool {
	return mcp.NewTool(
		"list_add_item",
		mcp.WithDescription("Adds an item to a named list (creating the list if needed)."),
		mcp.WithString("list_name", mcp.Required()),
		mcp.WithString("item", mcp.Required()),
	)
}

func (t *ListTools) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	listName, err := req.RequireString("list_name")
	if err != nil {
		return mcp.NewToolResultText("list_name is required"), nil
	}
	item, err := req.RequireString("item")
	if err != nil {
		return mcp.NewToolResultText("item is required"), nil
	}
	added, err := t.store.AddListItem(ctx, owner.Channel, owner.ChatID, listName, item)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("added \"%s\" to %s (item #%d)", item, listName, added.ID)), nil
}

func (t *ListTools) showTool() mcp.Tool {
	return mcp.NewTool(
		"list_show",
		mcp.WithDescription("Shows the items in a named list."),
		mcp.WithString("list_name", mcp.Required()),
	)
}

func (t *ListTools) handleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	listName, err := req.RequireString("list_name")
	if err != nil {
		return mcp.NewToolResultText("list_name is required"), nil
	}
	list, err := t.store.GetList(ctx, owner.Channel, owner.ChatID, listName)
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("list %s is empty", listName)), nil
	}
	out := ""
	for _, item := range list.Items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		out += fmt.Sprintf("[%s] #%d %s\n", mark, item.ID, item.Text)
	}
	return mcp.NewToolResultText(out), nil
}
