package user

import (
	"context"
	"strconv"
	"strings"
)

// Store persists User settings, lists, events, and reminder history.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error) // nil, nil if missing
	UpsertUser(ctx context.Context, u *User) error

	AddListItem(ctx context.Context, channel, chatID, listName, text string) (ListItem, error)
	GetList(ctx context.Context, channel, chatID, listName string) (List, error)
	ListLists(ctx context.Context, channel, chatID string) ([]List, error)
	MarkItemDone(ctx context.Context, channel, chatID, listName string, itemID uint) error

	CreateEvent(ctx context.Context, ev Event) (Event, error)
	ListEvents(ctx context.Context, channel, chatID string) ([]Event, error)

	AppendReminderHistory(ctx context.Context, userID string, kind ReminderHistoryKind, message string) error
	GetReminderHistory(ctx context.Context, userID string, kind ReminderHistoryKind) ([]ReminderHistoryEntry, error)
}

// ExtraLeads parses the comma-separated ExtraLeadsCSV into up to 3 ints.
func (u *User) ExtraLeads() []int {
	if u == nil || u.ExtraLeadsCSV == "" {
		return nil
	}
	parts := strings.Split(u.ExtraLeadsCSV, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if v, err := strconv.Atoi(p); err == nil {
			out = append(out, v)
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}

// SetExtraLeads serializes up to 3 lead seconds into ExtraLeadsCSV.
func (u *User) SetExtraLeads(leads []int) {
	if len(leads) > 3 {
		leads = leads[:3]
	}
	strs := make([]string, len(leads))
	for i, v := range leads {
		strs[i] = strconv.Itoa(v)
	}
	u.ExtraLeadsCSV = strings.Join(strs, ",")
}
