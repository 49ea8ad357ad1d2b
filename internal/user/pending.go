package user

import (
	"time"

	"github.com/zapista-bot/zapista-core/internal/ttlmap"
)

// ConfirmationAction tags what a PendingConfirmation will do once resolved.
type ConfirmationAction string

const (
	ActionReactionComplete ConfirmationAction = "reaction_complete"
	ActionRestartStep1     ConfirmationAction = "restart_step1"
	ActionRestartStep2     ConfirmationAction = "restart_step2"
)

// PendingConfirmation is at most one per (channel, chat_id): an action tag
// plus arguments awaiting a terminal yes/no reply.
type PendingConfirmation struct {
	Action    ConfirmationAction
	Args      map[string]string
	CreatedAt time.Time
}

const pendingConfirmationTTL = 10 * time.Minute

// Confirmations holds the process-wide pending-confirmation TTL map,
// resolving the "module-level confirmation state" open question by
// living behind this store's API rather than package-level globals.
type Confirmations struct {
	m *ttlmap.Map[string, PendingConfirmation]
}

// NewConfirmations builds an empty Confirmations tracker.
func NewConfirmations() *Confirmations {
	return &Confirmations{m: ttlmap.New[string, PendingConfirmation]()}
}

// Set replaces any existing pending confirmation for key with a new prompt.
func (c *Confirmations) Set(channel, chatID string, action ConfirmationAction, args map[string]string) {
	c.m.Set(channel+":"+chatID, PendingConfirmation{Action: action, Args: args, CreatedAt: time.Now()}, pendingConfirmationTTL)
}

// Get returns the pending confirmation for (channel, chatID), if any.
func (c *Confirmations) Get(channel, chatID string) (PendingConfirmation, bool) {
	return c.m.Get(channel + ":" + chatID)
}

// Clear removes any pending confirmation for (channel, chatID). Called on
// any terminal reply, positive or negative.
func (c *Confirmations) Clear(channel, chatID string) {
	c.m.Set(channel+":"+chatID, PendingConfirmation{}, -1)
}
