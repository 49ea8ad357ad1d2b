// Package bus implements the inbound/outbound message bus: local queues,
// optional Redis-backed priority lanes, and dedup.
package bus

import (
	"fmt"
	"time"
)

// Priority selects the outbound lane a message travels on.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// InboundMessage is a message received from a chat channel. Groups are
// never represented here (the channel adapter rejects them before
// publishing).
type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
	Media     []string
	Metadata  map[string]any
	TraceID   string
}

// SessionKey returns the unique key identifying the owning session.
func (m InboundMessage) SessionKey() string {
	return fmt.Sprintf("%s:%s", m.Channel, m.ChatID)
}

// OutboundMessage is a message to send to a chat channel. Always a private
// chat; metadata.priority selects the delivery lane and metadata.job_id
// links cron-originated deliveries back to their job.
type OutboundMessage struct {
	Channel  string         `json:"channel"`
	ChatID   string         `json:"chat_id"`
	Content  string         `json:"content"`
	ReplyTo  string         `json:"reply_to,omitempty"`
	Media    []string       `json:"media,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Priority reads metadata["priority"], defaulting to normal.
func (m OutboundMessage) Priority() Priority {
	if v, ok := m.Metadata["priority"]; ok {
		if s, ok := v.(string); ok && s == string(PriorityHigh) {
			return PriorityHigh
		}
	}
	return PriorityNormal
}

// JobID reads metadata["job_id"], or "" if absent.
func (m OutboundMessage) JobID() string {
	if v, ok := m.Metadata["job_id"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
