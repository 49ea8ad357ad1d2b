// Package user implements per-user state: language/timezone/quiet-hours
// resolution, rate-bucket-adjacent persisted settings, lists, events, and
// reminder history.
package user

import "time"

// User is the persisted per-identity settings row. ID is the
// "channel:chat_id" session key built by session.Key.
type User struct {
	ID                 string `gorm:"primaryKey"`
	Language           string
	Timezone           string
	QuietHoursStart    string // "HH:MM", empty disables quiet hours
	QuietHoursEnd      string
	DefaultLeadSeconds int
	ExtraLeadsCSV      string // comma-separated seconds, max 3 entries
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// List is a named list owned by a (channel, chat_id).
type List struct {
	ID      uint `gorm:"primaryKey"`
	Channel string
	ChatID  string
	Name    string
	Items   []ListItem `gorm:"foreignKey:ListID"`
}

// ListItem is one entry in a List.
type ListItem struct {
	ID        uint `gorm:"primaryKey"`
	ListID    uint
	Text      string
	Done      bool
	CreatedAt time.Time
}

// Event is a calendar entry, typically derived from an ICS attachment.
type Event struct {
	ID         uint `gorm:"primaryKey"`
	Channel    string
	ChatID     string
	Title      string
	StartAtMs  int64
	LeadJobID  string // the pre-event reminder job created for this event
	CreatedAt  time.Time
}

// ReminderHistoryKind discriminates the two history buckets.
type ReminderHistoryKind string

const (
	HistoryScheduled ReminderHistoryKind = "scheduled"
	HistoryDelivered ReminderHistoryKind = "delivered"
)

// ReminderHistoryEntry is one row in a user's capped reminder history.
type ReminderHistoryEntry struct {
	ID        uint `gorm:"primaryKey"`
	UserID    string
	Kind      ReminderHistoryKind
	Message   string
	CreatedAt time.Time
}
