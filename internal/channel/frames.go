// Package channel implements the WhatsApp bridge adapter: the WebSocket
// connection loop, inbound frame dispatch (message/reaction/sent/status),
// group filtering, allow/mute enforcement, and outbound send correlation.
package channel

// FrameIn is the superset of all frames the bridge sends us.
type FrameIn struct {
	Type string `json:"type"`

	// type=message
	ID            string `json:"id,omitempty"`
	Sender        string `json:"sender,omitempty"`
	Phone         string `json:"pn,omitempty"`
	Content       string `json:"content,omitempty"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	IsGroup       bool   `json:"isGroup,omitempty"`
	MediaBase64   string `json:"mediaBase64,omitempty"`
	AudioTooLarge bool   `json:"audioTooLarge,omitempty"`
	AudioForward  bool   `json:"audioForwarded,omitempty"`
	AttachmentICS string `json:"attachmentIcs,omitempty"`

	// type=reaction
	ChatID    string `json:"chatId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	FromMe    bool   `json:"fromMe,omitempty"`

	// type=sent
	RequestID string `json:"request_id,omitempty"`
	JobID     string `json:"job_id,omitempty"`

	// type=status
	Status string `json:"status,omitempty"`

	// type=error
	Error string `json:"error,omitempty"`
}

// FrameOut is the only outgoing frame kind: a send request.
type FrameOut struct {
	Type      string `json:"type"`
	To        string `json:"to"`
	Text      string `json:"text"`
	RequestID string `json:"request_id"`
	JobID     string `json:"job_id,omitempty"`
}

// EmojiClass discriminates the reaction-handling branches.
type EmojiClass string

const (
	EmojiPositive EmojiClass = "positive"
	EmojiSnooze   EmojiClass = "snooze"
	EmojiNegative EmojiClass = "negative"
	EmojiOther    EmojiClass = "other"
)

var positiveEmoji = map[string]bool{"👍": true, "✅": true, "👌": true, "💪": true}
var snoozeEmoji = map[string]bool{"⏰": true, "🔔": true}
var negativeEmoji = map[string]bool{"👎": true, "❌": true}

// ClassifyEmoji maps a reaction emoji to its handling class.
func ClassifyEmoji(emoji string) EmojiClass {
	switch {
	case positiveEmoji[emoji]:
		return EmojiPositive
	case snoozeEmoji[emoji]:
		return EmojiSnooze
	case negativeEmoji[emoji]:
		return EmojiNegative
	default:
		return EmojiOther
	}
}
