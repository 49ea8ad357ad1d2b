// Package trace assigns short correlation identifiers to inbound turns.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// New returns a fresh 12-character trace id, assigned at inbound reception
// and carried through every log line for that turn.
func New() string {
	return uuid.New().String()[:12]
}

// WithTraceID returns a context carrying traceID for propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// FromContext returns the trace id carried by ctx, or "" if none.
func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKey{}).(string)
	return v
}

// MaskChatID returns a chat id with all but the last 4 characters redacted,
// so logs never carry a full phone number.
func MaskChatID(chatID string) string {
	if len(chatID) <= 4 {
		return "****"
	}
	return "****" + chatID[len(chatID)-4:]
}
