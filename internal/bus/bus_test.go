package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundDedupByMessageID(t *testing.T) {
	b := New(nil, "zapista", nil)
	ctx := context.Background()

	msg := InboundMessage{
		Channel: "whatsapp", ChatID: "U1", Content: "oi",
		Metadata: map[string]any{"message_id": "X"},
	}
	b.PublishInbound(ctx, msg)
	b.PublishInbound(ctx, msg)

	require.Equal(t, 1, b.InboundSize())
}

func TestInboundDedupByContentBucketWithoutID(t *testing.T) {
	b := New(nil, "zapista", nil)
	ctx := context.Background()

	msg := InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "oi"}
	b.PublishInbound(ctx, msg)
	b.PublishInbound(ctx, msg)

	require.Equal(t, 1, b.InboundSize(), "id-less duplicates within the content bucket collapse")
}

func TestInboundDedupDoesNotCrossChats(t *testing.T) {
	b := New(nil, "zapista", nil)
	ctx := context.Background()

	b.PublishInbound(ctx, InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "oi"})
	b.PublishInbound(ctx, InboundMessage{Channel: "whatsapp", ChatID: "U2", Content: "oi"})

	require.Equal(t, 2, b.InboundSize())
}

func TestOutboundDedupWithin90Seconds(t *testing.T) {
	b := New(nil, "zapista", nil)
	ctx := context.Background()

	msg := OutboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "hello"}
	b.PublishOutbound(ctx, msg)
	b.PublishOutbound(ctx, msg)

	assert.Equal(t, 1, b.OutboundSize())
}

func TestOutboundHighPriorityConsumedFirst(t *testing.T) {
	b := New(nil, "zapista", nil)
	ctx := context.Background()

	b.PublishOutbound(ctx, OutboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "normal reply"})
	b.PublishOutbound(ctx, OutboundMessage{
		Channel: "whatsapp", ChatID: "U1", Content: "reminder",
		Metadata: map[string]any{"priority": "high"},
	})

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, ok := b.ConsumeOutbound(ctx2)
	require.True(t, ok)
	assert.Equal(t, "reminder", msg.Content)
}
