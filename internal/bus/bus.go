package bus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/dispatch"
	"github.com/zapista-bot/zapista-core/internal/ttlmap"
)

const (
	inboundDedupTTL      = 120 * time.Second
	outboundDedupTTL     = 90 * time.Second
	redisInboundDedupTTL = 24 * time.Hour
)

// OutboundSubscriber receives outbound messages addressed to a channel.
type OutboundSubscriber func(ctx context.Context, msg OutboundMessage) error

// MessageBus decouples chat channels from the agent loop: channels push
// to inbound, the agent consumes it, and produces zero-or-one outbound
// per turn which the dispatcher routes back to the owning channel's
// subscriber.
type MessageBus struct {
	log *logrus.Entry

	// inbound is an unbounded queue: a full chat history's worth of
	// reconnect replays must never block a channel adapter or drop a
	// message, so it grows freely rather than backpressuring on a fixed
	// channel capacity like the outbound lanes do.
	inboundMu    sync.Mutex
	inboundCond  *sync.Cond
	inboundQueue []InboundMessage

	outHigh chan OutboundMessage
	outNorm chan OutboundMessage

	subMu       sync.RWMutex
	subscribers map[string][]OutboundSubscriber

	inboundDedup  *ttlmap.Map[string, struct{}]
	outboundDedup *ttlmap.Map[string, struct{}]

	valkey    *ValkeyClient
	namespace string

	stop chan struct{}
}

// New builds a MessageBus. valkey may be nil, in which case the bus runs
// purely in-memory.
func New(valkey *ValkeyClient, namespace string, log *logrus.Entry) *MessageBus {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	b := &MessageBus{
		log:           log,
		outHigh:       make(chan OutboundMessage, 1024),
		outNorm:       make(chan OutboundMessage, 1024),
		subscribers:   make(map[string][]OutboundSubscriber),
		inboundDedup:  ttlmap.New[string, struct{}](),
		outboundDedup: ttlmap.New[string, struct{}](),
		valkey:        valkey,
		namespace:     namespace,
		stop:          make(chan struct{}),
	}
	b.inboundCond = sync.NewCond(&b.inboundMu)
	return b
}

// PublishInbound enqueues msg unconditionally, unless it is a duplicate.
// Dedup uses the message_id in metadata when present (Redis SET NX EX, or
// the in-memory TTL map); absent an id, a 30-second content bucket key is
// used instead.
func (b *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) {
	if b.isInboundDuplicate(ctx, msg) {
		return
	}
	b.inboundMu.Lock()
	b.inboundQueue = append(b.inboundQueue, msg)
	b.inboundCond.Signal()
	b.inboundMu.Unlock()
}

func (b *MessageBus) isInboundDuplicate(ctx context.Context, msg InboundMessage) bool {
	id, _ := msg.Metadata["message_id"].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		bucket := fmt.Sprintf("%s:%s:%d", msg.ChatID, strings.TrimSpace(msg.Content), time.Now().Unix()/30)
		return !b.inboundDedup.SetIfAbsent(bucket, struct{}{}, 30*time.Second)
	}

	if b.valkey != nil {
		key := b.valkey.Key("dedup", "inbound", id)
		wasSet, err := b.valkey.Inner().Do(ctx, b.valkey.Inner().B().Set().Key(key).Value("1").Nx().Ex(redisInboundDedupTTL).Build()).AsBool()
		if err == nil {
			return !wasSet
		}
		b.log.WithError(err).Warn("redis dedup failed, falling back to in-memory map")
	}
	return !b.inboundDedup.SetIfAbsent("id:"+id, struct{}{}, inboundDedupTTL)
}

// ConsumeInbound blocks until a message is available or ctx is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			b.inboundMu.Lock()
			b.inboundCond.Broadcast()
			b.inboundMu.Unlock()
		case <-stopWatch:
		}
	}()

	b.inboundMu.Lock()
	defer b.inboundMu.Unlock()
	for len(b.inboundQueue) == 0 {
		if ctx.Err() != nil {
			return InboundMessage{}, false
		}
		b.inboundCond.Wait()
	}
	msg := b.inboundQueue[0]
	b.inboundQueue = b.inboundQueue[1:]
	return msg, true
}

// PublishOutbound routes msg by its priority metadata, preferring Redis when
// configured and falling back to the local queue on any Redis error.
func (b *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) {
	if b.isOutboundDuplicate(msg) {
		return
	}
	if b.valkey != nil {
		if b.pushRedis(ctx, msg) {
			return
		}
	}
	b.enqueueLocal(msg)
}

func (b *MessageBus) enqueueLocal(msg OutboundMessage) {
	if msg.Priority() == PriorityHigh {
		b.outHigh <- msg
	} else {
		b.outNorm <- msg
	}
}

func (b *MessageBus) isOutboundDuplicate(msg OutboundMessage) bool {
	sum := sha256.Sum256([]byte(msg.Content))
	key := fmt.Sprintf("%s:%s:%s", msg.Channel, msg.ChatID, hex.EncodeToString(sum[:])[:16])
	return !b.outboundDedup.SetIfAbsent(key, struct{}{}, outboundDedupTTL)
}

func (b *MessageBus) pushRedis(ctx context.Context, msg OutboundMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	lane := "normal"
	if msg.Priority() == PriorityHigh {
		lane = "high"
	}
	key := b.valkey.Key("outbound", lane)
	if err := b.valkey.Inner().Do(ctx, b.valkey.Inner().B().Rpush().Key(key).Element(string(payload)).Build()).Error(); err != nil {
		b.log.WithError(err).Warn("redis push failed, falling back to local queue")
		return false
	}
	return true
}

// ConsumeOutbound returns the next outbound message, preferring the high
// priority lane.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case m := <-b.outHigh:
		return m, true
	default:
	}
	select {
	case m := <-b.outHigh:
		return m, true
	case m := <-b.outNorm:
		return m, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

// SubscribeOutbound registers a delivery handler for a channel name.
func (b *MessageBus) SubscribeOutbound(channel string, cb OutboundSubscriber) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], cb)
}

// DispatchOutbound drains outbound messages and fans them out to
// subscribers for their channel, one at a time. Run as a background
// goroutine; use DispatchOutboundPooled for per-chat concurrency.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		msg, ok := b.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		b.deliver(ctx, msg)
	}
}

// DispatchOutboundPooled drains outbound messages and submits delivery to
// pool, sharded by (channel, chat_id): messages to the same chat still
// deliver in dispatch order, while different chats deliver concurrently
// across the pool's workers.
func (b *MessageBus) DispatchOutboundPooled(ctx context.Context, pool *dispatch.Pool) {
	for {
		msg, ok := b.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		m := msg
		pool.TryDispatch(dispatch.Job{
			Channel: m.Channel,
			ChatID:  m.ChatID,
			Handler: func(jobCtx context.Context) error {
				b.deliver(jobCtx, m)
				return nil
			},
		})
	}
}

func (b *MessageBus) deliver(ctx context.Context, msg OutboundMessage) {
	b.subMu.RLock()
	subs := append([]OutboundSubscriber(nil), b.subscribers[msg.Channel]...)
	b.subMu.RUnlock()
	for _, cb := range subs {
		if err := cb(ctx, msg); err != nil {
			b.log.WithError(err).WithField("channel", msg.Channel).Error("error dispatching outbound message")
		}
	}
}

// StartRedisFeeder drains the Redis priority lanes into the local outbound
// channels, in priority order, until ctx is cancelled. No-op if Redis is not
// configured.
func (b *MessageBus) StartRedisFeeder(ctx context.Context) {
	if b.valkey == nil {
		return
	}
	go func() {
		b.log.Info("redis outbound feeder started")
		defer b.log.Info("redis outbound feeder stopped")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			highKey := b.valkey.Key("outbound", "high")
			normKey := b.valkey.Key("outbound", "normal")
			resp, err := b.valkey.Inner().Do(ctx, b.valkey.Inner().B().Blpop().Key(highKey, normKey).Timeout(5).Build()).AsStrSlice()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(resp) < 2 {
				continue
			}
			var msg OutboundMessage
			if err := json.Unmarshal([]byte(resp[1]), &msg); err != nil {
				continue
			}
			b.enqueueLocal(msg)
		}
	}()
}

// InboundSize reports the number of pending inbound messages.
func (b *MessageBus) InboundSize() int {
	b.inboundMu.Lock()
	defer b.inboundMu.Unlock()
	return len(b.inboundQueue)
}

// OutboundSize reports the number of pending local outbound messages across
// both lanes.
func (b *MessageBus) OutboundSize() int { return len(b.outHigh) + len(b.outNorm) }
