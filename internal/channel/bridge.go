package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/admin"
	"github.com/zapista-bot/zapista-core/internal/bus"
	"github.com/zapista-bot/zapista-core/internal/config"
	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/session"
	"github.com/zapista-bot/zapista-core/internal/trace"
	"github.com/zapista-bot/zapista-core/internal/ttlmap"
	"github.com/zapista-bot/zapista-core/internal/user"
)

// frameDedupTTL bounds how long a frame's identity is remembered for
// reconnect-replay suppression.
const frameDedupTTL = 120 * time.Second

// ChannelName identifies this adapter on the bus; every InboundMessage it
// publishes and every OutboundMessage it subscribes to carries this value.
const ChannelName = "whatsapp"

// defaultICSLeadSeconds is the pre-event reminder lead applied to calendar
// attachments absent any user-configured lead.
const defaultICSLeadSeconds = 15 * 60

// Bridge is the WebSocket adapter to the WhatsApp bridge process: it
// dials, reconnects with a fixed delay on drop, and dispatches the
// bridge's JSON-frame wire protocol.
type Bridge struct {
	cfg           config.BridgeConfig
	bus           *bus.MessageBus
	scheduler     *cron.Scheduler
	sessions      session.Store
	users         user.Store
	confirmations *user.Confirmations
	godmode       *admin.GodMode
	mutes         *admin.MuteLedger
	allow         *AllowList
	log           *logrus.Entry

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	sent    *sentMapping
	pending *pendingSends
	dedup   *ttlmap.Map[string, struct{}]
}

// NewBridge builds a Bridge. All dependencies are required except sessions,
// which may be nil if no session-clearing side effects are needed here.
func NewBridge(
	cfg config.BridgeConfig,
	messageBus *bus.MessageBus,
	scheduler *cron.Scheduler,
	sessions session.Store,
	users user.Store,
	confirmations *user.Confirmations,
	godmode *admin.GodMode,
	mutes *admin.MuteLedger,
	allow *AllowList,
	log *logrus.Entry,
) *Bridge {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bridge{
		cfg:           cfg,
		bus:           messageBus,
		scheduler:     scheduler,
		sessions:      sessions,
		users:         users,
		confirmations: confirmations,
		godmode:       godmode,
		mutes:         mutes,
		allow:         allow,
		log:           log,
		sent:          newSentMapping(),
		pending:       newPendingSends(),
		dedup:         ttlmap.New[string, struct{}](),
	}
}

// Run dials the bridge and dispatches frames until ctx is cancelled,
// reconnecting with cfg.ReconnectDelay between attempts.
func (b *Bridge) Run(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.cfg.URL, nil)
		if err != nil {
			attempt++
			b.log.WithError(err).WithField("attempt", attempt).Warn("bridge_reconnect: dial failed")
			if !b.sleep(ctx) {
				return
			}
			continue
		}
		if attempt > 0 {
			b.log.WithField("attempt", attempt).Info("bridge_reconnect: reconnected")
		}
		attempt = 0

		b.mu.Lock()
		b.conn = conn
		b.connected = true
		b.mu.Unlock()

		b.readLoop(ctx, conn)

		b.mu.Lock()
		b.connected = false
		b.conn = nil
		b.mu.Unlock()
		_ = conn.Close()

		if !b.sleep(ctx) {
			return
		}
	}
}

func (b *Bridge) sleep(ctx context.Context) bool {
	select {
	case <-time.After(b.cfg.ReconnectDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.log.WithError(err).Warn("bridge connection lost")
			return
		}
		b.dispatch(ctx, data)
	}
}

func (b *Bridge) dispatch(ctx context.Context, raw []byte) {
	var f FrameIn
	if err := json.Unmarshal(raw, &f); err != nil {
		b.log.WithError(err).Warn("bridge: malformed frame")
		return
	}
	switch f.Type {
	case "message":
		b.handleMessage(ctx, f)
	case "reaction":
		b.handleReaction(ctx, f)
	case "sent":
		b.handleSent(f)
	case "status":
		b.log.WithField("status", f.Status).Info("bridge status update")
	case "qr":
		b.log.Info("bridge requests QR scan")
	case "error":
		b.log.WithField("error", f.Error).Warn("bridge reported error")
	}
}

// handleMessage runs the ordered checks: dedup, group filter, allow
// list, mute ledger, voice fallback, calendar attachments, the admin
// pipeline, the two-step restart confirmation, and finally publication to
// the bus. Dedup runs first so a reconnect-triggered replay of a frame
// already handled can't re-trigger any of the side-effecting branches
// below it (duplicate calendar imports, double-counted god-mode attempts,
// re-armed restart confirmations).
func (b *Bridge) handleMessage(ctx context.Context, f FrameIn) {
	if b.isDuplicateFrame(f) {
		return
	}
	if f.IsGroup {
		return
	}
	chatID := f.Sender
	if chatID == "" {
		chatID = f.ChatID
	}
	if chatID == "" || IsGroupSender(chatID) {
		return
	}
	phone := f.Phone
	if phone == "" {
		phone = chatID
	}

	if !b.allow.Allow(phone) {
		b.log.WithField("chat_id", trace.MaskChatID(chatID)).Info("message rejected: not allow-listed")
		return
	}
	if b.mutes.IsMuted(phone) {
		return
	}

	lang := b.langFor(ctx, chatID)
	content := strings.TrimSpace(f.Content)

	if f.AudioTooLarge || (f.MediaBase64 != "" && content == "" && f.AttachmentICS == "") {
		b.replyText(ctx, chatID, user.Text(user.MsgVoiceFailed, lang))
		return
	}

	if f.AttachmentICS != "" {
		count := b.importICS(ctx, chatID, f.AttachmentICS)
		b.replyText(ctx, chatID, fmt.Sprintf(user.Text(user.MsgICSSummary, lang), count))
		return
	}

	if strings.HasPrefix(content, "#") {
		result := b.godmode.Handle(chatID, content)
		if !result.Silent && result.Reply != "" {
			b.replyText(ctx, chatID, result.Reply)
		}
		return
	}

	if strings.EqualFold(content, "/restart") {
		b.confirmations.Set(ChannelName, chatID, user.ActionRestartStep1, nil)
		b.replyText(ctx, chatID, user.Text(user.MsgRestartConfirm1, lang))
		return
	}

	b.bus.PublishInbound(ctx, bus.InboundMessage{
		Channel:   ChannelName,
		SenderID:  phone,
		ChatID:    chatID,
		Content:   f.Content,
		Timestamp: time.UnixMilli(f.Timestamp),
		TraceID:   trace.New(),
		Metadata:  map[string]any{"message_id": f.ID},
	})
}

// handleReaction maps emoji reactions on a delivered reminder back to its
// job via the consume-on-read sentMapping reaction flow.
func (b *Bridge) handleReaction(ctx context.Context, f FrameIn) {
	if f.FromMe || f.ChatID == "" || f.MessageID == "" {
		return
	}
	jobID, ok := b.sent.consume(f.ChatID, f.MessageID)
	if !ok {
		return
	}
	lang := b.langFor(ctx, f.ChatID)

	switch ClassifyEmoji(f.Emoji) {
	case EmojiPositive:
		b.confirmations.Set(ChannelName, f.ChatID, user.ActionReactionComplete, map[string]string{"job_id": jobID})
		b.replyText(ctx, f.ChatID, user.Text(user.MsgReactionConfirm, lang))

	case EmojiSnooze:
		_, reason, err := b.scheduler.SnoozeJob(ChannelName, f.ChatID, jobID)
		if err != nil {
			return
		}
		switch reason {
		case cron.ReasonMaxSnoozes:
			b.replyText(ctx, f.ChatID, user.Text(user.MsgSnoozeMaxed, lang))
		case cron.ReasonNotOwner:
			// not this chat's job; silently ignore.
		default:
			b.replyText(ctx, f.ChatID, user.Text(user.MsgSnoozed, lang))
		}

	case EmojiNegative:
		b.scheduler.RemoveJob(ChannelName, f.ChatID, jobID) //nolint:errcheck

	case EmojiOther:
		// no handling defined for other reactions.
	}
}

func (b *Bridge) handleSent(f FrameIn) {
	b.pending.resolve(f.RequestID, f.ID, f.JobID)
	if f.ChatID != "" && f.ID != "" && f.JobID != "" {
		b.sent.put(f.ChatID, f.ID, f.JobID)
	}
}

// isDuplicateFrame reports whether f has already been handled: dedup keys
// on the bridge's message id when present, else a coarse content bucket of
// chat + content + a 30-second time window.
func (b *Bridge) isDuplicateFrame(f FrameIn) bool {
	chatID := f.Sender
	if chatID == "" {
		chatID = f.ChatID
	}
	id := strings.TrimSpace(f.ID)
	if id != "" {
		return !b.dedup.SetIfAbsent("id:"+id, struct{}{}, frameDedupTTL)
	}
	bucket := fmt.Sprintf("%s:%s:%d", chatID, strings.TrimSpace(f.Content), time.Now().Unix()/30)
	return !b.dedup.SetIfAbsent(bucket, struct{}{}, 30*time.Second)
}

func (b *Bridge) langFor(ctx context.Context, chatID string) string {
	if b.users == nil {
		return user.ResolveLanguage("", chatID)
	}
	u, err := b.users.GetUser(ctx, session.Key(ChannelName, chatID))
	if err != nil || u == nil {
		return user.ResolveLanguage("", chatID)
	}
	return user.ResolveLanguage(u.Language, chatID)
}

// replyText publishes a bridge-originated reply (admin, restart, ICS
// summary) through the bus like any agent reply, so it shares dedup and the
// outbound lane.
func (b *Bridge) replyText(ctx context.Context, chatID, text string) {
	b.bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel: ChannelName,
		ChatID:  chatID,
		Content: text,
		Metadata: map[string]any{
			"priority": string(bus.PriorityNormal),
		},
	})
}

// Send implements bus.OutboundSubscriber: it writes a "send" frame and
// blocks for the bridge's "sent" ack, recording the (chat_id,message_id) ->
// job_id mapping for later reaction correlation.
func (b *Bridge) Send(ctx context.Context, msg bus.OutboundMessage) error {
	b.mu.Lock()
	conn, connected := b.conn, b.connected
	b.mu.Unlock()
	if !connected || conn == nil {
		b.log.WithField("chat_id", trace.MaskChatID(msg.ChatID)).Warn("whatsapp_skipped: bridge disconnected")
		return fmt.Errorf("bridge disconnected")
	}

	requestID := trace.New()
	frame := FrameOut{Type: "send", To: msg.ChatID, Text: msg.Content, RequestID: requestID, JobID: msg.JobID()}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	waiter := b.pending.register(requestID)
	b.mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	b.mu.Unlock()
	if err != nil {
		b.pending.forget(requestID)
		return err
	}

	ack, ok := b.pending.waitForAck(requestID, waiter)
	if !ok {
		return fmt.Errorf("timed out waiting for bridge send ack")
	}
	if ack.messageID != "" && ack.jobID != "" {
		b.sent.put(msg.ChatID, ack.messageID, ack.jobID)
	}
	return nil
}
