// Package agent implements the per-turn pipeline: rate limit, structured
// parser, scope filter, handler chain, and LLM tool-call fallback. Each
// turn gathers context, runs the provider/tool-call loop, then finalizes
// the reply and session update.
package agent

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/bus"
	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/resilience"
	"github.com/zapista-bot/zapista-core/internal/session"
	toolsPkg "github.com/zapista-bot/zapista-core/internal/tools"
	"github.com/zapista-bot/zapista-core/internal/trace"
	"github.com/zapista-bot/zapista-core/internal/user"
)

// DefaultMaxLLMIterations bounds the LLM tool-call loop when no explicit
// limit is configured.
const DefaultMaxLLMIterations = 20

// restartSentinel is PendingConfirmationHandler's signal that the second
// restart confirmation landed; the loop turns it into the actual restart.
const restartSentinel = "__RESTART__"

// RestartExecutor performs the actual process restart once the two-step
// confirmation completes (injected).
type RestartExecutor func(ctx context.Context)

// Loop is the agent orchestration core.
type Loop struct {
	Bus           *bus.MessageBus
	RateLimit     *resilience.RateLimiter
	Scope         *ScopeChecker
	Handlers      *Registry
	Tools         *toolsPkg.Registry
	Sessions      session.Store
	Users         user.Store
	Confirmations *user.Confirmations
	Scheduler     *cron.Scheduler
	LLM           Provider
	Breaker       *resilience.CircuitBreaker
	Restart       RestartExecutor

	MaxLLMIterations int
	HistoryLimit     int

	Log *logrus.Entry
}

// Run consumes inbound messages until ctx is cancelled, using a 1-second
// poll loop so stop requests are honored promptly.
func (l *Loop) Run(ctx context.Context) {
	for {
		pollCtx, cancel := context.WithTimeout(ctx, time.Second)
		msg, ok := l.Bus.ConsumeInbound(pollCtx)
		cancel()
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		l.processOne(ctx, msg)
	}
}

func (l *Loop) processOne(ctx context.Context, msg bus.InboundMessage) {
	traceID := msg.TraceID
	if traceID == "" {
		traceID = trace.New()
	}
	ctx = trace.WithTraceID(ctx, traceID)
	log := l.Log.WithFields(logrus.Fields{
		"trace_id": traceID,
		"chat_id":  trace.MaskChatID(msg.ChatID),
		"channel":  msg.Channel,
	})

	lang, tz := l.resolveUserProfile(ctx, msg.Channel, msg.ChatID)

	// Outermost filter: a residual panic anywhere in the turn is logged and
	// answered with a generic apology instead of killing the consumer.
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("turn panicked, replying with a generic apology")
			l.reply(ctx, msg, user.Text(user.MsgGenericError, lang))
		}
	}()

	if !l.RateLimit.Allow(msg.SessionKey()) {
		l.reply(ctx, msg, user.Text(user.MsgRateLimited, lang))
		return
	}

	owner := toolsPkg.Owner{Channel: msg.Channel, ChatID: msg.ChatID, Timezone: tz, Locale: lang}
	toolCtx := toolsPkg.WithOwner(ctx, owner)

	if intent, ok := ParseSlashCommand(msg.Content); ok {
		reply := l.executeIntent(toolCtx, intent)
		l.finishTurn(ctx, msg, reply)
		return
	}

	// A bare "sim"/"não" answering an outstanding prompt would never pass
	// the scope filter, so pending confirmations skip it.
	_, hasPending := l.Confirmations.Get(msg.Channel, msg.ChatID)
	if !hasPending && !l.Scope.InScope(ctx, msg.Content) {
		l.finishTurn(ctx, msg, user.Text(user.MsgOutOfScope, lang))
		return
	}

	hc := &HandlerContext{
		Channel:       msg.Channel,
		ChatID:        msg.ChatID,
		Lang:          lang,
		Text:          msg.Content,
		Tools:         l.Tools,
		Sessions:      l.Sessions,
		Users:         l.Users,
		Confirmations: l.Confirmations,
		Scheduler:     l.Scheduler,
	}
	if reply, handled := l.Handlers.Dispatch(toolCtx, hc); handled {
		if reply == restartSentinel {
			l.finishTurn(ctx, msg, "Reiniciando...")
			if l.Restart != nil {
				go l.Restart(ctx)
			}
			return
		}
		l.finishTurn(ctx, msg, reply)
		return
	}

	reply, err := l.runLLMFallback(toolCtx, msg, lang, log)
	if err != nil {
		log.WithError(err).Warn("llm fallback failed, replying in degraded mode")
		reply = user.Text(user.MsgDegraded, lang)
	}
	l.finishTurn(ctx, msg, reply)
}

func (l *Loop) resolveUserProfile(ctx context.Context, channel, chatID string) (lang, tz string) {
	if l.Users == nil {
		return user.LangEN, "UTC"
	}
	u, err := l.Users.GetUser(ctx, session.Key(channel, chatID))
	if err != nil || u == nil {
		return user.ResolveLanguage("", chatID), "UTC"
	}
	tz = u.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return user.ResolveLanguage(u.Language, chatID), tz
}

// executeIntent maps a parsed structured command directly to a tool call,
// short-circuiting the scope filter, handler chain, and LLM entirely.
func (l *Loop) executeIntent(ctx context.Context, intent Intent) string {
	switch intent.Name {
	case IntentLembrete:
		args := map[string]any{"text": intent.Args["text"]}
		if v, ok := intent.Args["in_seconds"]; ok {
			args["in_seconds"] = v
		} else if h, ok := intent.Args["hour"]; ok {
			args["at_iso"] = nextOccurrenceISO(h, intent.Args["min"])
		}
		res, err := l.Tools.Call(ctx, "schedule_reminder", args)
		return toolResultText(res, err)

	case IntentListAdd:
		res, err := l.Tools.Call(ctx, "list_add_item", map[string]any{
			"list_name": intent.Args["list_name"],
			"item":      intent.Args["item"],
		})
		return toolResultText(res, err)

	case IntentListShow:
		res, err := l.Tools.Call(ctx, "list_show", map[string]any{"list_name": intent.Args["list_name"]})
		return toolResultText(res, err)

	case IntentFeito:
		target := intent.Args["target"]
		if target == "" {
			return "o que você já fez? me diz o id do item ou lembrete"
		}
		owner, _ := toolsPkg.OwnerFromContext(ctx)
		removed, reason := l.Scheduler.RemoveJob(owner.Channel, owner.ChatID, target)
		if removed {
			return "Marcado como feito ✅"
		}
		if reason == cron.ReasonNotOwner {
			return "esse item não é seu"
		}
		return fmt.Sprintf("não encontrei %q", target)

	case IntentUnhandled:
		return "essa funcionalidade não está disponível neste assistente."
	}
	return ""
}

func nextOccurrenceISO(hourStr, minStr string) string {
	hour, _ := strconv.Atoi(hourStr)
	min, _ := strconv.Atoi(minStr)
	now := time.Now()
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at.Format(time.RFC3339)
}

func toolResultText(res *mcp.CallToolResult, err error) string {
	if err != nil {
		return err.Error()
	}
	return mcpResultText(res)
}

// mcpResultText extracts the concatenated text content of an
// mcp.CallToolResult, the shape every tool in internal/tools returns via
// mcp.NewToolResultText.
func mcpResultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	out := ""
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

func (l *Loop) finishTurn(ctx context.Context, msg bus.InboundMessage, reply string) {
	if reply == "" || reply == restartSentinel {
		l.appendSession(ctx, msg, "")
		return
	}
	l.appendSession(ctx, msg, reply)
	l.reply(ctx, msg, reply)
}

func (l *Loop) appendSession(ctx context.Context, msg bus.InboundMessage, reply string) {
	if l.Sessions == nil {
		return
	}
	key := msg.SessionKey()
	entry, _ := l.Sessions.Get(ctx, key)
	if entry == nil {
		entry = &session.Entry{}
	}
	entry.Memory.AddTurn("user", msg.Content, l.historyLimit())
	if reply != "" {
		entry.Memory.AddTurn("assistant", reply, l.historyLimit())
	}
	_ = l.Sessions.Save(ctx, key, entry, 30*24*time.Hour)
}

func (l *Loop) historyLimit() int {
	if l.HistoryLimit > 0 {
		return l.HistoryLimit
	}
	return session.DefaultHistoryLimit
}

func (l *Loop) reply(ctx context.Context, msg bus.InboundMessage, text string) {
	l.Bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: text,
		Metadata: map[string]any{
			"priority": string(bus.PriorityNormal),
		},
	})
}

// runLLMFallback iterates the LLM up to MaxLLMIterations times, executing
// any requested tool calls and feeding their results back as tool-role
// messages.
func (l *Loop) runLLMFallback(ctx context.Context, msg bus.InboundMessage, lang string, log *logrus.Entry) (string, error) {
	if l.LLM == nil {
		return user.Text(user.MsgDegraded, lang), nil
	}
	max := l.MaxLLMIterations
	if max <= 0 {
		max = DefaultMaxLLMIterations
	}

	history := l.buildHistory(ctx, msg)
	toolDefs := l.Tools.List()

	for i := 0; i < max; i++ {
		completion, err := l.LLM.Complete(ctx, history, toolDefs)
		if err != nil {
			if l.Breaker != nil {
				l.Breaker.RecordFailure()
			}
			return "", err
		}
		if l.Breaker != nil {
			l.Breaker.RecordSuccess()
		}
		if len(completion.ToolCalls) == 0 {
			return completion.Text, nil
		}
		for _, call := range completion.ToolCalls {
			res, err := l.Tools.Call(ctx, call.Name, call.Arguments)
			text := toolResultText(res, err)
			history = append(history, Message{Role: "tool", Content: fmt.Sprintf("%s: %s", call.Name, text)})
		}
	}
	log.Warn("llm fallback exhausted max iterations without a plain-text reply")
	return user.Text(user.MsgDegraded, lang), nil
}

func (l *Loop) buildHistory(ctx context.Context, msg bus.InboundMessage) []Message {
	var history []Message
	if l.Sessions != nil {
		if entry, _ := l.Sessions.Get(ctx, msg.SessionKey()); entry != nil {
			for _, turn := range entry.Memory.History {
				history = append(history, Message{Role: turn.Role, Content: turn.Content})
			}
		}
	}
	history = append(history, Message{Role: "user", Content: msg.Content})
	return history
}
