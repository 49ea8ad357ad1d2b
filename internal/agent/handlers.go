package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/session"
	toolsPkg "github.com/zapista-bot/zapista-core/internal/tools"
	"github.com/zapista-bot/zapista-core/internal/user"
)

// HandlerContext is the per-turn bundle injected into every handler.
// Handlers communicate pending state via the user store, never via
// globals.
type HandlerContext struct {
	Channel string
	ChatID  string
	Lang    string
	Text    string

	Tools         *toolsPkg.Registry
	Sessions      session.Store
	Users         user.Store
	Confirmations *user.Confirmations
	Scheduler     *cron.Scheduler
}

// Handler is a single step in the ordered chain: it returns (reply,
// handled). handled=false means "pass to the next handler or the LLM
// fallback", mirroring a "string | null" contract.
type Handler func(ctx context.Context, hc *HandlerContext) (string, bool)

// namedHandler pairs a Handler with a name for logging, so a panic or
// error can be attributed to the handler that raised it.
type namedHandler struct {
	name string
	fn   Handler
}

// Registry is the ordered handler chain. Order encodes precedence
// directly: pending-confirmation resolution first, vague-time prompts
// before generic reminder creation, list/events disambiguation before
// list operations, help/start last.
type Registry struct {
	handlers []namedHandler
	strict   bool
	log      *logrus.Entry
}

// NewRegistry builds an empty Registry. strict mirrors the STRICT_HANDLERS
// env toggle: when true, a handler panic/error is re-raised instead of
// being logged and skipped (the "strict mode for tests").
func NewRegistry(strict bool, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{strict: strict, log: log}
}

// Add appends handler to the end of the chain, under name.
func (r *Registry) Add(name string, h Handler) {
	r.handlers = append(r.handlers, namedHandler{name: name, fn: h})
}

// Dispatch runs the chain in order, returning the first non-handled-false
// result. A handler that panics is isolated unless strict mode is set.
func (r *Registry) Dispatch(ctx context.Context, hc *HandlerContext) (reply string, handled bool) {
	for _, nh := range r.handlers {
		reply, handled = r.runOne(ctx, nh, hc)
		if handled {
			return reply, true
		}
	}
	return "", false
}

func (r *Registry) runOne(ctx context.Context, nh namedHandler, hc *HandlerContext) (reply string, handled bool) {
	if r.strict {
		return nh.fn(ctx, hc)
	}
	defer func() {
		if rec := recover(); rec != nil {
			preview := hc.Text
			if len(preview) > 80 {
				preview = preview[:80]
			}
			r.log.WithFields(logrus.Fields{
				"handler": nh.name,
				"preview": preview,
			}).WithField("panic", rec).Error("handler panicked, skipping")
			reply, handled = "", false
		}
	}()
	return nh.fn(ctx, hc)
}

// PendingConfirmationHandler resolves an outstanding yes/no prompt before
// any other handler runs.
func PendingConfirmationHandler() Handler {
	return func(ctx context.Context, hc *HandlerContext) (string, bool) {
		pc, ok := hc.Confirmations.Get(hc.Channel, hc.ChatID)
		if !ok {
			return "", false
		}
		positive, negative := classifyYesNo(hc.Text)
		if !positive && !negative {
			return "", false
		}
		hc.Confirmations.Clear(hc.Channel, hc.ChatID)

		switch pc.Action {
		case user.ActionReactionComplete:
			if !positive {
				return user.Text(user.MsgRestartCancelled, hc.Lang), true
			}
			jobID := pc.Args["job_id"]
			removed, _ := hc.Scheduler.RemoveJob(hc.Channel, hc.ChatID, jobID)
			if removed {
				return "Feito! ✅", true
			}
			return user.Text(user.MsgGenericError, hc.Lang), true
		case user.ActionRestartStep1:
			if !positive {
				return user.Text(user.MsgRestartCancelled, hc.Lang), true
			}
			hc.Confirmations.Set(hc.Channel, hc.ChatID, user.ActionRestartStep2, nil)
			return user.Text(user.MsgRestartConfirm2, hc.Lang), true
		case user.ActionRestartStep2:
			if !positive {
				return user.Text(user.MsgRestartCancelled, hc.Lang), true
			}
			return restartSentinel, true
		}
		return "", false
	}
}

func classifyYesNo(text string) (positive, negative bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case "sim", "s", "yes", "y", "sí", "si":
		return true, false
	case "não", "nao", "n", "no":
		return false, true
	}
	return false, false
}

var (
	reReminderIntent = regexp.MustCompile(`(?i)\b(me\s+lembra|lembra[- ]?me|lembrete|remind\s+me|reminder|recu[eé]rdame|avisa[- ]?me)\b`)
	reConcreteTime   = regexp.MustCompile(`(?i)(\d+\s*(min|hora|hour|h\b|seg|sec|dia|day)|[àa]s?\s+\d{1,2}[:h]\d{0,2}|at\s+\d{1,2}(:\d{2})?|amanh[ãa]|tomorrow|ma[ñn]ana|hoje|today|hoy|toda\s|todo\s|every\s|cada\s|segunda|ter[çc]a|quarta|quinta|sexta|s[áa]bado|domingo|monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	reWhatDoIHave    = regexp.MustCompile(`(?i)^(o\s+que\s+(eu\s+)?tenho|que\s+tengo|what\s+do\s+i\s+have|minhas\s+coisas|mis\s+cosas)\b`)
)

// VagueTimeHandler catches reminder requests that carry no usable time and
// prompts for one, before any generic reminder-creation path runs. Without
// it the LLM fallback would invent a time or schedule nothing.
func VagueTimeHandler() Handler {
	return func(ctx context.Context, hc *HandlerContext) (string, bool) {
		if !reReminderIntent.MatchString(hc.Text) {
			return "", false
		}
		if reConcreteTime.MatchString(hc.Text) {
			return "", false
		}
		return user.Text(user.MsgVagueTime, hc.Lang), true
	}
}

// ListOrEventsHandler disambiguates a generic "what do I have" question
// between lists and calendar events, ahead of any list operation.
func ListOrEventsHandler() Handler {
	return func(ctx context.Context, hc *HandlerContext) (string, bool) {
		if !reWhatDoIHave.MatchString(strings.TrimSpace(hc.Text)) {
			return "", false
		}
		return user.Text(user.MsgListOrEvents, hc.Lang), true
	}
}

// HelpHandler is last among informational handlers
func HelpHandler() Handler {
	return func(ctx context.Context, hc *HandlerContext) (string, bool) {
		t := strings.ToLower(strings.TrimSpace(hc.Text))
		if t != "/start" && t != "/help" && t != "/ajuda" {
			return "", false
		}
		return "Posso criar lembretes (/lembrete), listas (/list) e te avisar de eventos. Manda em linguagem natural ou use os comandos.", true
	}
}
