package agent

import "github.com/sirupsen/logrus"

// NewDefaultRegistry builds the handler chain in precedence order:
// pending-confirmation resolution first, prompting handlers next,
// informational handlers (help/start) last.
func NewDefaultRegistry(strict bool, log *logrus.Entry) *Registry {
	r := NewRegistry(strict, log)
	r.Add("pending_confirmation", PendingConfirmationHandler())
	r.Add("vague_time", VagueTimeHandler())
	r.Add("list_or_events", ListOrEventsHandler())
	r.Add("help", HelpHandler())
	return r
}
