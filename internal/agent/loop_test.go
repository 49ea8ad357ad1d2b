package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapista-bot/zapista-core/internal/bus"
	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/resilience"
	"github.com/zapista-bot/zapista-core/internal/session"
	toolsPkg "github.com/zapista-bot/zapista-core/internal/tools"
	"github.com/zapista-bot/zapista-core/internal/user"
)

func newTestLoop(t *testing.T, rateCapacity int) (*Loop, *bus.MessageBus, *cron.Scheduler) {
	t.Helper()

	b := bus.New(nil, "zapista", nil)
	sched := cron.New(filepath.Join(t.TempDir(), "jobs.json"), nil, nil)
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	reg := toolsPkg.NewRegistry()
	toolsPkg.NewCronTools(sched, nil).Register(reg)

	sessions := session.NewMemoryStore(nil)
	t.Cleanup(sessions.Stop)

	breaker := resilience.NewCircuitBreaker("llm", 3, time.Minute)
	l := &Loop{
		Bus:           b,
		RateLimit:     resilience.NewRateLimiter(rateCapacity, time.Minute),
		Scope:         NewScopeChecker(breaker, nil),
		Handlers:      NewDefaultRegistry(false, nil),
		Tools:         reg,
		Sessions:      sessions,
		Confirmations: user.NewConfirmations(),
		Scheduler:     sched,
		Breaker:       breaker,
		Log:           logrus.NewEntry(logrus.StandardLogger()),
	}
	return l, b, sched
}

func consumeReply(t *testing.T, b *bus.MessageBus) bus.OutboundMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeOutbound(ctx)
	require.True(t, ok, "expected an outbound reply")
	return msg
}

func TestLembreteCommandSchedulesJobAndReplies(t *testing.T) {
	l, b, sched := newTestLoop(t, 15)

	l.processOne(context.Background(), bus.InboundMessage{
		Channel: "whatsapp", ChatID: "U1", SenderID: "5511999990000",
		Content: "/lembrete beber água em 2 min",
	})

	jobs := sched.ListJobs("whatsapp", "U1", false)
	require.Len(t, jobs, 1)
	assert.Equal(t, "beber água", jobs[0].Payload.Message)
	assert.Equal(t, cron.KindAt, jobs[0].Schedule.Kind)

	reply := consumeReply(t, b)
	assert.Equal(t, "U1", reply.ChatID)
	assert.Contains(t, reply.Content, "Lembrete agendado")
}

func TestRateLimitedTurnShortCircuits(t *testing.T) {
	l, b, _ := newTestLoop(t, 1)
	ctx := context.Background()

	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "/lembrete agua em 5 min"})
	consumeReply(t, b)

	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "oi"})
	reply := consumeReply(t, b)
	assert.Equal(t, user.Text(user.MsgRateLimited, user.LangEN), reply.Content)
}

func TestOutOfScopeFreeTextGetsScopeReminder(t *testing.T) {
	l, b, _ := newTestLoop(t, 15)

	l.processOne(context.Background(), bus.InboundMessage{
		Channel: "whatsapp", ChatID: "U1", Content: "qual a capital da França?",
	})
	reply := consumeReply(t, b)
	assert.Equal(t, user.Text(user.MsgOutOfScope, user.LangEN), reply.Content)
}

func TestPendingConfirmationBypassesScopeFilter(t *testing.T) {
	l, b, sched := newTestLoop(t, 15)
	ctx := context.Background()

	job := sched.AddJob(cron.AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: cron.Schedule{Kind: cron.KindAt, AtMs: time.Now().Add(time.Hour).UnixMilli()},
		Message:  "reuniao",
	})
	l.Confirmations.Set("whatsapp", "U1", user.ActionReactionComplete, map[string]string{"job_id": job.ID})

	// a bare "sim" never matches the scope regex, yet must reach the
	// pending-confirmation handler
	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "sim"})
	reply := consumeReply(t, b)
	assert.Contains(t, reply.Content, "Feito")
	assert.Empty(t, sched.ListJobs("whatsapp", "U1", true))
}

func TestFeitoRemovesOwnJobOnly(t *testing.T) {
	l, b, sched := newTestLoop(t, 15)
	ctx := context.Background()

	job := sched.AddJob(cron.AddJobRequest{
		Channel: "whatsapp", ChatID: "U2",
		Schedule: cron.Schedule{Kind: cron.KindAt, AtMs: time.Now().Add(time.Hour).UnixMilli()},
		Message:  "tarefa do U2",
	})

	// U1 trying to complete U2's job is refused
	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "/feito " + job.ID})
	consumeReply(t, b)
	require.Len(t, sched.ListJobs("whatsapp", "U2", true), 1)

	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U2", Content: "/feito " + job.ID})
	reply := consumeReply(t, b)
	assert.Contains(t, reply.Content, "feito")
	assert.Empty(t, sched.ListJobs("whatsapp", "U2", true))
}

func TestTurnAppendsToSession(t *testing.T) {
	l, b, _ := newTestLoop(t, 15)
	ctx := context.Background()

	l.processOne(ctx, bus.InboundMessage{Channel: "whatsapp", ChatID: "U1", Content: "/lembrete agua em 5 min"})
	consumeReply(t, b)

	entry, err := l.Sessions.Get(ctx, session.Key("whatsapp", "U1"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Len(t, entry.Memory.History, 2)
	assert.Equal(t, "user", entry.Memory.History[0].Role)
	assert.Equal(t, "assistant", entry.Memory.History[1].Role)
}
