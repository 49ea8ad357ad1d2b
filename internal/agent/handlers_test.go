package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/user"
)

func newHandlerScheduler(t *testing.T) *cron.Scheduler {
	t.Helper()
	s := cron.New(filepath.Join(t.TempDir(), "jobs.json"), nil, nil)
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func TestRegistryIsolatesPanickingHandler(t *testing.T) {
	r := NewRegistry(false, nil)
	r.Add("boom", func(ctx context.Context, hc *HandlerContext) (string, bool) {
		panic("handler bug")
	})
	r.Add("fallback", func(ctx context.Context, hc *HandlerContext) (string, bool) {
		return "ok", true
	})

	reply, handled := r.Dispatch(context.Background(), &HandlerContext{Text: "oi"})
	require.True(t, handled)
	assert.Equal(t, "ok", reply)
}

func TestRegistryStrictModePropagatesPanic(t *testing.T) {
	r := NewRegistry(true, nil)
	r.Add("boom", func(ctx context.Context, hc *HandlerContext) (string, bool) {
		panic("handler bug")
	})

	require.Panics(t, func() {
		r.Dispatch(context.Background(), &HandlerContext{Text: "oi"})
	})
}

func TestRegistryFirstNonNullWins(t *testing.T) {
	r := NewRegistry(false, nil)
	r.Add("first", func(ctx context.Context, hc *HandlerContext) (string, bool) {
		return "first", true
	})
	called := false
	r.Add("second", func(ctx context.Context, hc *HandlerContext) (string, bool) {
		called = true
		return "second", true
	})

	reply, _ := r.Dispatch(context.Background(), &HandlerContext{Text: "oi"})
	assert.Equal(t, "first", reply)
	assert.False(t, called, "later handlers must not run after an early exit")
}

func TestReactionCompleteRemovesJobAndSiblings(t *testing.T) {
	sched := newHandlerScheduler(t)
	confirmations := user.NewConfirmations()

	primary := sched.AddJob(cron.AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: cron.Schedule{Kind: cron.KindAt, AtMs: time.Now().Add(time.Hour).UnixMilli()},
		Message:  "reuniao projeto", Deliver: true,
	})
	siblings := sched.AddPreEventLeads(primary, []int{900})
	require.Len(t, siblings, 1)
	require.Len(t, sched.ListJobs("whatsapp", "U1", true), 2)

	confirmations.Set("whatsapp", "U1", user.ActionReactionComplete, map[string]string{"job_id": primary.ID})

	h := PendingConfirmationHandler()
	hc := &HandlerContext{
		Channel: "whatsapp", ChatID: "U1", Lang: user.LangPtBR, Text: "sim",
		Confirmations: confirmations, Scheduler: sched,
	}
	reply, handled := h(context.Background(), hc)
	require.True(t, handled)
	assert.Contains(t, reply, "Feito")
	assert.Empty(t, sched.ListJobs("whatsapp", "U1", true), "the job and its pre-event siblings must both be gone")
}

func TestReactionCompleteNegativeReplyKeepsJob(t *testing.T) {
	sched := newHandlerScheduler(t)
	confirmations := user.NewConfirmations()

	job := sched.AddJob(cron.AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: cron.Schedule{Kind: cron.KindAt, AtMs: time.Now().Add(time.Hour).UnixMilli()},
		Message:  "reuniao",
	})
	confirmations.Set("whatsapp", "U1", user.ActionReactionComplete, map[string]string{"job_id": job.ID})

	hc := &HandlerContext{
		Channel: "whatsapp", ChatID: "U1", Lang: user.LangPtBR, Text: "não",
		Confirmations: confirmations, Scheduler: sched,
	}
	_, handled := PendingConfirmationHandler()(context.Background(), hc)
	require.True(t, handled)
	assert.Len(t, sched.ListJobs("whatsapp", "U1", true), 1)

	_, stillPending := confirmations.Get("whatsapp", "U1")
	assert.False(t, stillPending, "any terminal reply clears the pending state")
}

func TestRestartTwoStepConfirmation(t *testing.T) {
	confirmations := user.NewConfirmations()
	confirmations.Set("whatsapp", "U1", user.ActionRestartStep1, nil)
	h := PendingConfirmationHandler()

	hc := &HandlerContext{Channel: "whatsapp", ChatID: "U1", Lang: user.LangPtBR, Text: "sim", Confirmations: confirmations}
	reply, handled := h(context.Background(), hc)
	require.True(t, handled)
	assert.NotEqual(t, restartSentinel, reply, "the first positive only advances the flow")

	pc, ok := confirmations.Get("whatsapp", "U1")
	require.True(t, ok)
	require.Equal(t, user.ActionRestartStep2, pc.Action)

	reply, handled = h(context.Background(), hc)
	require.True(t, handled)
	assert.Equal(t, restartSentinel, reply, "the second positive triggers the restart")
}

func TestRestartAnyNegativeCancels(t *testing.T) {
	confirmations := user.NewConfirmations()
	confirmations.Set("whatsapp", "U1", user.ActionRestartStep2, nil)

	hc := &HandlerContext{Channel: "whatsapp", ChatID: "U1", Lang: user.LangPtBR, Text: "nao", Confirmations: confirmations}
	reply, handled := PendingConfirmationHandler()(context.Background(), hc)
	require.True(t, handled)
	assert.NotEqual(t, restartSentinel, reply)

	_, stillPending := confirmations.Get("whatsapp", "U1")
	assert.False(t, stillPending)
}

func TestVagueTimeHandlerPromptsWithoutConcreteTime(t *testing.T) {
	h := VagueTimeHandler()

	reply, handled := h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "me lembra de pagar a conta"})
	require.True(t, handled)
	assert.NotEmpty(t, reply)

	_, handled = h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "me lembra de pagar a conta em 30 min"})
	assert.False(t, handled, "a concrete time must fall through to reminder creation")

	_, handled = h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "me lembra amanhã de pagar a conta"})
	assert.False(t, handled)

	_, handled = h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "adiciona leite na lista"})
	assert.False(t, handled, "non-reminder text is not this handler's concern")
}

func TestListOrEventsHandlerDisambiguates(t *testing.T) {
	h := ListOrEventsHandler()

	reply, handled := h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "o que eu tenho?"})
	require.True(t, handled)
	assert.NotEmpty(t, reply)

	_, handled = h(context.Background(), &HandlerContext{Lang: user.LangPtBR, Text: "mostra a lista mercado"})
	assert.False(t, handled)
}
