package cron

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "jobs.json"), nil, nil)
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

func TestPerUserJobIsolation(t *testing.T) {
	s := newTestScheduler(t)
	job := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "B", Name: "x",
		Schedule: Schedule{Kind: KindAt, AtMs: nowMs() + 60_000},
		Message:  "beber agua",
	})

	jobsForA := s.ListJobs("whatsapp", "A", true)
	require.Empty(t, jobsForA)

	removed, reason := s.RemoveJob("whatsapp", "A", job.ID)
	require.False(t, removed)
	require.Equal(t, ReasonNotOwner, reason)
}

func TestDuplicateJobMerges(t *testing.T) {
	s := newTestScheduler(t)
	req := AddJobRequest{
		Channel: "whatsapp", ChatID: "U1", Name: "x",
		Schedule: Schedule{Kind: KindEvery, EveryMs: MinEveryMs},
		Message:  "beber agua",
	}
	first := s.AddJob(req)
	second := s.AddJob(req)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, s.ListJobs("whatsapp", "U1", true), 1)
}

func TestSnoozeCapsAtThree(t *testing.T) {
	s := newTestScheduler(t)
	job := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: Schedule{Kind: KindAt, AtMs: nowMs() + 60_000},
		Message:  "reuniao",
	})
	for i := 0; i < 3; i++ {
		_, reason, err := s.SnoozeJob("whatsapp", "U1", job.ID)
		require.NoError(t, err)
		require.Empty(t, reason)
	}
	_, reason, err := s.SnoozeJob("whatsapp", "U1", job.ID)
	require.NoError(t, err)
	require.Equal(t, ReasonMaxSnoozes, reason)
}

func TestEveryScheduleStartsAtNotBefore(t *testing.T) {
	now := nowMs()
	notBefore := now + 5*time.Hour.Milliseconds()
	next := computeNextRun(Schedule{Kind: KindEvery, EveryMs: MinEveryMs, NotBeforeMs: notBefore}, now)
	require.NotNil(t, next)
	require.Equal(t, notBefore, *next)
}

func TestOneShotLifecycleRemovesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "jobs.json"), func(ctx context.Context, j Job) (string, error) {
		return "ok", nil
	}, nil)
	s.Start(context.Background())
	defer s.Stop()

	job := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: Schedule{Kind: KindAt, AtMs: nowMs() - 1000}, // already due
		Message:  "beber agua",
	})

	idx := -1
	for i, j := range s.doc.Jobs {
		if j.ID == job.ID {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	s.executeJobAt(context.Background(), idx)

	for _, j := range s.doc.Jobs {
		require.NotEqual(t, job.ID, j.ID)
	}
}

func TestOneShotFailureDisablesJob(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "jobs.json"), func(ctx context.Context, j Job) (string, error) {
		return "", context.DeadlineExceeded
	}, nil)
	s.Start(context.Background())
	defer s.Stop()

	job := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: Schedule{Kind: KindAt, AtMs: nowMs() - 1000},
		Message:  "beber agua",
	})

	idx := -1
	for i, j := range s.doc.Jobs {
		if j.ID == job.ID {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	s.executeJobAt(context.Background(), idx)

	jobs := s.ListJobs("whatsapp", "U1", true)
	require.Len(t, jobs, 1, "a failed one-shot is retained for debugging")
	got := jobs[0]
	require.False(t, got.Enabled)
	require.Nil(t, got.State.NextRunAtMs)
	require.Equal(t, StatusError, got.State.LastStatus)
	require.NotEmpty(t, got.State.LastError)
	require.Empty(t, s.ListJobs("whatsapp", "U1", false), "disabled jobs are hidden from the default listing")
}

func TestPreEventLeadsCreateLinkedSiblings(t *testing.T) {
	s := newTestScheduler(t)
	atMs := nowMs() + 3_600_000 // one hour out
	primary := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: Schedule{Kind: KindAt, AtMs: atMs},
		Message:  "reuniao projeto",
	})

	// 7200s exceeds the time-until-fire and must be skipped
	created := s.AddPreEventLeads(primary, []int{900, 60, 7200})
	require.Len(t, created, 2)
	for _, child := range created {
		require.Equal(t, primary.ID, child.Payload.ParentJobID)
		require.Equal(t, KindAt, child.Schedule.Kind)
	}
	require.Equal(t, atMs-900_000, created[0].Schedule.AtMs)
	require.Equal(t, atMs-60_000, created[1].Schedule.AtMs)
}

func TestRemoveJobCascadesToChildren(t *testing.T) {
	s := newTestScheduler(t)
	primary := s.AddJob(AddJobRequest{
		Channel: "whatsapp", ChatID: "U1",
		Schedule: Schedule{Kind: KindAt, AtMs: nowMs() + 3_600_000},
		Message:  "reuniao projeto",
	})
	s.AddPreEventLeads(primary, []int{900, 60})
	_, _, err := s.SnoozeJob("whatsapp", "U1", primary.ID)
	require.NoError(t, err)
	require.Len(t, s.ListJobs("whatsapp", "U1", true), 4)

	removed, reason := s.RemoveJob("whatsapp", "U1", primary.ID)
	require.True(t, removed)
	require.Empty(t, reason)
	require.Empty(t, s.ListJobs("whatsapp", "U1", true), "pre-event and snooze children go with the parent")
}

func TestFriendlyIDDerivesFromKeyword(t *testing.T) {
	id := generateFriendlyJobID("lembrar de beber agua", nil, "", "pt-BR")
	require.Contains(t, id, "AG")
}

func TestFriendlyIDFallsBackToLM(t *testing.T) {
	id := generateFriendlyJobID("   ", nil, "", "pt-BR")
	require.Equal(t, "LM01", id)
}

func TestFriendlyIDAvoidsConfusingStateCode(t *testing.T) {
	// "sp" alone would letter-derive to "SP", a Brazilian state code; the
	// generator must skip it and fall back to the next candidate.
	id := generateFriendlyJobID("sp", nil, "", "pt-BR")
	require.NotEqual(t, "SP01", id)
}

func TestFriendlyIDOverrideRejectsConfusingToken(t *testing.T) {
	id := generateFriendlyJobID("lembrar de beber agua", nil, "PIX", "pt-BR")
	require.NotContains(t, id, "PIX")
}
