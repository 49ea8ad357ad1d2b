package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// OnJob is invoked when a job fires; it may return reply text.
type OnJob func(ctx context.Context, job Job) (string, error)

// ReasonNotOwner/ReasonMaxSnoozes are sentinel results surfaced to callers.
const (
	ReasonNotOwner   = "not yours"
	ReasonMaxSnoozes = "max-reached"
)

// snoozeDelay is the fixed re-scheduling delay per reaction-triggered snooze.
const snoozeDelay = 5 * time.Minute

// maxSnoozes caps repeated snoozing of the same parent job.
const maxSnoozes = 3

// Scheduler owns the durable job store and the single wake-up timer.
type Scheduler struct {
	mu        sync.Mutex
	storePath string
	doc       *storeDocument
	onJob     OnJob
	log       *logrus.Entry

	timer        *time.Timer
	safetyTicker *time.Ticker
	running      bool
	stop         chan struct{}
	ctx          context.Context
}

// New builds a Scheduler backed by the JSON document at storePath.
func New(storePath string, onJob OnJob, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{storePath: storePath, onJob: onJob, log: log, stop: make(chan struct{})}
}

// Start loads the store, recomputes next-run times, and arms the timer.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.doc = loadStore(s.storePath, s.log)
	s.running = true
	s.recomputeNextRunsLocked()
	_ = saveStore(s.storePath, s.doc)
	s.mu.Unlock()

	s.safetyTicker = time.NewTicker(5 * time.Minute)
	go s.safetyLoop(ctx)
	s.armTimer(ctx)
	s.log.WithField("jobs", len(s.doc.Jobs)).Info("cron scheduler started")
}

// Stop halts the timer and safety ticker.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.safetyTicker != nil {
		s.safetyTicker.Stop()
	}
	close(s.stop)
}

// safetyLoop re-checks for due jobs every 5 minutes in case a timer reset
// was ever missed.
func (s *Scheduler) safetyLoop(ctx context.Context) {
	for {
		select {
		case <-s.safetyTicker.C:
			s.onTimer(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) recomputeNextRunsLocked() {
	now := nowMs()
	for i := range s.doc.Jobs {
		j := &s.doc.Jobs[i]
		if j.Enabled {
			j.State.NextRunAtMs = computeNextRun(j.Schedule, now)
		}
	}
}

func (s *Scheduler) nextWakeMsLocked() *int64 {
	var min *int64
	for _, j := range s.doc.Jobs {
		if !j.Enabled || j.State.NextRunAtMs == nil {
			continue
		}
		if min == nil || *j.State.NextRunAtMs < *min {
			v := *j.State.NextRunAtMs
			min = &v
		}
	}
	return min
}

func (s *Scheduler) armTimer(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	wake := s.nextWakeMsLocked()
	running := s.running
	s.mu.Unlock()

	if wake == nil || !running {
		return
	}
	delay := time.Duration(*wake-nowMs()) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		active := s.running
		s.mu.Unlock()
		if active {
			s.onTimer(ctx)
		}
	})
}

func (s *Scheduler) onTimer(ctx context.Context) {
	s.mu.Lock()
	now := nowMs()
	var due []int
	for i, j := range s.doc.Jobs {
		if j.Enabled && j.State.NextRunAtMs != nil && now >= *j.State.NextRunAtMs {
			due = append(due, i)
		}
	}
	s.mu.Unlock()

	for _, i := range due {
		s.executeJobAt(ctx, i)
	}

	s.mu.Lock()
	_ = saveStore(s.storePath, s.doc)
	s.mu.Unlock()
	s.armTimer(ctx)
}

func (s *Scheduler) executeJobAt(ctx context.Context, idx int) {
	s.mu.Lock()
	if idx >= len(s.doc.Jobs) {
		s.mu.Unlock()
		return
	}
	job := s.doc.Jobs[idx]
	s.mu.Unlock()

	startMs := nowMs()
	s.log.WithFields(logrus.Fields{"job_id": job.ID, "name": job.Name}).Info("cron: executing job")

	var status LastStatus
	var errMsg string
	if s.onJob != nil {
		if _, err := s.onJob(ctx, job); err != nil {
			status, errMsg = StatusError, err.Error()
		} else {
			status = StatusOK
		}
	} else {
		status = StatusOK
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= len(s.doc.Jobs) || s.doc.Jobs[idx].ID != job.ID {
		return // job was removed concurrently
	}
	j := &s.doc.Jobs[idx]
	j.State.LastStatus = status
	j.State.LastError = errMsg
	j.State.LastRunAtMs = ptr(startMs)
	j.UpdatedAtMs = nowMs()

	switch {
	case j.Schedule.Kind == KindAt && status == StatusOK:
		s.doc.Jobs = append(s.doc.Jobs[:idx], s.doc.Jobs[idx+1:]...)
	case j.Schedule.Kind == KindAt:
		j.Enabled = false
		j.State.NextRunAtMs = nil
	default:
		j.State.NextRunAtMs = computeNextRun(j.Schedule, nowMs())
	}
}

// ListJobs returns jobs owned by (channel, chatID), sorted by next run.
func (s *Scheduler) ListJobs(channel, chatID string, includeDisabled bool) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Job
	for _, j := range s.doc.Jobs {
		jc, jt := j.Owner()
		if jc != channel || jt != chatID {
			continue
		}
		if !includeDisabled && !j.Enabled {
			continue
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, k int) bool {
		a, b := out[i].State.NextRunAtMs, out[k].State.NextRunAtMs
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return out
}

// AddJobRequest carries the fields needed to schedule a new job.
type AddJobRequest struct {
	Channel         string
	ChatID          string
	Name            string
	Schedule        Schedule
	Message         string
	Deliver         bool
	DeleteAfterRun  bool
	PayloadKind     PayloadKind
	SuggestedPrefix string
	// Locale steers friendly-id generation away from locale-specific
	// confusing tokens (state codes, common acronyms); empty means
	// check against every supported locale's blocklist.
	Locale string
}

// AddJob creates a job, merging into an existing one when (owner, normalized
// message, schedule kind+params) match exactly.
func (s *Scheduler) AddJob(req AddJobRequest) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgNorm := strings.ToLower(strings.TrimSpace(req.Message))
	for _, existing := range s.doc.Jobs {
		if !existing.Enabled {
			continue
		}
		ec, et := existing.Owner()
		if ec != req.Channel || et != req.ChatID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(existing.Payload.Message)) != msgNorm {
			continue
		}
		if existing.Schedule.Kind != req.Schedule.Kind {
			continue
		}
		switch req.Schedule.Kind {
		case KindEvery:
			if existing.Schedule.EveryMs != req.Schedule.EveryMs ||
				existing.Schedule.NotBeforeMs != req.Schedule.NotBeforeMs {
				continue
			}
		case KindCron:
			if strings.TrimSpace(existing.Schedule.Expr) != strings.TrimSpace(req.Schedule.Expr) ||
				existing.Schedule.TZ != req.Schedule.TZ ||
				existing.Schedule.NotBeforeMs != req.Schedule.NotBeforeMs {
				continue
			}
		case KindAt:
			if existing.Schedule.AtMs != req.Schedule.AtMs {
				continue
			}
		default:
			continue
		}
		s.log.WithField("job_id", existing.ID).Info("cron: duplicate job detected, returning existing")
		return existing
	}

	kind := req.PayloadKind
	if kind != PayloadAgentTurn && kind != PayloadSystemEvent {
		kind = PayloadAgentTurn
	}
	now := nowMs()
	existingIDs := make([]string, len(s.doc.Jobs))
	for i, j := range s.doc.Jobs {
		existingIDs[i] = j.ID
	}
	jobID := generateFriendlyJobID(firstNonEmpty(req.Message, req.Name), existingIDs, req.SuggestedPrefix, req.Locale)
	nextRun := computeNextRun(req.Schedule, now)

	job := Job{
		ID:      jobID,
		Name:    req.Name,
		Enabled: true,
		Schedule: req.Schedule,
		Payload: Payload{
			Kind:    kind,
			Message: req.Message,
			Deliver: req.Deliver,
			Channel: req.Channel,
			To:      req.ChatID,
		},
		State:          State{NextRunAtMs: nextRun},
		CreatedAtMs:    now,
		UpdatedAtMs:    now,
		DeleteAfterRun: req.DeleteAfterRun,
	}
	s.doc.Jobs = append(s.doc.Jobs, job)
	_ = saveStore(s.storePath, s.doc)
	s.log.WithFields(logrus.Fields{"job_id": jobID, "schedule": req.Schedule.Kind}).Info("cron: added job")
	s.rearmLocked()
	return job
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// RemoveJob removes jobID if owned by (channel, chatID), along with any
// pre-event or snooze children linked to it via ParentJobID. Returns
// ReasonNotOwner if the job exists but belongs to someone else.
func (s *Scheduler) RemoveJob(channel, chatID, jobID string) (removed bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, j := range s.doc.Jobs {
		if j.ID != jobID {
			continue
		}
		jc, jt := j.Owner()
		if jc != channel || jt != chatID {
			return false, ReasonNotOwner
		}
		found = true
		break
	}
	if !found {
		return false, ""
	}
	kept := s.doc.Jobs[:0]
	for _, j := range s.doc.Jobs {
		if j.ID == jobID || j.Payload.ParentJobID == jobID {
			continue
		}
		kept = append(kept, j)
	}
	s.doc.Jobs = kept
	_ = saveStore(s.storePath, s.doc)
	s.rearmLocked()
	return true, ""
}

// SnoozeJob creates a 5-minute "at" child of jobID, capped at maxSnoozes.
func (s *Scheduler) SnoozeJob(channel, chatID, jobID string) (Job, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parent *Job
	parentIdx := -1
	for i := range s.doc.Jobs {
		if s.doc.Jobs[i].ID == jobID {
			parent = &s.doc.Jobs[i]
			parentIdx = i
			break
		}
	}
	if parent == nil {
		return Job{}, "", fmt.Errorf("job %s not found", jobID)
	}
	pc, pt := parent.Owner()
	if pc != channel || pt != chatID {
		return Job{}, ReasonNotOwner, nil
	}
	if parent.State.SnoozeCount >= maxSnoozes {
		return Job{}, ReasonMaxSnoozes, nil
	}

	now := nowMs()
	existingIDs := make([]string, len(s.doc.Jobs))
	for i, j := range s.doc.Jobs {
		existingIDs[i] = j.ID
	}
	childID := generateFriendlyJobID(parent.Payload.Message, existingIDs, "", "")
	child := Job{
		ID:      childID,
		Name:    parent.Name,
		Enabled: true,
		Schedule: Schedule{Kind: KindAt, AtMs: now + snoozeDelay.Milliseconds()},
		Payload: Payload{
			Kind:        parent.Payload.Kind,
			Message:     parent.Payload.Message,
			Deliver:     parent.Payload.Deliver,
			Channel:     channel,
			To:          chatID,
			ParentJobID: jobID,
		},
		State:       State{NextRunAtMs: ptr(now + snoozeDelay.Milliseconds())},
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
	s.doc.Jobs = append(s.doc.Jobs, child)
	s.doc.Jobs[parentIdx].State.SnoozeCount++
	_ = saveStore(s.storePath, s.doc)
	s.rearmLocked()
	return child, "", nil
}

// AddPreEventLeads creates sibling "at" jobs firing leadSeconds before
// primary, for each lead strictly less than the primary's time-until-fire,
// linked via ParentJobID.
func (s *Scheduler) AddPreEventLeads(primary Job, leadSeconds []int) []Job {
	if primary.Schedule.Kind != KindAt {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var created []Job
	now := nowMs()
	inMs := primary.Schedule.AtMs - now
	for _, lead := range leadSeconds {
		leadMs := int64(lead) * 1000
		if leadMs <= 0 || leadMs >= inMs {
			continue
		}
		fireAt := primary.Schedule.AtMs - leadMs
		existingIDs := make([]string, len(s.doc.Jobs))
		for i, j := range s.doc.Jobs {
			existingIDs[i] = j.ID
		}
		childID := generateFriendlyJobID(primary.Payload.Message, existingIDs, "", "")
		child := Job{
			ID:      childID,
			Name:    primary.Name,
			Enabled: true,
			Schedule: Schedule{Kind: KindAt, AtMs: fireAt},
			Payload: Payload{
				Kind:        primary.Payload.Kind,
				Message:     primary.Payload.Message,
				Deliver:     primary.Payload.Deliver,
				Channel:     primary.Payload.Channel,
				To:          primary.Payload.To,
				ParentJobID: primary.ID,
			},
			State:       State{NextRunAtMs: ptr(fireAt)},
			CreatedAtMs: nowMs(),
			UpdatedAtMs: nowMs(),
		}
		s.doc.Jobs = append(s.doc.Jobs, child)
		created = append(created, child)
	}
	if len(created) > 0 {
		_ = saveStore(s.storePath, s.doc)
		s.rearmLocked()
	}
	return created
}

// rearmLocked re-arms the timer from within an already-held lock by
// deferring to a goroutine (armTimer takes the lock itself).
func (s *Scheduler) rearmLocked() {
	ctx := s.ctx
	if ctx == nil {
		return
	}
	go s.armTimer(ctx)
}

// Status reports the scheduler's operational snapshot.
func (s *Scheduler) Status() (enabled bool, jobCount int, nextWakeMs *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, len(s.doc.Jobs), s.nextWakeMsLocked()
}
