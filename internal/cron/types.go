// Package cron implements the durable cron scheduler: schedule types, the
// JSON-document store, next-run computation, the timer, and friendly job
// ids.
package cron

// ScheduleKind is the tagged variant discriminator for CronSchedule.
type ScheduleKind string

const (
	KindAt    ScheduleKind = "at"
	KindEvery ScheduleKind = "every"
	KindCron  ScheduleKind = "cron"
)

// MinEveryMs and MaxEveryMs bound the "every" interval
const (
	MinEveryMs int64 = 1_800_000     // 30 minutes
	MaxEveryMs int64 = 30 * 86_400_000 // 30 days
)

// Schedule is the tagged CronSchedule variant.
type Schedule struct {
	Kind ScheduleKind `json:"kind"`

	AtMs int64 `json:"atMs,omitempty"` // kind=at

	EveryMs int64 `json:"everyMs,omitempty"` // kind=every

	Expr string `json:"expr,omitempty"` // kind=cron, 5-field expression
	TZ   string `json:"tz,omitempty"`   // kind=cron, IANA zone

	NotBeforeMs int64 `json:"notBeforeMs,omitempty"` // every/cron "starting from"
}

// PayloadKind discriminates what a job does when it fires.
type PayloadKind string

const (
	PayloadAgentTurn   PayloadKind = "agent_turn"
	PayloadSystemEvent PayloadKind = "system_event"
)

// Payload is the CronPayload tagged variant.
type Payload struct {
	Kind        PayloadKind `json:"kind"`
	Message     string      `json:"message"`
	Deliver     bool        `json:"deliver"`
	Channel     string      `json:"channel,omitempty"`
	To          string      `json:"to,omitempty"` // owner chat_id
	ParentJobID string      `json:"parentJobId,omitempty"`
}

// LastStatus is the job's last-execution outcome.
type LastStatus string

const (
	StatusOK    LastStatus = "ok"
	StatusError LastStatus = "error"
)

// State is the CronJobState.
type State struct {
	NextRunAtMs *int64     `json:"nextRunAtMs,omitempty"`
	LastRunAtMs *int64     `json:"lastRunAtMs,omitempty"`
	LastStatus  LastStatus `json:"lastStatus,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	SnoozeCount int        `json:"snoozeCount,omitempty"`
}

// Job is a single scheduled job. Owner is (Channel, payload.To); list/remove
// operations MUST filter and reject by owner.
type Job struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Enabled         bool     `json:"enabled"`
	Schedule        Schedule `json:"schedule"`
	Payload         Payload  `json:"payload"`
	State           State    `json:"state"`
	CreatedAtMs     int64    `json:"createdAtMs"`
	UpdatedAtMs     int64    `json:"updatedAtMs"`
	DeleteAfterRun  bool     `json:"deleteAfterRun"`
}

// Owner returns the (channel, chat_id) tuple this job belongs to.
func (j Job) Owner() (channel, chatID string) {
	return j.Payload.Channel, j.Payload.To
}
