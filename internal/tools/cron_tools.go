package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zapista-bot/zapista-core/internal/cron"
)

// LeadsLookup resolves a chat's configured pre-event lead seconds from the
// owning user's DefaultLeadSeconds/ExtraLeads settings.
type LeadsLookup func(ctx context.Context, channel, chatID string) (defaultLead int, extraLeads []int)

// CronTools exposes reminder scheduling as LLM-callable tools: schedule,
// list, remove, and snooze, covering the cron module's full at/every/cron
// surface.
type CronTools struct {
	scheduler *cron.Scheduler
	leads     LeadsLookup
}

// NewCronTools builds the cron tool set bound to scheduler.
func NewCronTools(scheduler *cron.Scheduler, leads LeadsLookup) *CronTools {
	return &CronTools{scheduler: scheduler, leads: leads}
}

// Register wires all cron tools into reg.
func (t *CronTools) Register(reg *Registry) {
	reg.Register(t.scheduleTool(), t.handleSchedule)
	reg.Register(t.listTool(), t.handleList)
	reg.Register(t.removeTool(), t.handleRemove)
	reg.Register(t.snoozeTool(), t.handleSnooze)
}

func (t *CronTools) scheduleTool() mcp.Tool {
	return mcp.NewTool(
		"schedule_reminder",
		mcp.WithDescription("Schedules a reminder message for the user. Provide exactly one of in_seconds, at_iso, every_minutes, or cron_expr."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The reminder message, written naturally in the user's language.")),
		mcp.WithString("in_seconds", mcp.Description("Fire once, this many seconds from now.")),
		mcp.WithString("at_iso", mcp.Description("Fire once, at this RFC3339 timestamp.")),
		mcp.WithString("every_minutes", mcp.Description("Recur every N minutes (minimum 30).")),
		mcp.WithString("cron_expr", mcp.Description("Recur on this 5-field cron expression, interpreted in the user's timezone.")),
	)
}

func (t *CronTools) handleSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	args := req.GetArguments()
	text, _ := args["text"].(string)
	if text == "" {
		return mcp.NewToolResultText("a reminder needs a message"), nil
	}

	now := time.Now()
	var schedule cron.Schedule
	switch {
	case strField(args, "in_seconds") != "":
		secs, err := strconv.Atoi(strField(args, "in_seconds"))
		if err != nil || secs <= 0 {
			return mcp.NewToolResultText("in_seconds must be a positive integer"), nil
		}
		schedule = cron.Schedule{Kind: cron.KindAt, AtMs: now.Add(time.Duration(secs) * time.Second).UnixMilli()}

	case strField(args, "at_iso") != "":
		at, err := time.Parse(time.RFC3339, strField(args, "at_iso"))
		if err != nil {
			return mcp.NewToolResultText("at_iso must be RFC3339 (e.g. 2026-08-01T09:00:00-03:00)"), nil
		}
		schedule = cron.Schedule{Kind: cron.KindAt, AtMs: at.UnixMilli()}

	case strField(args, "every_minutes") != "":
		mins, err := strconv.Atoi(strField(args, "every_minutes"))
		if err != nil || mins <= 0 {
			return mcp.NewToolResultText("every_minutes must be a positive integer"), nil
		}
		everyMs := int64(mins) * 60_000
		if err := validation.Validate(everyMs, validation.Min(cron.MinEveryMs), validation.Max(cron.MaxEveryMs)); err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("every_minutes out of range: %s", err)), nil
		}
		schedule = cron.Schedule{Kind: cron.KindEvery, EveryMs: everyMs}

	case strField(args, "cron_expr") != "":
		schedule = cron.Schedule{Kind: cron.KindCron, Expr: strField(args, "cron_expr"), TZ: owner.Timezone}

	default:
		return mcp.NewToolResultText("provide one of in_seconds, at_iso, every_minutes, or cron_expr"), nil
	}

	job := t.scheduler.AddJob(cron.AddJobRequest{
		Channel:     owner.Channel,
		ChatID:      owner.ChatID,
		Name:        text,
		Schedule:    schedule,
		Message:     text,
		Deliver:     true,
		PayloadKind: cron.PayloadAgentTurn,
		Locale:      owner.Locale,
	})

	if schedule.Kind == cron.KindAt && t.leads != nil {
		defaultLead, extra := t.leads(ctx, owner.Channel, owner.ChatID)
		leads := append([]int{defaultLead}, extra...)
		t.scheduler.AddPreEventLeads(job, leads)
	}

	loc := time.UTC
	if owner.Timezone != "" {
		if l, err := time.LoadLocation(owner.Timezone); err == nil {
			loc = l
		}
	}
	localTime, relTime := "", ""
	if job.State.NextRunAtMs != nil {
		fireAt := time.UnixMilli(*job.State.NextRunAtMs)
		localTime = fireAt.In(loc).Format("15:04")
		relTime = humanize.Time(fireAt)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Lembrete agendado (%s) para %s (%s)", job.ID, localTime, relTime)), nil
}

func strField(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (t *CronTools) listTool() mcp.Tool {
	return mcp.NewTool(
		"list_my_reminders",
		mcp.WithDescription("Lists all scheduled reminders for the user."),
	)
}

func (t *CronTools) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	jobs := t.scheduler.ListJobs(owner.Channel, owner.ChatID, false)
	if len(jobs) == 0 {
		return mcp.NewToolResultText("no reminders scheduled"), nil
	}
	out := ""
	for _, j := range jobs {
		out += fmt.Sprintf("%s: %s\n", j.ID, j.Payload.Message)
	}
	return mcp.NewToolResultText(out), nil
}

func (t *CronTools) removeTool() mcp.Tool {
	return mcp.NewTool(
		"remove_reminder",
		mcp.WithDescription("Cancels a scheduled reminder by its id."),
		mcp.WithString("job_id", mcp.Required()),
	)
}

func (t *CronTools) handleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	jobID, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultText("job_id is required"), nil
	}
	removed, reason := t.scheduler.RemoveJob(owner.Channel, owner.ChatID, jobID)
	if reason == cron.ReasonNotOwner {
		return mcp.NewToolResultText("that reminder isn't yours"), nil
	}
	if !removed {
		return mcp.NewToolResultText("reminder not found"), nil
	}
	return mcp.NewToolResultText("reminder removed"), nil
}

func (t *CronTools) snoozeTool() mcp.Tool {
	return mcp.NewTool(
		"snooze_reminder",
		mcp.WithDescription("Snoozes a reminder by 5 minutes, up to 3 times."),
		mcp.WithString("job_id", mcp.Required()),
	)
}

func (t *CronTools) handleSnooze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("missing owner in context")
	}
	jobID, err := req.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultText("job_id is required"), nil
	}
	_, reason, err := t.scheduler.SnoozeJob(owner.Channel, owner.ChatID, jobID)
	if err != nil {
		return mcp.NewToolResultText("reminder not found"), nil
	}
	switch reason {
	case cron.ReasonNotOwner:
		return mcp.NewToolResultText("that reminder isn't yours"), nil
	case cron.ReasonMaxSnoozes:
		return mcp.NewToolResultText("already snoozed the maximum number of times"), nil
	}
	return mcp.NewToolResultText("snoozed for 5 minutes"), nil
}
