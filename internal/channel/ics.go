package channel

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/user"
)

// icsEvent is a single parsed VEVENT: only SUMMARY and DTSTART matter for
// reminder scheduling.
type icsEvent struct {
	Summary string
	Start   time.Time
}

// parseICS extracts VEVENT blocks from a minimal RFC 5545 calendar body.
// Line folding, timezone components (VTIMEZONE), and recurrence rules are
// out of scope; DTSTART is read either as a UTC "Z" timestamp or a floating
// local timestamp.
func parseICS(data string) []icsEvent {
	var events []icsEvent
	var cur *icsEvent
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "BEGIN:VEVENT":
			cur = &icsEvent{}
		case line == "END:VEVENT":
			if cur != nil && !cur.Start.IsZero() {
				events = append(events, *cur)
			}
			cur = nil
		case cur != nil && strings.HasPrefix(line, "SUMMARY:"):
			cur.Summary = strings.TrimPrefix(line, "SUMMARY:")
		case cur != nil && strings.HasPrefix(line, "DTSTART"):
			cur.Start = parseICSTime(line)
		}
	}
	return events
}

func parseICSTime(line string) time.Time {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return time.Time{}
	}
	value := line[idx+1:]
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// importICS decodes a base64 ICS attachment, creates an Event plus a
// pre-event reminder job for every future VEVENT, and returns how many it
// created.
func (b *Bridge) importICS(ctx context.Context, chatID, rawBase64 string) int {
	data, err := base64.StdEncoding.DecodeString(rawBase64)
	if err != nil {
		b.log.WithError(err).Warn("failed to decode ics attachment")
		return 0
	}

	now := time.Now()
	created := 0
	for _, ev := range parseICS(string(data)) {
		if ev.Start.Before(now) {
			continue
		}
		if b.users != nil {
			if _, err := b.users.CreateEvent(ctx, user.Event{
				Channel:   ChannelName,
				ChatID:    chatID,
				Title:     ev.Summary,
				StartAtMs: ev.Start.UnixMilli(),
			}); err != nil {
				b.log.WithError(err).Warn("failed to persist ics event")
				continue
			}
		}

		fireAt := ev.Start.Add(-defaultICSLeadSeconds * time.Second)
		if fireAt.Before(now) {
			fireAt = now.Add(time.Minute)
		}
		b.scheduler.AddJob(cron.AddJobRequest{
			Channel:  ChannelName,
			ChatID:   chatID,
			Name:     ev.Summary,
			Schedule: cron.Schedule{Kind: cron.KindAt, AtMs: fireAt.UnixMilli()},
			Message:  fmt.Sprintf("Lembrete: %s", ev.Summary),
			Deliver:  true,
		})
		created++
	}
	return created
}
