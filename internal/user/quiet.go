package user

import (
	"strconv"
	"strings"
	"time"
)

// InQuietHours reports whether now, interpreted in the user's timezone,
// falls inside the user's configured quiet window. A window that wraps
// past midnight (e.g. 22:00-07:00) is handled.
func (u *User) InQuietHours(now time.Time) bool {
	if u == nil || u.QuietHoursStart == "" || u.QuietHoursEnd == "" {
		return false
	}
	loc := time.UTC
	if u.Timezone != "" {
		if l, err := time.LoadLocation(u.Timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()

	start, ok1 := parseHHMM(u.QuietHoursStart)
	end, ok2 := parseHHMM(u.QuietHoursEnd)
	if !ok1 || !ok2 {
		return false
	}
	if start == end {
		return false
	}
	if start < end {
		return cur >= start && cur < end
	}
	// wraps past midnight
	return cur >= start || cur < end
}

// NextOutsideQuietHours returns the first instant at or after now that
// falls outside the user's quiet window, in the user's timezone (UTC when
// unset or unknown). Returns now
// unchanged if quiet hours are not configured or now already falls outside
// them.
func (u *User) NextOutsideQuietHours(now time.Time) time.Time {
	if !u.InQuietHours(now) {
		return now
	}
	loc := time.UTC
	if u.Timezone != "" {
		if l, err := time.LoadLocation(u.Timezone); err == nil {
			loc = l
		}
	}
	end, ok := parseHHMM(u.QuietHoursEnd)
	if !ok {
		return now
	}
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func parseHHMM(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
