package cron

import (
	"time"

	cronexpr "github.com/robfig/cron/v3"
)

// computeNextRun implements the at/every/cron next-run rules, using
// robfig/cron/v3 for the cron-expression branch.
func computeNextRun(s Schedule, nowMs int64) *int64 {
	switch s.Kind {
	case KindAt:
		if s.AtMs > nowMs {
			return ptr(s.AtMs)
		}
		return nil

	case KindEvery:
		if s.EveryMs <= 0 {
			return nil
		}
		if s.NotBeforeMs > 0 && nowMs < s.NotBeforeMs {
			return ptr(s.NotBeforeMs)
		}
		return ptr(nowMs + s.EveryMs)

	case KindCron:
		if s.Expr == "" {
			return nil
		}
		startMs := nowMs
		if s.NotBeforeMs > 0 && s.NotBeforeMs > nowMs {
			startMs = s.NotBeforeMs
		}
		loc := time.UTC
		if s.TZ != "" {
			if l, err := time.LoadLocation(s.TZ); err == nil {
				loc = l
			}
		}
		start := time.UnixMilli(startMs).In(loc)
		schedule, err := cronexpr.ParseStandard(s.Expr)
		if err != nil {
			return nil
		}
		next := schedule.Next(start)
		nextMs := next.UnixMilli()
		if nextMs > nowMs {
			return ptr(nextMs)
		}
		return nil
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func nowMs() int64 { return time.Now().UnixMilli() }
