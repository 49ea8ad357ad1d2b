package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunAtFutureAndPast(t *testing.T) {
	now := nowMs()

	next := computeNextRun(Schedule{Kind: KindAt, AtMs: now + 60_000}, now)
	require.NotNil(t, next)
	assert.Equal(t, now+60_000, *next)

	assert.Nil(t, computeNextRun(Schedule{Kind: KindAt, AtMs: now - 1}, now))
}

func TestNextRunEveryWithoutNotBefore(t *testing.T) {
	now := nowMs()
	next := computeNextRun(Schedule{Kind: KindEvery, EveryMs: MinEveryMs}, now)
	require.NotNil(t, next)
	assert.Equal(t, now+MinEveryMs, *next)
}

func TestNextRunCronInUserTimezone(t *testing.T) {
	// A process running in UTC with a job owned by a São Paulo user:
	// "0 9 * * *" must mean 09:00 São Paulo local, i.e. 12:00 UTC.
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Date(2026, 8, 2, 4, 0, 0, 0, time.UTC) // 01:00 in São Paulo
	next := computeNextRun(Schedule{Kind: KindCron, Expr: "0 9 * * *", TZ: "America/Sao_Paulo"}, now.UnixMilli())
	require.NotNil(t, next)

	fire := time.UnixMilli(*next)
	local := fire.In(loc)
	assert.Equal(t, 9, local.Hour())
	assert.Equal(t, 0, local.Minute())
	assert.Equal(t, 12, fire.UTC().Hour())
	assert.True(t, fire.After(now))
}

func TestNextRunCronHonorsNotBefore(t *testing.T) {
	now := time.Date(2026, 8, 2, 4, 0, 0, 0, time.UTC)
	notBefore := now.Add(72 * time.Hour)

	next := computeNextRun(Schedule{
		Kind: KindCron, Expr: "0 9 * * *", TZ: "UTC",
		NotBeforeMs: notBefore.UnixMilli(),
	}, now.UnixMilli())
	require.NotNil(t, next)
	assert.GreaterOrEqual(t, *next, notBefore.UnixMilli())
}

func TestNextRunCronRejectsBadExpression(t *testing.T) {
	assert.Nil(t, computeNextRun(Schedule{Kind: KindCron, Expr: "not a cron"}, nowMs()))
	assert.Nil(t, computeNextRun(Schedule{Kind: KindCron, Expr: ""}, nowMs()))
}
