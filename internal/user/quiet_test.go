package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInQuietHoursWrapsMidnight(t *testing.T) {
	u := &User{Timezone: "UTC", QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}

	at := func(hour int) time.Time {
		return time.Date(2026, 8, 2, hour, 30, 0, 0, time.UTC)
	}
	assert.True(t, u.InQuietHours(at(23)))
	assert.True(t, u.InQuietHours(at(3)))
	assert.True(t, u.InQuietHours(at(6)))
	assert.False(t, u.InQuietHours(at(12)))
	assert.False(t, u.InQuietHours(at(21)))
	assert.False(t, u.InQuietHours(at(7)))
}

func TestInQuietHoursUsesUserTimezone(t *testing.T) {
	u := &User{Timezone: "America/Sao_Paulo", QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}

	// 02:00 UTC is 23:00 in São Paulo: inside the window
	assert.True(t, u.InQuietHours(time.Date(2026, 8, 2, 2, 0, 0, 0, time.UTC)))
	// 15:00 UTC is 12:00 in São Paulo: outside
	assert.False(t, u.InQuietHours(time.Date(2026, 8, 2, 15, 0, 0, 0, time.UTC)))
}

func TestInQuietHoursDisabledWhenUnset(t *testing.T) {
	u := &User{Timezone: "UTC"}
	assert.False(t, u.InQuietHours(time.Now()))
	var nilUser *User
	assert.False(t, nilUser.InQuietHours(time.Now()))
}

func TestNextOutsideQuietHours(t *testing.T) {
	u := &User{Timezone: "UTC", QuietHoursStart: "22:00", QuietHoursEnd: "07:00"}

	now := time.Date(2026, 8, 2, 23, 15, 0, 0, time.UTC)
	next := u.NextOutsideQuietHours(now)
	require.Equal(t, time.Date(2026, 8, 3, 7, 0, 0, 0, time.UTC), next.UTC())

	midday := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, midday, u.NextOutsideQuietHours(midday), "outside the window now is returned unchanged")
}

func TestExtraLeadsRoundTrip(t *testing.T) {
	u := &User{}
	u.SetExtraLeads([]int{300, 900, 3600, 7200})
	assert.Equal(t, []int{300, 900, 3600}, u.ExtraLeads(), "extra leads cap at 3")

	empty := &User{}
	assert.Nil(t, empty.ExtraLeads())
}
