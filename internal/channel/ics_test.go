package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
BEGIN:VEVENT
SUMMARY:Consulta dentista
DTSTART:20300115T140000Z
END:VEVENT
BEGIN:VEVENT
SUMMARY:Sem data valida
END:VEVENT
BEGIN:VEVENT
SUMMARY:Reuniao projeto
DTSTART:20300220T090000
END:VEVENT
END:VCALENDAR`

func TestParseICSExtractsEvents(t *testing.T) {
	events := parseICS(sampleICS)
	require.Len(t, events, 2, "events without a parseable DTSTART are skipped")

	assert.Equal(t, "Consulta dentista", events[0].Summary)
	assert.Equal(t, time.Date(2030, 1, 15, 14, 0, 0, 0, time.UTC), events[0].Start)

	assert.Equal(t, "Reuniao projeto", events[1].Summary)
	assert.Equal(t, 9, events[1].Start.Hour())
}

func TestParseICSTimeLayouts(t *testing.T) {
	assert.False(t, parseICSTime("DTSTART:20300115T140000Z").IsZero())
	assert.False(t, parseICSTime("DTSTART;VALUE=DATE:20300115").IsZero())
	assert.True(t, parseICSTime("DTSTART:garbage").IsZero())
}
