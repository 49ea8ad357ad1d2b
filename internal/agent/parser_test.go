package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLembreteRelative(t *testing.T) {
	intent, ok := ParseSlashCommand("/lembrete beber água em 2 min")
	require.True(t, ok)
	assert.Equal(t, IntentLembrete, intent.Name)
	assert.Equal(t, "beber água", intent.Args["text"])
	assert.Equal(t, "120", intent.Args["in_seconds"])
}

func TestParseLembreteRelativeUnits(t *testing.T) {
	intent, ok := ParseSlashCommand("/lembrete ligar pro dentista em 2 horas")
	require.True(t, ok)
	assert.Equal(t, "7200", intent.Args["in_seconds"])

	intent, ok = ParseSlashCommand("/lembrete testar em 30 segundos")
	require.True(t, ok)
	assert.Equal(t, "30", intent.Args["in_seconds"])
}

func TestParseLembreteAbsolute(t *testing.T) {
	intent, ok := ParseSlashCommand("/lembrete tomar remédio às 9:30")
	require.True(t, ok)
	assert.Equal(t, IntentLembrete, intent.Name)
	assert.Equal(t, "tomar remédio", intent.Args["text"])
	assert.Equal(t, "9", intent.Args["hour"])
	assert.Equal(t, "30", intent.Args["min"])
}

func TestParseListAddAndShow(t *testing.T) {
	intent, ok := ParseSlashCommand("/list mercado add leite")
	require.True(t, ok)
	assert.Equal(t, IntentListAdd, intent.Name)
	assert.Equal(t, "mercado", intent.Args["list_name"])
	assert.Equal(t, "leite", intent.Args["item"])

	intent, ok = ParseSlashCommand("/list mercado")
	require.True(t, ok)
	assert.Equal(t, IntentListShow, intent.Name)
	assert.Equal(t, "mercado", intent.Args["list_name"])
}

func TestParseFeito(t *testing.T) {
	intent, ok := ParseSlashCommand("/feito AG01")
	require.True(t, ok)
	assert.Equal(t, IntentFeito, intent.Name)
	assert.Equal(t, "AG01", intent.Args["target"])
}

func TestParseUnhandledSlashCommand(t *testing.T) {
	intent, ok := ParseSlashCommand("/filme matrix")
	require.True(t, ok)
	assert.Equal(t, IntentUnhandled, intent.Name)
}

func TestParseRejectsFreeText(t *testing.T) {
	_, ok := ParseSlashCommand("oi, tudo bem?")
	assert.False(t, ok)

	_, ok = ParseSlashCommand("")
	assert.False(t, ok)
}
