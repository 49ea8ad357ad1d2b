package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryScopingAcrossSessions(t *testing.T) {
	store := NewMemoryStore(nil)
	defer store.Stop()
	ctx := context.Background()

	e1 := &Entry{}
	e1.Memory.AddTurn("user", "secret from S1", 0)
	require.NoError(t, store.Save(ctx, Key("whatsapp", "U1"), e1, time.Minute))

	e2 := &Entry{}
	e2.Memory.AddTurn("user", "hello from S2", 0)
	require.NoError(t, store.Save(ctx, Key("whatsapp", "U2"), e2, time.Minute))

	got, err := store.Get(ctx, Key("whatsapp", "U2"))
	require.NoError(t, err)
	for _, turn := range got.Memory.History {
		require.NotContains(t, turn.Content, "S1")
	}
}

func TestAddTurnCapsHistory(t *testing.T) {
	m := &Memory{}
	for i := 0; i < 30; i++ {
		m.AddTurn("user", "msg", 5)
	}
	require.Len(t, m.History, 5)
}
