package user

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetUser(ctx, "whatsapp:U1")
	require.NoError(t, err)
	require.Nil(t, missing)

	u := &User{ID: "whatsapp:U1", Language: LangPtBR, Timezone: "America/Sao_Paulo", DefaultLeadSeconds: 900}
	require.NoError(t, s.UpsertUser(ctx, u))

	got, err := s.GetUser(ctx, "whatsapp:U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, LangPtBR, got.Language)
	assert.Equal(t, "America/Sao_Paulo", got.Timezone)
}

func TestListAddAndShow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.AddListItem(ctx, "whatsapp", "U1", "mercado", "leite")
	require.NoError(t, err)
	assert.NotZero(t, item.ID)

	list, err := s.GetList(ctx, "whatsapp", "U1", "mercado")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "leite", list.Items[0].Text)
	assert.False(t, list.Items[0].Done)

	require.NoError(t, s.MarkItemDone(ctx, "whatsapp", "U1", "mercado", item.ID))
	list, err = s.GetList(ctx, "whatsapp", "U1", "mercado")
	require.NoError(t, err)
	assert.True(t, list.Items[0].Done)
}

func TestListsIsolatedPerOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddListItem(ctx, "whatsapp", "U1", "mercado", "leite")
	require.NoError(t, err)

	other, err := s.GetList(ctx, "whatsapp", "U2", "mercado")
	require.NoError(t, err)
	assert.Empty(t, other.Items, "another chat's list of the same name stays empty")
}

func TestEventsOrderedByStart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, Event{Channel: "whatsapp", ChatID: "U1", Title: "later", StartAtMs: 2000})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, Event{Channel: "whatsapp", ChatID: "U1", Title: "sooner", StartAtMs: 1000})
	require.NoError(t, err)

	evs, err := s.ListEvents(ctx, "whatsapp", "U1")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "sooner", evs[0].Title)
}

func TestReminderHistoryCappedAtTwenty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, s.AppendReminderHistory(ctx, "whatsapp:U1", HistoryScheduled, fmt.Sprintf("msg %d", i)))
	}
	entries, err := s.GetReminderHistory(ctx, "whatsapp:U1", HistoryScheduled)
	require.NoError(t, err)
	assert.Len(t, entries, 20)

	// the delivered bucket is independent
	delivered, err := s.GetReminderHistory(ctx, "whatsapp:U1", HistoryDelivered)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}
