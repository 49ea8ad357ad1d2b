package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGroupSender(t *testing.T) {
	assert.True(t, IsGroupSender("123456789-987654@g.us"))
	assert.False(t, IsGroupSender("5511999990000@s.whatsapp.net"))
	assert.False(t, IsGroupSender(""))
}

func TestAllowListOpenWhenNoStaticConfig(t *testing.T) {
	a := NewAllowList(nil)
	assert.True(t, a.Allow("5511999990000"))
	assert.True(t, a.Allow("anything"))
}

func TestAllowListNormalizesDigits(t *testing.T) {
	a := NewAllowList([]string{"+55 (11) 99999-0000"})

	require.True(t, a.Allow("5511999990000"))
	require.True(t, a.Allow("+5511999990000"))
	assert.False(t, a.Allow("5511888880000"))
}

func TestAllowListRuntimeAdditions(t *testing.T) {
	a := NewAllowList([]string{"5511999990000"})
	require.False(t, a.Allow("351912345678"))

	a.AddRuntime("+351 912 345 678")
	assert.True(t, a.Allow("351912345678"))
}

func TestClassifyEmoji(t *testing.T) {
	assert.Equal(t, EmojiPositive, ClassifyEmoji("👍"))
	assert.Equal(t, EmojiPositive, ClassifyEmoji("✅"))
	assert.Equal(t, EmojiSnooze, ClassifyEmoji("⏰"))
	assert.Equal(t, EmojiNegative, ClassifyEmoji("👎"))
	assert.Equal(t, EmojiNegative, ClassifyEmoji("❌"))
	assert.Equal(t, EmojiOther, ClassifyEmoji("😄"))
	assert.Equal(t, EmojiOther, ClassifyEmoji(""))
}

func TestSentMappingConsumedOnRead(t *testing.T) {
	s := newSentMapping()
	s.put("U1", "msg1", "AG01")

	jobID, ok := s.consume("U1", "msg1")
	require.True(t, ok)
	require.Equal(t, "AG01", jobID)

	_, ok = s.consume("U1", "msg1")
	assert.False(t, ok, "sent mapping must be consume-once")
}
