package resilience

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRejectsAfterCapacity(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow("whatsapp:U1"), "message %d within capacity must pass", i+1)
	}
	assert.False(t, rl.Allow("whatsapp:U1"), "message C+1 must be rejected")
}

func TestRateLimitRefillsOneTokenPerWindowShare(t *testing.T) {
	rl := NewRateLimiter(5, time.Second) // one token every 200ms

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow("whatsapp:U1"))
	}
	require.False(t, rl.Allow("whatsapp:U1"))

	time.Sleep(250 * time.Millisecond)
	assert.True(t, rl.Allow("whatsapp:U1"), "one token must be available after window/C seconds")
}

func TestRateLimitIsolatedPerKey(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	require.True(t, rl.Allow("whatsapp:A"))
	require.True(t, rl.Allow("whatsapp:A"))
	require.False(t, rl.Allow("whatsapp:A"))

	for i := 0; i < 2; i++ {
		assert.True(t, rl.Allow(fmt.Sprintf("whatsapp:B%d", i)), "other chats keep their full budget")
	}
}
