package admin

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passwordHash(cleartext string) string {
	sum := sha256.Sum256([]byte(cleartext))
	return hex.EncodeToString(sum[:])
}

func newTestGodMode(t *testing.T, lockoutMinutes int) *GodMode {
	t.Helper()
	dir := t.TempDir()
	lockout := NewLockout(filepath.Join(dir, "lockout.json"), 5, lockoutMinutes, nil)
	activation := NewActivation(filepath.Join(dir, "activation.json"))
	return NewGodMode(lockout, activation, passwordHash("opensesame"), nil)
}

func TestGodModeLockoutAfterFiveWrongAttempts(t *testing.T) {
	g := newTestGodMode(t, 15)

	for i := 0; i < 5; i++ {
		res := g.Handle("chatA", "#wrong")
		require.True(t, res.Silent, "wrong-password attempt %d must stay silent", i+1)
	}

	// locked out: even the correct password stays silent
	res := g.Handle("chatA", "#opensesame")
	assert.True(t, res.Silent)
	assert.Empty(t, res.Reply)
}

func TestGodModeActivatesAfterLockoutExpires(t *testing.T) {
	// zero-minute lockout expires immediately, standing in for the
	// 15-minute wait.
	g := newTestGodMode(t, 0)

	for i := 0; i < 5; i++ {
		g.Handle("chatA", "#wrong")
	}
	res := g.Handle("chatA", "#opensesame")
	require.False(t, res.Silent)
	assert.Contains(t, res.Reply, "God-mode")
}

func TestGodModeLockoutIsolatedPerChat(t *testing.T) {
	g := newTestGodMode(t, 15)
	for i := 0; i < 5; i++ {
		g.Handle("chatA", "#wrong")
	}
	res := g.Handle("chatB", "#opensesame")
	require.False(t, res.Silent, "chatB must not inherit chatA's lockout")
}

func TestGodModeQuitReturnsToUnactivated(t *testing.T) {
	g := newTestGodMode(t, 15)

	res := g.Handle("chatA", "#opensesame")
	require.False(t, res.Silent)

	res = g.Handle("chatA", "#quit")
	require.False(t, res.Silent)

	// another "#" input is treated as a password attempt again
	res = g.Handle("chatA", "#anything")
	assert.True(t, res.Silent)
}

func TestGodModeDispatchesRegisteredCommand(t *testing.T) {
	g := newTestGodMode(t, 15)
	g.RegisterCommand("mute", func(chatID, cmd string, args []string) CommandResult {
		require.Equal(t, []string{"5511999990000", "2"}, args)
		return CommandResult{Reply: "muted"}
	})

	g.Handle("chatA", "#opensesame")
	res := g.Handle("chatA", "#mute 5511999990000 2")
	assert.Equal(t, "muted", res.Reply)
}

func TestLockoutPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockout.json")

	first := NewLockout(path, 5, 15, nil)
	for i := 0; i < 5; i++ {
		first.RecordFailedAttempt("chatA")
	}
	require.True(t, first.IsLockedOut("chatA"))

	reloaded := NewLockout(path, 5, 15, nil)
	assert.True(t, reloaded.IsLockedOut("chatA"), "lockout must survive a restart")
}

func TestMuteLadderEscalatesToPermanent(t *testing.T) {
	m := NewMuteLedger(filepath.Join(t.TempDir(), "muted.json"))

	for want := 1; want <= 6; want++ {
		got := m.ApplyNextLevel("5511999990000")
		require.Equal(t, want, got)
		require.True(t, m.IsMuted("5511999990000"))
	}

	// level 6 is final
	assert.Equal(t, 6, m.ApplyNextLevel("5511999990000"))
	assert.True(t, m.IsMuted("5511999990000"))
}

func TestMuteLadderApplyLevelClampsAndUnmutes(t *testing.T) {
	m := NewMuteLedger(filepath.Join(t.TempDir(), "muted.json"))

	assert.Equal(t, 6, m.ApplyLevel("551198888", 99))
	require.True(t, m.IsMuted("551198888"))

	m.Unmute("551198888")
	assert.False(t, m.IsMuted("551198888"))
}

func TestMuteLedgerPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muted.json")
	first := NewMuteLedger(path)
	first.ApplyLevel("5511977770000", 4)

	reloaded := NewMuteLedger(path)
	assert.True(t, reloaded.IsMuted("5511977770000"))
}
