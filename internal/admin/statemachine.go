package admin

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/sirupsen/logrus"
)

// CommandResult carries the outcome of dispatching an admin command.
type CommandResult struct {
	Reply  string // empty means stay silent
	Silent bool
}

// CommandHandler executes a parsed "#command arg1 arg2..." against admin
// state (e.g. the mute ladder) once a chat is activated.
type CommandHandler func(chatID string, cmd string, args []string) CommandResult

// GodMode wires the lockout tracker, activation set, and command dispatch
// table into the single entry point the channel adapter calls for any
// inbound content beginning with "#".
type GodMode struct {
	lockout      *Lockout
	activation   *Activation
	passwordHash string
	log          *logrus.Entry
	commands     map[string]CommandHandler
}

// NewGodMode builds the admin pipeline. passwordHash is the sha256 hex
// digest of the configured cleartext password; the cleartext itself never
// reaches this package.
func NewGodMode(lockout *Lockout, activation *Activation, passwordHash string, log *logrus.Entry) *GodMode {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &GodMode{
		lockout:      lockout,
		activation:   activation,
		passwordHash: passwordHash,
		log:          log,
		commands:     make(map[string]CommandHandler),
	}
}

// RegisterCommand wires an admin command name (without the leading "#") to
// its handler, dispatched while the chat is activated.
func (g *GodMode) RegisterCommand(name string, h CommandHandler) {
	g.commands[strings.ToLower(name)] = h
}

// Handle processes inbound content that begins with "#" through the
// ordered state transitions. Silent=true means no outbound message
// should be produced at all.
func (g *GodMode) Handle(chatID, content string) CommandResult {
	body := strings.TrimSpace(strings.TrimPrefix(content, "#"))

	if g.lockout.IsLockedOut(chatID) {
		return CommandResult{Silent: true}
	}

	if !g.activation.IsActivated(chatID) {
		if body != "" && hashEquals(body, g.passwordHash) {
			g.lockout.ClearFailedAttempts(chatID)
			g.activation.Activate(chatID)
			return CommandResult{Reply: menuReply(chatID)}
		}
		g.lockout.RecordFailedAttempt(chatID)
		return CommandResult{Silent: true}
	}

	// Activated: dispatch #<command> args...
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return CommandResult{Silent: true}
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	if cmd == "quit" {
		g.activation.Deactivate(chatID)
		return CommandResult{Reply: quitReply(chatID)}
	}

	if h, ok := g.commands[cmd]; ok {
		return h(chatID, cmd, args)
	}
	return CommandResult{Reply: menuReply(chatID)}
}

func hashEquals(cleartext, expectedHash string) bool {
	if expectedHash == "" {
		return false
	}
	sum := sha256.Sum256([]byte(cleartext))
	return hex.EncodeToString(sum[:]) == expectedHash
}

// menuReply and quitReply are overridden via SetMenuText/SetQuitText by the
// caller so this package stays i18n-agnostic; defaults are plain English.
var menuText = "God-mode active. Commands: #mute <n> <level>, #quit"
var quitText = "God-mode deactivated."

func menuReply(string) string { return menuText }
func quitReply(string) string { return quitText }

// SetMenuText overrides the localized activation-menu reply.
func SetMenuText(s string) { menuText = s }

// SetQuitText overrides the localized "#quit" reply.
func SetQuitText(s string) { quitText = s }
