// Package admin implements the God Mode admin state machine: password
// lockout and the mute ladder.
package admin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type lockoutEntry struct {
	Count       int     `json:"count"`
	FirstTs     float64 `json:"first_ts"`
	LockedUntil float64 `json:"locked_until"`
}

type lockoutDocument struct {
	Chats   map[string]lockoutEntry `json:"chats"`
	Updated int64                   `json:"updated"`
}

// Lockout tracks per-chat wrong-password attempts for the God Mode admin
// pipeline: 5 wrong attempts within a 15-minute sliding window locks the
// chat out for 15 minutes (both configurable), persisted to disk so it
// survives restarts.
type Lockout struct {
	mu          sync.Mutex
	path        string
	state       map[string]*lockoutEntry
	maxAttempts int
	lockoutFor  time.Duration
	window      time.Duration
	log         *logrus.Entry
}

// NewLockout builds a Lockout backed by the JSON file at path.
func NewLockout(path string, maxAttempts int, lockoutMinutes int, log *logrus.Entry) *Lockout {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	l := &Lockout{
		path:        path,
		state:       make(map[string]*lockoutEntry),
		maxAttempts: maxAttempts,
		lockoutFor:  time.Duration(lockoutMinutes) * time.Minute,
		window:      15 * time.Minute,
		log:         log,
	}
	l.load()
	return l
}

func (l *Lockout) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	var doc lockoutDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	now := nowSeconds()
	for cid, e := range doc.Chats {
		e := e
		if e.LockedUntil > now || now-e.FirstTs < l.window.Seconds() {
			l.state[cid] = &e
		}
	}
}

func (l *Lockout) save() {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	now := nowSeconds()
	toSave := make(map[string]lockoutEntry)
	for cid, e := range l.state {
		if e.LockedUntil > now || now-e.FirstTs < l.window.Seconds() {
			toSave[cid] = *e
		}
	}
	doc := lockoutDocument{Chats: toSave, Updated: int64(now)}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, l.path)
}

// IsLockedOut reports whether chatID is currently locked out.
func (l *Lockout) IsLockedOut(chatID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.state[chatID]
	if !ok {
		return false
	}
	now := nowSeconds()
	if e.LockedUntil > now {
		return true
	}
	if now-e.FirstTs > l.window.Seconds() {
		delete(l.state, chatID)
		return false
	}
	return false
}

// RecordFailedAttempt registers a wrong-password attempt, locking the chat
// out once the threshold is reached within the window.
func (l *Lockout) RecordFailedAttempt(chatID string) {
	l.mu.Lock()
	now := nowSeconds()
	e, ok := l.state[chatID]
	if !ok {
		e = &lockoutEntry{FirstTs: now}
		l.state[chatID] = e
	}
	if e.LockedUntil > now {
		l.mu.Unlock()
		return
	}
	if now-e.FirstTs > l.window.Seconds() {
		e.Count = 0
		e.FirstTs = now
	}
	e.Count++
	if e.Count >= l.maxAttempts {
		e.LockedUntil = now + l.lockoutFor.Seconds()
		l.log.WithFields(logrus.Fields{
			"chat_id":  maskChatID(chatID),
			"attempts": e.Count,
		}).Warn("god mode lockout engaged")
	}
	l.mu.Unlock()
	l.save()
}

// ClearFailedAttempts resets the attempt counter after a correct password.
func (l *Lockout) ClearFailedAttempts(chatID string) {
	l.mu.Lock()
	delete(l.state, chatID)
	l.mu.Unlock()
	l.save()
}

func nowSeconds() float64 { return float64(time.Now().UnixNano()) / 1e9 }

func maskChatID(chatID string) string {
	if len(chatID) <= 12 {
		return "***"
	}
	return chatID[:8] + "***" + chatID[len(chatID)-4:]
}
