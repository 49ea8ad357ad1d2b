package channel

import (
	"strings"
	"sync"
)

// AllowList is the union of statically configured numbers and numbers
// added at runtime, normalized to bare digits.
type AllowList struct {
	mu      sync.RWMutex
	static  map[string]bool
	runtime map[string]bool
	open    bool // when true (empty static config), everyone is allowed
}

// NewAllowList builds an AllowList from a static set of phone numbers. An
// empty set means the allow-list is disabled (every sender is allowed).
func NewAllowList(staticNumbers []string) *AllowList {
	a := &AllowList{static: make(map[string]bool), runtime: make(map[string]bool)}
	for _, n := range staticNumbers {
		a.static[normalizeDigits(n)] = true
	}
	a.open = len(a.static) == 0
	return a
}

// Allow reports whether phone is permitted to use the assistant.
func (a *AllowList) Allow(phone string) bool {
	if a.open {
		return true
	}
	d := normalizeDigits(phone)
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.static[d] || a.runtime[d]
}

// AddRuntime grants phone access for the lifetime of the process (the
// admin pipeline's allow-list mutation surface).
func (a *AllowList) AddRuntime(phone string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtime[normalizeDigits(phone)] = true
}

func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsGroupSender reports whether jid identifies a WhatsApp group.
func IsGroupSender(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
