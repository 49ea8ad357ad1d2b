package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/zapista-bot/zapista-core/internal/resilience"
)

// scopeKeywords is the fast regex fallback used while the circuit breaker
// is open, matching the reminder/list/event vocabulary this assistant
// actually serves.
var scopeKeywords = regexp.MustCompile(`(?i)lembr|reminder|list|tarefa|evento|event|agenda|hor[aá]rio|snooze|soneca|^/(start|help|ajuda)\b`)

// ScopeChecker decides whether free-form text is in-scope for this
// assistant, short-circuiting out-of-scope chit-chat.
type ScopeChecker struct {
	breaker *resilience.CircuitBreaker
	llm     Provider
}

// NewScopeChecker builds a ScopeChecker guarded by breaker.
func NewScopeChecker(breaker *resilience.CircuitBreaker, llm Provider) *ScopeChecker {
	return &ScopeChecker{breaker: breaker, llm: llm}
}

// InScope reports whether text should proceed to the handler chain. When
// the breaker is open, a fast keyword regex is used instead of the LLM;
// an LLM error records a circuit failure and falls back to the same regex.
func (s *ScopeChecker) InScope(ctx context.Context, text string) bool {
	if s.breaker.IsOpen() || s.llm == nil {
		return scopeKeywords.MatchString(text)
	}
	verdict, err := s.llm.ScopeCheck(ctx, text)
	if err != nil {
		s.breaker.RecordFailure()
		return scopeKeywords.MatchString(text)
	}
	s.breaker.RecordSuccess()
	return verdict
}

// ParseScopeVerdict interprets a raw SIM/NAO-style LLM reply.
func ParseScopeVerdict(reply string) bool {
	r := strings.ToUpper(strings.TrimSpace(reply))
	return strings.HasPrefix(r, "SIM") || strings.HasPrefix(r, "YES") || strings.HasPrefix(r, "S")
}
