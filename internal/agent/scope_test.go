package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapista-bot/zapista-core/internal/resilience"
)

type fakeProvider struct {
	verdict  bool
	scopeErr error
	reply    Completion
	err      error
	calls    int
}

func (f *fakeProvider) Complete(ctx context.Context, history []Message, tools []mcp.Tool) (Completion, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeProvider) ScopeCheck(ctx context.Context, text string) (bool, error) {
	f.calls++
	return f.verdict, f.scopeErr
}

func TestScopeUsesRegexWhileBreakerOpen(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("llm", 1, time.Minute)
	breaker.RecordFailure()
	require.True(t, breaker.IsOpen())

	llm := &fakeProvider{verdict: false}
	s := NewScopeChecker(breaker, llm)

	assert.True(t, s.InScope(context.Background(), "me lembra das compras"))
	assert.False(t, s.InScope(context.Background(), "qual a capital da França?"))
	assert.Zero(t, llm.calls, "the LLM must not be called while the breaker is open")
}

func TestScopeLLMErrorRecordsFailureAndFallsBack(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("llm", 1, time.Minute)
	llm := &fakeProvider{scopeErr: errors.New("llm timeout")}
	s := NewScopeChecker(breaker, llm)

	assert.True(t, s.InScope(context.Background(), "cria um lembrete pra mim"))
	assert.True(t, breaker.IsOpen(), "the scope-check failure must count against the breaker")
}

func TestScopeRespectsLLMVerdict(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("llm", 3, time.Minute)
	s := NewScopeChecker(breaker, &fakeProvider{verdict: false})

	// "lembra" would pass the regex; the closed-breaker path trusts the LLM
	assert.False(t, s.InScope(context.Background(), "lembra daquele filme?"))
}

func TestParseScopeVerdict(t *testing.T) {
	assert.True(t, ParseScopeVerdict("SIM"))
	assert.True(t, ParseScopeVerdict(" sim, é sobre lembretes"))
	assert.True(t, ParseScopeVerdict("YES"))
	assert.False(t, ParseScopeVerdict("NAO"))
	assert.False(t, ParseScopeVerdict("não"))
}
