package channel

import (
	"sync"
	"time"

	"github.com/zapista-bot/zapista-core/internal/ttlmap"
)

// pendingSend tracks one in-flight outbound "send" awaiting the bridge's
// "sent" ack, so the assigned message id can be correlated back.
type pendingSend struct {
	done chan sentAck
}

type sentAck struct {
	messageID string
	jobID     string
	ok        bool
}

// pendingSends correlates request_id -> the waiter for its "sent" ack, with
// a 10-second timeout that clears stale entries
type pendingSends struct {
	mu      sync.Mutex
	waiters map[string]*pendingSend
}

func newPendingSends() *pendingSends {
	return &pendingSends{waiters: make(map[string]*pendingSend)}
}

func (p *pendingSends) register(requestID string) *pendingSend {
	p.mu.Lock()
	defer p.mu.Unlock()
	w := &pendingSend{done: make(chan sentAck, 1)}
	p.waiters[requestID] = w
	return w
}

func (p *pendingSends) resolve(requestID, messageID, jobID string) {
	p.mu.Lock()
	w, ok := p.waiters[requestID]
	if ok {
		delete(p.waiters, requestID)
	}
	p.mu.Unlock()
	if ok {
		w.done <- sentAck{messageID: messageID, jobID: jobID, ok: true}
	}
}

func (p *pendingSends) forget(requestID string) {
	p.mu.Lock()
	delete(p.waiters, requestID)
	p.mu.Unlock()
}

const sentAckTimeout = 10 * time.Second

// waitForAck blocks up to sentAckTimeout for the bridge's "sent" frame.
func (p *pendingSends) waitForAck(requestID string, w *pendingSend) (sentAck, bool) {
	select {
	case ack := <-w.done:
		return ack, true
	case <-time.After(sentAckTimeout):
		p.forget(requestID)
		return sentAck{}, false
	}
}

// sentMapping maps (chat_id, message_id) -> job_id for reaction-driven
// completion, consumed on read.
type sentMapping struct {
	m *ttlmap.Map[string, string]
}

func newSentMapping() *sentMapping {
	return &sentMapping{m: ttlmap.New[string, string]()}
}

const sentMappingTTL = 30 * 24 * time.Hour

func (s *sentMapping) put(chatID, messageID, jobID string) {
	s.m.Set(chatID+":"+messageID, jobID, sentMappingTTL)
}

// consume returns the job id for (chatID, messageID) and removes it: the
// mapping is consumed on read.
func (s *sentMapping) consume(chatID, messageID string) (string, bool) {
	return s.m.Take(chatID + ":" + messageID)
}
