package httpapi

import "github.com/gofiber/fiber/v2"

// metricsSnapshot is the JSON shape returned by Metrics.
type metricsSnapshot struct {
	InboundQueueDepth  int    `json:"inbound_queue_depth"`
	OutboundQueueDepth int    `json:"outbound_queue_depth"`
	CronEnabled        bool   `json:"cron_enabled"`
	CronJobCount       int    `json:"cron_job_count"`
	CronNextWakeAtMs   *int64 `json:"cron_next_wake_at_ms,omitempty"`
	LLMBreakerState    string `json:"llm_breaker_state,omitempty"`
}

// Metrics reports a point-in-time snapshot of bus depth, scheduler status,
// and the LLM circuit breaker state: a minimal ops surface carried even
// though a full metrics pipeline is out of scope.
func (s *Server) Metrics(c *fiber.Ctx) error {
	snap := metricsSnapshot{
		InboundQueueDepth:  s.bus.InboundSize(),
		OutboundQueueDepth: s.bus.OutboundSize(),
	}
	if s.scheduler != nil {
		enabled, jobCount, nextWake := s.scheduler.Status()
		snap.CronEnabled = enabled
		snap.CronJobCount = jobCount
		snap.CronNextWakeAtMs = nextWake
	}
	if s.breaker != nil {
		snap.LLMBreakerState = string(s.breaker.State())
	}
	return c.JSON(ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "metrics snapshot",
		Results: snap,
	})
}
