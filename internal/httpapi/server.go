package httpapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/zapista-bot/zapista-core/internal/bus"
	"github.com/zapista-bot/zapista-core/internal/cron"
	"github.com/zapista-bot/zapista-core/internal/resilience"
)

// Server is the minimal ops surface: liveness/readiness and a metrics
// snapshot.
type Server struct {
	app *fiber.App

	bus       *bus.MessageBus
	scheduler *cron.Scheduler
	breaker   *resilience.CircuitBreaker
	log       *logrus.Entry
}

// New builds a Server. breaker may be nil if the LLM path is disabled.
func New(messageBus *bus.MessageBus, scheduler *cron.Scheduler, breaker *resilience.CircuitBreaker, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		app:       fiber.New(fiber.Config{DisableStartupMessage: true}),
		bus:       messageBus,
		scheduler: scheduler,
		breaker:   breaker,
		log:       log,
	}
	s.app.Use(s.recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	group := s.app.Group("/api")
	group.Get("/healthz", s.Healthz)
	group.Get("/metrics", s.Metrics)
}

// recovery translates a panic in any downstream handler into a 500 JSON
// response instead of crashing the process.
func (s *Server) recovery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("panic", r).Error("panic recovered in httpapi middleware")
				_ = c.Status(500).JSON(ResponseData{
					Status:  500,
					Code:    "INTERNAL_SERVER_ERROR",
					Message: fmt.Sprintf("%v", r),
				})
			}
		}()
		return c.Next()
	}
}

// Listen starts the server; blocks until the listener errors or is closed.
func (s *Server) Listen(addr string) error {
	if addr == "" {
		return nil
	}
	s.log.WithField("addr", addr).Info("httpapi: listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
