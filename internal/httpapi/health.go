package httpapi

import "github.com/gofiber/fiber/v2"

// Healthz reports process liveness unconditionally: if the handler runs at
// all, the process is up. Readiness of individual subsystems is reported
// by Metrics instead.
func (s *Server) Healthz(c *fiber.Ctx) error {
	return c.JSON(ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "ok",
	})
}
