package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

// errorStatuses maps service errors to responses. An empty message means the
// error text itself is safe to show.
var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{airquality.ErrMissingParameter, fiber.StatusBadRequest, ""},
	{airquality.ErrInvalidParameter, fiber.StatusBadRequest, ""},
	{airquality.ErrUpstreamUnavailable, fiber.StatusBadRequest, "Unable to fetch AQI data"},
	{airquality.ErrUpstreamError, fiber.StatusBadGateway, "Failed to fetch AQI data"},
	{airquality.ErrServiceMisconfigured, fiber.StatusInternalServerError, "API key not configured"},
	{airquality.ErrServiceError, fiber.StatusInternalServerError, "Failed to geocode location"},
	{airquality.ErrNotFound, fiber.StatusNotFound, "Location not found"},
	{airquality.ErrNetworkUnreachable, fiber.StatusServiceUnavailable, "Upstream service unreachable"},
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandler writes every failure as {"error": "..."}.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, msg := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"request_id", c.Locals("requestid"),
				"error", err,
			)
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}
