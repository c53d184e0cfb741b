package http

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"

	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
)

// InFlightLimiter caps the number of requests handled at once. Requests over
// the cap are rejected with 503 instead of queueing for a pool connection.
func InFlightLimiter(max int64) fiber.Handler {
	sem := semaphore.NewWeighted(max)
	return func(c *fiber.Ctx) error {
		if !sem.TryAcquire(1) {
			metrics.RequestsShed.Inc()
			return errUnavailable(c, "Server is busy, try again later")
		}
		defer sem.Release(1)
		return c.Next()
	}
}
