package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medhealth/medhealth/internal/platform/metrics"
)

// Metrics records request counts and latency per route template. Unmatched
// routes are grouped under "unmatched" to bound label cardinality.
func Metrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			collector.ObserveRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
