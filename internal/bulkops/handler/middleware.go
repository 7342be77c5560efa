package handler

import (
	"strconv"
	"time"

	"bulkops/internal/bulkops/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)
		return next(c)
	}
}

// MetricsMiddleware records request count and latency per route template.
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Response().Status)
		method := c.Request().Method

		metrics.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(method, path, status).Inc()
		return nil
	}
}
