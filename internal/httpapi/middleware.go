package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fbparams/internal/logger"
)

// requestID echoes the caller's X-Request-Id or assigns a new one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func accessLog(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			log.Debug("request",
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"duration", time.Since(start),
				"error", err,
			)
			return err
		}
	}
}
