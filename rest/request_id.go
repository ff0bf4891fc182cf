package rest

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"article-search/logger"
)

// RequestIDMiddleware extracts the X-Request-ID header, generating one when
// the caller sent none, and carries it through the request context so every
// log line for the request shares the same ID.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logger.WithRequestID(req.Context(), requestID)
			c.SetRequest(req.WithContext(ctx))

			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			return next(c)
		}
	}
}
