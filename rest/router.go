package rest

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes binds the HTTP boundary onto the echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/search", h.SearchArticles)
	e.GET("/health", h.Health)
}
