package bootstrap

import (
	"article-search/config"
	"article-search/logger"
	"article-search/rest"
	"article-search/usecase"
	appOtel "article-search/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// newEchoServer creates and configures the Echo HTTP server.
func newEchoServer(search *usecase.SearchArticlesUsecase, health *usecase.CheckHealthUsecase, httpCfg config.HTTPConfig, otelCfg appOtel.Config) *echo.Echo {
	handler := rest.NewHandler(search, health, logger.Logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadHeaderTimeout = httpCfg.ReadHeaderTimeout

	// Add OpenTelemetry tracing middleware
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	e.Use(rest.RequestIDMiddleware())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			logger.GlobalContext.WithContext(ctx).InfoContext(ctx, "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	rest.RegisterRoutes(e, handler)

	return e
}
