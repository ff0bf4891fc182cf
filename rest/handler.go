package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"article-search/domain"
	"article-search/usecase"
	appOtel "article-search/utils/otel"

	"github.com/labstack/echo/v4"
)

// Handler serves the HTTP boundary: article search and service health.
type Handler struct {
	search *usecase.SearchArticlesUsecase
	health *usecase.CheckHealthUsecase
	logger *slog.Logger
}

func NewHandler(search *usecase.SearchArticlesUsecase, health *usecase.CheckHealthUsecase, logger *slog.Logger) *Handler {
	return &Handler{
		search: search,
		health: health,
		logger: logger,
	}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchHitResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type DependencyStatus struct {
	Healthy bool   `json:"healthy"`
	Reason  string `json:"reason,omitempty"`
}

type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// SearchArticles handles POST /search. The response body is a bare array of
// hit projections; indexed content never leaves the service.
func (h *Handler) SearchArticles(c echo.Context) error {
	var payload SearchRequest
	if err := c.Bind(&payload); err != nil {
		h.logger.Warn("rejecting malformed search payload", "error", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	start := time.Now()
	result, err := h.search.Execute(c.Request().Context(), payload.Query)
	recordSearchDuration(c.Request().Context(), time.Since(start))
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			h.logger.Warn("rejecting invalid search query",
				"field", validationErr.Field,
				"error", err)
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: validationErr.Msg,
				Field: validationErr.Field,
			})
		}

		// Backend detail stays in the log, not in the response.
		h.logger.Error("search request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "search unavailable"})
	}

	hits := make([]SearchHitResponse, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, SearchHitResponse{
			ID:          hit.ID,
			Title:       hit.Title,
			Description: hit.Description,
		})
	}

	h.logger.Info("search ok", "query", result.Query, "count", len(hits))

	return c.JSON(http.StatusOK, hits)
}

// Health handles GET /health. Both dependencies are probed on every call;
// any unhealthy dependency degrades the whole service to 503.
func (h *Handler) Health(c echo.Context) error {
	report := h.health.Execute(c.Request().Context())

	resp := HealthResponse{
		Status: "healthy",
		Dependencies: map[string]DependencyStatus{
			"repository": dependencyStatus(report.Repository),
			"index":      dependencyStatus(report.Index),
		},
	}

	code := http.StatusOK
	if !report.Healthy() {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
		h.logger.Warn("health check degraded",
			"repository_healthy", report.Repository.Healthy,
			"index_healthy", report.Index.Healthy)
	}

	return c.JSON(code, resp)
}

func dependencyStatus(health domain.DependencyHealth) DependencyStatus {
	return DependencyStatus{
		Healthy: health.Healthy,
		Reason:  health.Reason,
	}
}

func recordSearchDuration(ctx context.Context, duration time.Duration) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	m.SearchDuration.Record(ctx, duration.Seconds())
}
