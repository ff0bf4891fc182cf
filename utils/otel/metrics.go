package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all OTel metric instruments for article-search.
// Nil until InitMetrics runs, so callers must nil-check before recording.
var Metrics *ArticleSearchMetrics

// ArticleSearchMetrics contains all metric instruments.
type ArticleSearchMetrics struct {
	ReindexRunsTotal metric.Int64Counter
	IndexedTotal     metric.Int64Counter
	DeletedTotal     metric.Int64Counter
	ErrorsTotal      metric.Int64Counter
	ReindexDuration  metric.Float64Histogram
	SearchDuration   metric.Float64Histogram
}

// InitMetrics initializes all metric instruments.
func InitMetrics() error {
	meter := otel.Meter("article-search")

	reindexRunsTotal, err := meter.Int64Counter("article_search_reindex_runs_total",
		metric.WithDescription("Total number of completed reindex runs"),
	)
	if err != nil {
		return err
	}

	indexedTotal, err := meter.Int64Counter("article_search_indexed_total",
		metric.WithDescription("Total number of articles pushed into the search index"),
	)
	if err != nil {
		return err
	}

	deletedTotal, err := meter.Int64Counter("article_search_deleted_total",
		metric.WithDescription("Total number of articles removed from the search index"),
	)
	if err != nil {
		return err
	}

	errorsTotal, err := meter.Int64Counter("article_search_errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return err
	}

	reindexDuration, err := meter.Float64Histogram("article_search_reindex_duration_seconds",
		metric.WithDescription("Reindex run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	searchDuration, err := meter.Float64Histogram("article_search_search_duration_seconds",
		metric.WithDescription("Search request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	Metrics = &ArticleSearchMetrics{
		ReindexRunsTotal: reindexRunsTotal,
		IndexedTotal:     indexedTotal,
		DeletedTotal:     deletedTotal,
		ErrorsTotal:      errorsTotal,
		ReindexDuration:  reindexDuration,
		SearchDuration:   searchDuration,
	}

	return nil
}
