package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"article-search/config"
	"article-search/consumer"
	"article-search/driver"
	"article-search/gateway"
	"article-search/logger"
	"article-search/usecase"
	appOtel "article-search/utils/otel"
	"article-search/utils/retry"

	"github.com/cenkalti/backoff/v5"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// App holds all components of the article-search service.
type App struct {
	echoServer      *echo.Echo
	graphDriver     *driver.GraphDriver
	redisConsumer   *consumer.Consumer
	eventHandler    *consumer.IndexEventHandler
	otelShutdown    appOtel.ShutdownFunc
	shutdownTimeout time.Duration
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting article-search",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Drivers (infrastructure layer) ──
	graphDriver, err := initGraphDriver(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize Neo4j", "err", err)
		return err
	}

	msClient, err := initMeilisearchClient(appCfg)
	if err != nil {
		logger.Logger.Error("Failed to initialize Meilisearch", "err", err)
		closeGraphDriver(graphDriver)
		return err
	}
	searchDriver := driver.NewMeilisearchDriver(msClient, config.IndexName, config.IndexPrimaryKey)

	// ── Gateways (anti-corruption layer) ──
	retrier := retry.NewRetrier(retry.DefaultPolicy(), logger.Logger)
	articleRepo := gateway.NewArticleRepositoryGateway(graphDriver, retrier, logger.Logger, appCfg.Reindex.PageSize)
	searchEngine := gateway.NewSearchEngineGateway(searchDriver, retrier)

	// Queries against a missing index fail, so the index exists before the
	// first scheduled run fills it.
	ensureCtx, ensureCancel := context.WithTimeout(ctx, appCfg.Meilisearch.Timeout)
	err = searchEngine.EnsureIndex(ensureCtx)
	ensureCancel()
	if err != nil {
		logger.Logger.Error("Failed to ensure search index", "err", err)
		closeGraphDriver(graphDriver)
		return err
	}

	// ── Use cases (application layer) ──
	reindexUsecase := usecase.NewReindexArticlesUsecase(articleRepo, searchEngine, logger.Logger)
	searchUsecase := usecase.NewSearchArticlesUsecase(searchEngine)
	healthUsecase := usecase.NewCheckHealthUsecase(articleRepo, searchEngine)

	// ── Redis Streams Consumer ──
	var redisConsumer *consumer.Consumer
	var eventHandler *consumer.IndexEventHandler
	consumerCfg := consumer.ConfigFromEnv()
	if consumerCfg.Enabled {
		eventHandler = consumer.NewIndexEventHandler(reindexUsecase, logger.Logger)
		redisConsumer, err = consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
		if err != nil {
			logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		} else if err := redisConsumer.Start(ctx); err != nil {
			logger.Logger.Error("Failed to start Redis Streams consumer", "err", err)
		} else {
			logger.Logger.Info("Redis Streams consumer started",
				"stream", consumerCfg.StreamKey,
				"group", consumerCfg.GroupName,
			)
		}
	} else {
		logger.Logger.Info("Redis Streams consumer disabled")
	}

	// ── Scheduled reindex loop ──
	go runReindexLoop(ctx, reindexUsecase, appCfg.Reindex.Interval)

	// ── Server ──
	app := &App{
		echoServer:      newEchoServer(searchUsecase, healthUsecase, appCfg.HTTP, otelCfg),
		graphDriver:     graphDriver,
		redisConsumer:   redisConsumer,
		eventHandler:    eventHandler,
		otelShutdown:    otelShutdown,
		shutdownTimeout: appCfg.HTTP.ShutdownTimeout,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", appCfg.HTTP.Addr)
		if err := app.echoServer.Start(appCfg.HTTP.Addr); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components. The consumer stops
// reading before its handler flushes, so no buffered event is lost.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.echoServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		a.redisConsumer.Stop()
	}
	if a.eventHandler != nil {
		a.eventHandler.Stop()
	}
	if a.graphDriver != nil {
		closeGraphDriver(a.graphDriver)
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}

func closeGraphDriver(d *driver.GraphDriver) {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(closeCtx); err != nil {
		logger.Logger.Error("neo4j close error", "err", err)
	}
}

// newRetryBackoff creates an exponential backoff policy for reindex loop retries.
func newRetryBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Second
	bo.MaxInterval = 5 * time.Minute
	bo.Multiplier = 2
	return bo
}

// runReindexLoop runs a full reindex at startup and then once per interval.
// A failed run is retried under exponential backoff instead of waiting for
// the next tick, so a transient outage does not leave the index stale for a
// whole interval.
func runReindexLoop(ctx context.Context, reindexUsecase *usecase.ReindexArticlesUsecase, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("reindex loop panic", "err", r)
		}
	}()

	bo := newRetryBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		result, err := reindexUsecase.RunOnce(ctx)
		if err != nil {
			recordError(ctx, "reindex")
			delay := bo.NextBackOff()
			logger.Logger.Error("reindex run error, retrying", "err", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			continue
		}
		bo.Reset()
		if !result.Skipped {
			recordRun(ctx, result.ArticleCount, time.Since(start))
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}

// recordRun records metrics for a completed reindex run.
func recordRun(ctx context.Context, indexed int, duration time.Duration) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	m.ReindexRunsTotal.Add(ctx, 1)
	if indexed > 0 {
		m.IndexedTotal.Add(ctx, int64(indexed), metric.WithAttributes(attribute.String("source", "scheduled")))
	}
	m.ReindexDuration.Record(ctx, duration.Seconds())
}

// recordError records an error metric.
func recordError(ctx context.Context, operation string) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
