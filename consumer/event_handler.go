package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"article-search/usecase"
	appOtel "article-search/utils/otel"
)

const (
	batchFlushSize     = 10
	batchFlushInterval = 2 * time.Second
)

// Event types carried on the article stream.
const (
	EventArticleUpserted = "ArticleUpserted"
	EventArticleDeleted  = "ArticleDeleted"
)

// ArticleEventPayload is the payload shared by upsert and delete events.
type ArticleEventPayload struct {
	ArticleID string `json:"article_id"`
}

// IndexEventHandler applies article events to the search index. IDs are
// buffered and flushed in batches to cut per-event engine round-trips.
// When the same article appears more than once in a batch, the latest
// event wins.
type IndexEventHandler struct {
	reindex *usecase.ReindexArticlesUsecase
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]string // article ID -> latest event type
	order   []string
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	flushed chan struct{} // signalled on each flush for testing
}

// NewIndexEventHandler creates a new IndexEventHandler.
func NewIndexEventHandler(reindex *usecase.ReindexArticlesUsecase, logger *slog.Logger) *IndexEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &IndexEventHandler{
		reindex: reindex,
		logger:  logger,
		pending: make(map[string]string, batchFlushSize),
		order:   make([]string, 0, batchFlushSize),
		ctx:     ctx,
		cancel:  cancel,
		flushed: make(chan struct{}, 1),
	}
}

// Stop flushes whatever is buffered and stops the background timer.
func (h *IndexEventHandler) Stop() {
	h.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()
	h.flush()
	h.cancel()
}

// HandleEvent processes a single event. Article IDs are buffered and flushed
// when the batch reaches batchFlushSize or after batchFlushInterval.
func (h *IndexEventHandler) HandleEvent(ctx context.Context, event Event) error {
	switch event.EventType {
	case EventArticleUpserted, EventArticleDeleted:
	default:
		h.logger.Warn("unknown event type, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}

	var payload ArticleEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("failed to unmarshal article event payload",
			"event_type", event.EventType,
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}
	if payload.ArticleID == "" {
		// Redelivery cannot fix a payload without an ID.
		h.logger.Warn("article event without article_id, skipping",
			"event_type", event.EventType,
			"event_id", event.EventID,
		)
		return nil
	}

	h.logger.Info("buffering article event",
		"event_type", event.EventType,
		"article_id", payload.ArticleID,
	)

	h.enqueue(payload.ArticleID, event.EventType)
	return nil
}

// enqueue records the latest event type for an article ID and triggers a
// flush when the batch is full. A timer started on the first enqueue bounds
// how long a slow trickle of events can sit in the buffer.
func (h *IndexEventHandler) enqueue(articleID, eventType string) {
	h.mu.Lock()
	if _, seen := h.pending[articleID]; !seen {
		h.order = append(h.order, articleID)
	}
	h.pending[articleID] = eventType
	size := len(h.order)

	if size == 1 {
		h.timer = time.AfterFunc(batchFlushInterval, func() {
			h.flush()
		})
	}
	h.mu.Unlock()

	if size >= batchFlushSize {
		h.flush()
	}
}

// flush partitions the buffered IDs by their final event type and applies
// refreshes before removals.
func (h *IndexEventHandler) flush() {
	h.mu.Lock()
	if len(h.order) == 0 {
		h.mu.Unlock()
		return
	}
	pending := h.pending
	order := h.order
	h.pending = make(map[string]string, batchFlushSize)
	h.order = make([]string, 0, batchFlushSize)
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	var toRefresh, toRemove []string
	for _, id := range order {
		if pending[id] == EventArticleDeleted {
			toRemove = append(toRemove, id)
		} else {
			toRefresh = append(toRefresh, id)
		}
	}

	if len(toRefresh) > 0 {
		if result, err := h.reindex.RefreshArticles(h.ctx, toRefresh); err != nil {
			h.logger.Error("event batch refresh failed", "count", len(toRefresh), "error", err)
			recordFlushError(h.ctx, "event_refresh")
		} else {
			recordFlush(h.ctx, result.ArticleCount, 0)
		}
	}
	if len(toRemove) > 0 {
		if err := h.reindex.RemoveArticles(h.ctx, toRemove); err != nil {
			h.logger.Error("event batch removal failed", "count", len(toRemove), "error", err)
			recordFlushError(h.ctx, "event_removal")
		} else {
			recordFlush(h.ctx, 0, len(toRemove))
		}
	}

	h.logger.Info("event batch flushed", "refreshed", len(toRefresh), "removed", len(toRemove))

	select {
	case h.flushed <- struct{}{}:
	default:
	}
}

// recordFlush records index mutations applied from the event stream.
func recordFlush(ctx context.Context, refreshed, removed int) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	if refreshed > 0 {
		m.IndexedTotal.Add(ctx, int64(refreshed), metric.WithAttributes(attribute.String("source", "events")))
	}
	if removed > 0 {
		m.DeletedTotal.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("source", "events")))
	}
}

// recordFlushError records an error metric.
func recordFlushError(ctx context.Context, operation string) {
	m := appOtel.Metrics
	if m == nil {
		return
	}
	m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
