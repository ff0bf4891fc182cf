package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"article-search/domain"
	"article-search/port"
	"article-search/usecase"
)

// mockArticleRepo implements port.ArticleRepository for testing.
type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*domain.Article
	err      error
}

func (m *mockArticleRepo) FetchPage(ctx context.Context, skip, limit int) ([]*domain.Article, error) {
	return nil, m.err
}

func (m *mockArticleRepo) FetchAll(ctx context.Context) ([]*domain.Article, error) {
	return nil, m.err
}

func (m *mockArticleRepo) FetchByIDs(ctx context.Context, ids []string) ([]*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Article
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockArticleRepo) Ping(ctx context.Context) error { return m.err }

// mockSearchEngine implements port.SearchEngine for testing.
type mockSearchEngine struct {
	mu       sync.Mutex
	upserted []domain.SearchDocument
	deleted  []string
	err      error
}

func (m *mockSearchEngine) EnsureIndex(ctx context.Context) error { return m.err }

func (m *mockSearchEngine) UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, docs...)
	return nil
}

func (m *mockSearchEngine) DeleteDocuments(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockSearchEngine) Search(ctx context.Context, query string, limit int) ([]domain.SearchDocument, error) {
	return nil, m.err
}

func (m *mockSearchEngine) Ping(ctx context.Context) error { return m.err }

func (m *mockSearchEngine) upsertedDocs() []domain.SearchDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SearchDocument(nil), m.upserted...)
}

func (m *mockSearchEngine) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

var _ port.ArticleRepository = (*mockArticleRepo)(nil)
var _ port.SearchEngine = (*mockSearchEngine)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEventHandler(repo *mockArticleRepo, engine *mockSearchEngine) *IndexEventHandler {
	uc := usecase.NewReindexArticlesUsecase(repo, engine, discardLogger())
	return NewIndexEventHandler(uc, discardLogger())
}

func mustArticle(t *testing.T, id string) *domain.Article {
	t.Helper()
	a, err := domain.NewArticle(id, "Title "+id, "Description "+id, "Content "+id)
	if err != nil {
		t.Fatalf("NewArticle(%q) error = %v", id, err)
	}
	return a
}

func upsertEvent(t *testing.T, articleID string) Event {
	t.Helper()
	payload, err := json.Marshal(ArticleEventPayload{ArticleID: articleID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Event{EventType: EventArticleUpserted, EventID: "evt-" + articleID, Payload: payload}
}

func deleteEvent(t *testing.T, articleID string) Event {
	t.Helper()
	payload, err := json.Marshal(ArticleEventPayload{ArticleID: articleID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Event{EventType: EventArticleDeleted, EventID: "evt-" + articleID, Payload: payload}
}

func TestIndexEventHandler_UpsertEventRefreshesArticle(t *testing.T) {
	repo := &mockArticleRepo{
		articles: map[string]*domain.Article{"art-1": mustArticle(t, "art-1")},
	}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)

	if err := handler.HandleEvent(context.Background(), upsertEvent(t, "art-1")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	handler.Stop()

	docs := engine.upsertedDocs()
	if len(docs) != 1 {
		t.Fatalf("expected 1 upserted doc, got %d", len(docs))
	}
	if docs[0].ID != "art-1" {
		t.Errorf("upserted doc ID = %q, want art-1", docs[0].ID)
	}
}

func TestIndexEventHandler_DeleteEventRemovesDocument(t *testing.T) {
	repo := &mockArticleRepo{articles: map[string]*domain.Article{}}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)

	if err := handler.HandleEvent(context.Background(), deleteEvent(t, "art-9")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	handler.Stop()

	ids := engine.deletedIDs()
	if len(ids) != 1 || ids[0] != "art-9" {
		t.Errorf("deleted IDs = %v, want [art-9]", ids)
	}
	if len(engine.upsertedDocs()) != 0 {
		t.Errorf("expected no upserts for a delete-only batch")
	}
}

func TestIndexEventHandler_UpsertOfMissingArticleRemovesDocument(t *testing.T) {
	// The store no longer has the article: the refresh path deletes the
	// document instead of leaving it stale.
	repo := &mockArticleRepo{articles: map[string]*domain.Article{}}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)

	if err := handler.HandleEvent(context.Background(), upsertEvent(t, "gone-1")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	handler.Stop()

	ids := engine.deletedIDs()
	if len(ids) != 1 || ids[0] != "gone-1" {
		t.Errorf("deleted IDs = %v, want [gone-1]", ids)
	}
}

func TestIndexEventHandler_UnknownEventTypeIsSkipped(t *testing.T) {
	handler := newTestEventHandler(&mockArticleRepo{}, &mockSearchEngine{})
	defer handler.Stop()

	err := handler.HandleEvent(context.Background(), Event{
		EventType: "SomethingElse",
		EventID:   "evt-3",
	})
	if err != nil {
		t.Fatalf("HandleEvent() should return nil for unknown events, got %v", err)
	}
}

func TestIndexEventHandler_InvalidPayloadIsAnError(t *testing.T) {
	handler := newTestEventHandler(&mockArticleRepo{}, &mockSearchEngine{})
	defer handler.Stop()

	err := handler.HandleEvent(context.Background(), Event{
		EventType: EventArticleUpserted,
		EventID:   "evt-4",
		Payload:   json.RawMessage(`{invalid json}`),
	})
	if err == nil {
		t.Fatal("HandleEvent() should return error for invalid payload")
	}
}

func TestIndexEventHandler_MissingArticleIDIsSkipped(t *testing.T) {
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(&mockArticleRepo{}, engine)

	err := handler.HandleEvent(context.Background(), Event{
		EventType: EventArticleUpserted,
		EventID:   "evt-5",
		Payload:   json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("HandleEvent() error = %v, want nil: redelivery cannot fix it", err)
	}

	handler.Stop()

	if len(engine.upsertedDocs()) != 0 || len(engine.deletedIDs()) != 0 {
		t.Error("expected no engine calls for an event without article_id")
	}
}

func TestIndexEventHandler_FullBatchFlushesImmediately(t *testing.T) {
	articles := make(map[string]*domain.Article, batchFlushSize)
	for i := 0; i < batchFlushSize; i++ {
		id := fmt.Sprintf("art-%d", i)
		articles[id] = mustArticle(t, id)
	}
	repo := &mockArticleRepo{articles: articles}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)
	defer handler.Stop()

	for i := 0; i < batchFlushSize; i++ {
		id := fmt.Sprintf("art-%d", i)
		if err := handler.HandleEvent(context.Background(), upsertEvent(t, id)); err != nil {
			t.Fatalf("HandleEvent(%s) error = %v", id, err)
		}
	}

	// The size-triggered flush runs on the enqueueing goroutine, so the
	// documents are visible as soon as the last HandleEvent returns.
	if got := len(engine.upsertedDocs()); got != batchFlushSize {
		t.Errorf("expected %d upserted docs after batch flush, got %d", batchFlushSize, got)
	}
}

func TestIndexEventHandler_DuplicateIDsCollapse(t *testing.T) {
	repo := &mockArticleRepo{
		articles: map[string]*domain.Article{"dup-1": mustArticle(t, "dup-1")},
	}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)

	for i := 0; i < 5; i++ {
		if err := handler.HandleEvent(context.Background(), upsertEvent(t, "dup-1")); err != nil {
			t.Fatalf("HandleEvent() error = %v", err)
		}
	}

	handler.Stop()

	if got := len(engine.upsertedDocs()); got != 1 {
		t.Errorf("expected 1 upserted doc after deduplication, got %d", got)
	}
}

func TestIndexEventHandler_LatestEventWinsWithinBatch(t *testing.T) {
	repo := &mockArticleRepo{
		articles: map[string]*domain.Article{"art-1": mustArticle(t, "art-1")},
	}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)

	if err := handler.HandleEvent(context.Background(), upsertEvent(t, "art-1")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if err := handler.HandleEvent(context.Background(), deleteEvent(t, "art-1")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	handler.Stop()

	if got := len(engine.upsertedDocs()); got != 0 {
		t.Errorf("expected no upserts when the delete came last, got %d", got)
	}
	ids := engine.deletedIDs()
	if len(ids) != 1 || ids[0] != "art-1" {
		t.Errorf("deleted IDs = %v, want [art-1]", ids)
	}
}

func TestIndexEventHandler_TimerFlushesPartialBatch(t *testing.T) {
	repo := &mockArticleRepo{
		articles: map[string]*domain.Article{"art-1": mustArticle(t, "art-1")},
	}
	engine := &mockSearchEngine{}
	handler := newTestEventHandler(repo, engine)
	defer handler.Stop()

	if err := handler.HandleEvent(context.Background(), upsertEvent(t, "art-1")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	select {
	case <-handler.flushed:
	case <-time.After(batchFlushInterval + time.Second):
		t.Fatal("timed out waiting for the interval flush")
	}

	if got := len(engine.upsertedDocs()); got != 1 {
		t.Errorf("expected 1 upserted doc after timer flush, got %d", got)
	}
}
