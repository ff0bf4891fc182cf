package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"article-search/domain"
	"article-search/driver"
	"article-search/utils/retry"
)

// Mock driver for testing
type mockArticleDriver struct {
	records    []*driver.ArticleRecord
	errs       []error
	calls      int
	byIDsCalls int
	probeErr   error
	probeCalls int
}

func (m *mockArticleDriver) FetchArticles(ctx context.Context, skip, limit int) ([]*driver.ArticleRecord, error) {
	m.calls++
	if err := m.nextErr(); err != nil {
		return nil, err
	}

	if skip >= len(m.records) {
		return nil, nil
	}
	end := skip + limit
	if end > len(m.records) {
		end = len(m.records)
	}
	return m.records[skip:end], nil
}

func (m *mockArticleDriver) FetchArticlesByIDs(ctx context.Context, ids []string) ([]*driver.ArticleRecord, error) {
	m.byIDsCalls++
	if err := m.nextErr(); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*driver.ArticleRecord
	for _, rec := range m.records {
		if wanted[rec.ID] {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockArticleDriver) Probe(ctx context.Context) error {
	m.probeCalls++
	return m.probeErr
}

func (m *mockArticleDriver) nextErr() error {
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRetrier() *retry.Retrier {
	return retry.NewRetrier(retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}, testLogger())
}

func transientDriverErr(op string) error {
	return &driver.DriverError{Op: op, Err: "connection reset", Transient: true}
}

func TestArticleRepositoryGateway_FetchPage(t *testing.T) {
	tests := []struct {
		name        string
		records     []*driver.ArticleRecord
		mockErr     error
		skip        int
		limit       int
		wantCount   int
		wantErr     bool
		checkFirst  func(*domain.Article) bool
		description string
	}{
		{
			name: "records convert with content extraction applied",
			records: []*driver.ArticleRecord{
				{ID: "1", Title: "Title 1", Description: "Desc 1", Content: `{"text": "hello world"}`},
				{ID: "2", Title: "Title 2", Description: "Desc 2", Content: nil},
			},
			skip:      0,
			limit:     10,
			wantCount: 2,
			checkFirst: func(a *domain.Article) bool {
				return a.ID() == "1" && a.Content() == "hello world"
			},
		},
		{
			name:      "empty result",
			records:   nil,
			skip:      0,
			limit:     10,
			wantCount: 0,
		},
		{
			name:    "permanent driver error",
			mockErr: &driver.DriverError{Op: "FetchArticles", Err: "syntax error"},
			skip:    0,
			limit:   10,
			wantErr: true,
		},
		{
			name:    "negative skip rejected",
			skip:    -1,
			limit:   10,
			wantErr: true,
		},
		{
			name:    "zero limit rejected",
			skip:    0,
			limit:   0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockArticleDriver{records: tt.records}
			if tt.mockErr != nil {
				mock.errs = []error{tt.mockErr}
			}
			gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

			articles, err := gateway.FetchPage(context.Background(), tt.skip, tt.limit)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("FetchPage() error = nil, wantErr true")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchPage() error = %v", err)
			}
			if len(articles) != tt.wantCount {
				t.Errorf("len(articles) = %d, want %d", len(articles), tt.wantCount)
			}
			if tt.checkFirst != nil && !tt.checkFirst(articles[0]) {
				t.Errorf("first article = %+v failed validation", articles[0])
			}
		})
	}
}

func TestArticleRepositoryGateway_FetchPage_RetriesTransientFailures(t *testing.T) {
	mock := &mockArticleDriver{
		records: []*driver.ArticleRecord{{ID: "1", Title: "T", Description: "D"}},
		errs: []error{
			transientDriverErr("FetchArticles"),
			transientDriverErr("FetchArticles"),
		},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	articles, err := gateway.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if mock.calls != 3 {
		t.Errorf("driver calls = %d, want 3", mock.calls)
	}
	if len(articles) != 1 {
		t.Errorf("len(articles) = %d, want 1", len(articles))
	}
}

func TestArticleRepositoryGateway_FetchPage_ExhaustedRetriesBecomeRepositoryError(t *testing.T) {
	mock := &mockArticleDriver{
		errs: []error{
			transientDriverErr("FetchArticles"),
			transientDriverErr("FetchArticles"),
			transientDriverErr("FetchArticles"),
		},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	_, err := gateway.FetchPage(context.Background(), 0, 10)

	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("FetchPage() error = %v, want RepositoryError", err)
	}
	if mock.calls != 3 {
		t.Errorf("driver calls = %d, want 3", mock.calls)
	}
}

func TestArticleRepositoryGateway_FetchPage_PermanentErrorFailsFast(t *testing.T) {
	mock := &mockArticleDriver{
		errs: []error{&driver.DriverError{Op: "FetchArticles", Err: "syntax error"}},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	_, err := gateway.FetchPage(context.Background(), 0, 10)

	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("FetchPage() error = %v, want RepositoryError", err)
	}
	if mock.calls != 1 {
		t.Errorf("driver calls = %d, want 1", mock.calls)
	}
}

func TestArticleRepositoryGateway_FetchPage_SkipsMalformedRecords(t *testing.T) {
	mock := &mockArticleDriver{
		records: []*driver.ArticleRecord{
			{ID: "1", Title: "Keep", Description: "D"},
			{ID: "", Title: "No ID", Description: "D"},
			{ID: "3", Title: "Keep too", Description: "D"},
		},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	articles, err := gateway.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(articles))
	}
	if articles[0].ID() != "1" || articles[1].ID() != "3" {
		t.Errorf("article IDs = %s, %s, want 1, 3", articles[0].ID(), articles[1].ID())
	}
}

func TestArticleRepositoryGateway_FetchPage_UndecodablePayloadDegrades(t *testing.T) {
	mock := &mockArticleDriver{
		records: []*driver.ArticleRecord{
			{ID: "1", Title: "T", Description: "D", Content: `{"text": "broken`},
		},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	articles, err := gateway.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(articles))
	}
	if articles[0].Content() != `{"text": "broken` {
		t.Errorf("Content() = %q, want raw payload", articles[0].Content())
	}
}

func TestArticleRepositoryGateway_FetchAll_Paginates(t *testing.T) {
	records := []*driver.ArticleRecord{
		{ID: "1", Title: "T1", Description: "D"},
		{ID: "2", Title: "T2", Description: "D"},
		{ID: "3", Title: "T3", Description: "D"},
		{ID: "4", Title: "T4", Description: "D"},
		{ID: "5", Title: "T5", Description: "D"},
	}
	mock := &mockArticleDriver{records: records}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 2)

	articles, err := gateway.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(articles) != 5 {
		t.Errorf("len(articles) = %d, want 5", len(articles))
	}
	if mock.calls != 3 {
		t.Errorf("driver calls = %d, want 3", mock.calls)
	}
	for i, want := range []string{"1", "2", "3", "4", "5"} {
		if articles[i].ID() != want {
			t.Errorf("articles[%d].ID() = %s, want %s", i, articles[i].ID(), want)
		}
	}
}

func TestArticleRepositoryGateway_FetchAll_PageBoundaryIgnoresDroppedRows(t *testing.T) {
	// Page one holds a malformed row; the next page must still start after
	// the raw records, not after the surviving articles.
	records := []*driver.ArticleRecord{
		{ID: "1", Title: "T1", Description: "D"},
		{ID: "", Title: "bad", Description: "D"},
		{ID: "3", Title: "T3", Description: "D"},
	}
	mock := &mockArticleDriver{records: records}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 2)

	articles, err := gateway.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(articles))
	}
	if articles[0].ID() != "1" || articles[1].ID() != "3" {
		t.Errorf("article IDs = %s, %s, want 1, 3", articles[0].ID(), articles[1].ID())
	}
}

func TestArticleRepositoryGateway_FetchAll_PropagatesPageError(t *testing.T) {
	mock := &mockArticleDriver{
		records: []*driver.ArticleRecord{
			{ID: "1", Title: "T1", Description: "D"},
			{ID: "2", Title: "T2", Description: "D"},
			{ID: "3", Title: "T3", Description: "D"},
		},
		errs: []error{nil, &driver.DriverError{Op: "FetchArticles", Err: "gone"}},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 2)

	_, err := gateway.FetchAll(context.Background())

	var repoErr *domain.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("FetchAll() error = %v, want RepositoryError", err)
	}
}

func TestArticleRepositoryGateway_FetchByIDs(t *testing.T) {
	mock := &mockArticleDriver{
		records: []*driver.ArticleRecord{
			{ID: "1", Title: "T1", Description: "D"},
			{ID: "2", Title: "T2", Description: "D"},
		},
	}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	articles, err := gateway.FetchByIDs(context.Background(), []string{"2", "missing"})
	if err != nil {
		t.Fatalf("FetchByIDs() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("len(articles) = %d, want 1", len(articles))
	}
	if articles[0].ID() != "2" {
		t.Errorf("articles[0].ID() = %s, want 2", articles[0].ID())
	}
}

func TestArticleRepositoryGateway_FetchByIDs_EmptyInputSkipsDriver(t *testing.T) {
	mock := &mockArticleDriver{}
	gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

	articles, err := gateway.FetchByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchByIDs() error = %v", err)
	}
	if articles != nil {
		t.Errorf("articles = %v, want nil", articles)
	}
	if mock.byIDsCalls != 0 {
		t.Errorf("driver calls = %d, want 0", mock.byIDsCalls)
	}
}

func TestArticleRepositoryGateway_Ping(t *testing.T) {
	t.Run("healthy store", func(t *testing.T) {
		mock := &mockArticleDriver{}
		gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

		if err := gateway.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v, want nil", err)
		}
	})

	t.Run("probe failure is not retried", func(t *testing.T) {
		mock := &mockArticleDriver{
			probeErr: transientDriverErr("Probe"),
		}
		gateway := NewArticleRepositoryGateway(mock, testRetrier(), testLogger(), 100)

		err := gateway.Ping(context.Background())

		var repoErr *domain.RepositoryError
		if !errors.As(err, &repoErr) {
			t.Fatalf("Ping() error = %v, want RepositoryError", err)
		}
		if mock.probeCalls != 1 {
			t.Errorf("probe calls = %d, want 1", mock.probeCalls)
		}
	})
}
