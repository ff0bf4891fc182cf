package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"article-search/domain"
	"article-search/port"
)

// Pipeline stages, reported in run logs so a failed run names where it died.
const (
	stageFetching      = "fetching"
	stageEnsuringIndex = "ensuring_index"
	stageWriting       = "writing"
)

// ReindexArticlesUsecase rebuilds the search index from the article store.
// Runs are serialized: a run that starts while another is in flight is
// skipped, not queued.
type ReindexArticlesUsecase struct {
	articleRepo  port.ArticleRepository
	searchEngine port.SearchEngine
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
}

type ReindexResult struct {
	RunID        string
	ArticleCount int
	Skipped      bool
	Elapsed      time.Duration
}

func NewReindexArticlesUsecase(articleRepo port.ArticleRepository, searchEngine port.SearchEngine, logger *slog.Logger) *ReindexArticlesUsecase {
	return &ReindexArticlesUsecase{
		articleRepo:  articleRepo,
		searchEngine: searchEngine,
		logger:       logger,
	}
}

// RunOnce executes a full fetch, ensure, write cycle. A failed run logs the
// stage it failed in and returns the error; the caller decides when the next
// run happens. An empty store still ensures the index exists so that queries
// hit an empty index instead of a missing one.
func (u *ReindexArticlesUsecase) RunOnce(ctx context.Context) (*ReindexResult, error) {
	if !u.tryAcquire() {
		u.logger.Warn("reindex run already in progress, skipping")
		return &ReindexResult{Skipped: true}, nil
	}
	defer u.release()

	runID := uuid.NewString()
	log := u.logger.With("run_id", runID)
	started := time.Now()

	log.Info("reindex run started", "stage", stageFetching)
	articles, err := u.articleRepo.FetchAll(ctx)
	if err != nil {
		log.Error("reindex run failed",
			"stage", stageFetching,
			"article_count", 0,
			"error", err)
		return nil, err
	}

	log.Info("articles fetched", "stage", stageEnsuringIndex, "article_count", len(articles))
	if err := u.searchEngine.EnsureIndex(ctx); err != nil {
		log.Error("reindex run failed",
			"stage", stageEnsuringIndex,
			"article_count", len(articles),
			"error", err)
		return nil, err
	}

	docs := make([]domain.SearchDocument, 0, len(articles))
	for _, article := range articles {
		docs = append(docs, domain.NewSearchDocument(article))
	}
	if err := u.searchEngine.UpsertDocuments(ctx, docs); err != nil {
		log.Error("reindex run failed",
			"stage", stageWriting,
			"article_count", len(articles),
			"error", err)
		return nil, err
	}

	elapsed := time.Since(started)
	log.Info("reindex run completed",
		"article_count", len(docs),
		"elapsed", elapsed)

	return &ReindexResult{
		RunID:        runID,
		ArticleCount: len(docs),
		Elapsed:      elapsed,
	}, nil
}

// RefreshArticles re-indexes the named articles between scheduled runs. IDs
// that no longer exist in the store are removed from the index so the two
// cannot drift apart.
func (u *ReindexArticlesUsecase) RefreshArticles(ctx context.Context, ids []string) (*ReindexResult, error) {
	if len(ids) == 0 {
		return &ReindexResult{}, nil
	}

	articles, err := u.articleRepo.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := u.searchEngine.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	docs := make([]domain.SearchDocument, 0, len(articles))
	found := make(map[string]bool, len(articles))
	for _, article := range articles {
		docs = append(docs, domain.NewSearchDocument(article))
		found[article.ID()] = true
	}

	if err := u.searchEngine.UpsertDocuments(ctx, docs); err != nil {
		return nil, err
	}

	var gone []string
	for _, id := range ids {
		if !found[id] {
			gone = append(gone, id)
		}
	}
	if err := u.searchEngine.DeleteDocuments(ctx, gone); err != nil {
		return nil, err
	}

	u.logger.Info("articles refreshed",
		"refreshed", len(docs),
		"removed", len(gone))

	return &ReindexResult{ArticleCount: len(docs)}, nil
}

// RemoveArticles deletes the named documents from the search index.
func (u *ReindexArticlesUsecase) RemoveArticles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := u.searchEngine.DeleteDocuments(ctx, ids); err != nil {
		return err
	}
	u.logger.Info("articles removed from index", "count", len(ids))
	return nil
}

func (u *ReindexArticlesUsecase) tryAcquire() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running {
		return false
	}
	u.running = true
	return true
}

func (u *ReindexArticlesUsecase) release() {
	u.mu.Lock()
	u.running = false
	u.mu.Unlock()
}
