package gateway

import (
	"context"
	"errors"
	"log/slog"

	"article-search/domain"
	"article-search/driver"
	"article-search/utils/retry"
)

type ArticleDriver interface {
	FetchArticles(ctx context.Context, skip, limit int) ([]*driver.ArticleRecord, error)
	FetchArticlesByIDs(ctx context.Context, ids []string) ([]*driver.ArticleRecord, error)
	Probe(ctx context.Context) error
}

// ArticleRepositoryGateway adapts the graph store driver to the domain
// repository contract. Store fetches run under the retry budget; health
// probes do not.
type ArticleRepositoryGateway struct {
	driver   ArticleDriver
	retrier  *retry.Retrier
	logger   *slog.Logger
	pageSize int
}

func NewArticleRepositoryGateway(articleDriver ArticleDriver, retrier *retry.Retrier, logger *slog.Logger, pageSize int) *ArticleRepositoryGateway {
	return &ArticleRepositoryGateway{
		driver:   articleDriver,
		retrier:  retrier,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (g *ArticleRepositoryGateway) FetchPage(ctx context.Context, skip, limit int) ([]*domain.Article, error) {
	articles, _, err := g.fetchPage(ctx, skip, limit)
	return articles, err
}

// FetchAll drains the store page by page. The page boundary is decided by
// the number of raw records a page returned, not by how many of them became
// articles, so rows skipped during conversion cannot shift later pages.
func (g *ArticleRepositoryGateway) FetchAll(ctx context.Context) ([]*domain.Article, error) {
	var all []*domain.Article

	skip := 0
	for {
		articles, recordCount, err := g.fetchPage(ctx, skip, g.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, articles...)

		if recordCount < g.pageSize {
			return all, nil
		}
		skip += g.pageSize
	}
}

func (g *ArticleRepositoryGateway) FetchByIDs(ctx context.Context, ids []string) ([]*domain.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var records []*driver.ArticleRecord
	err := g.retrier.Do(ctx, "fetch articles by ids", func() error {
		var fetchErr error
		records, fetchErr = g.driver.FetchArticlesByIDs(ctx, ids)
		return fetchErr
	})
	if err != nil {
		return nil, &domain.RepositoryError{
			Op:  "FetchByIDs",
			Err: err.Error(),
		}
	}

	return g.toDomain(records), nil
}

// Ping issues a single probe without retries so health stays a snapshot of
// the current state.
func (g *ArticleRepositoryGateway) Ping(ctx context.Context) error {
	if err := g.driver.Probe(ctx); err != nil {
		return &domain.RepositoryError{
			Op:  "Ping",
			Err: err.Error(),
		}
	}
	return nil
}

func (g *ArticleRepositoryGateway) fetchPage(ctx context.Context, skip, limit int) ([]*domain.Article, int, error) {
	if skip < 0 {
		return nil, 0, &domain.ValidationError{Field: "skip", Msg: "must not be negative"}
	}
	if limit <= 0 {
		return nil, 0, &domain.ValidationError{Field: "limit", Msg: "must be positive"}
	}

	var records []*driver.ArticleRecord
	err := g.retrier.Do(ctx, "fetch articles", func() error {
		var fetchErr error
		records, fetchErr = g.driver.FetchArticles(ctx, skip, limit)
		return fetchErr
	})
	if err != nil {
		return nil, 0, &domain.RepositoryError{
			Op:  "FetchPage",
			Err: err.Error(),
		}
	}

	g.logger.Info("fetched articles page",
		"count", len(records),
		"skip", skip,
		"limit", limit)

	return g.toDomain(records), len(records), nil
}

// toDomain converts raw records into articles, folding content extraction
// in. A record that cannot become an article is logged and dropped; one bad
// row must not abort the page.
func (g *ArticleRepositoryGateway) toDomain(records []*driver.ArticleRecord) []*domain.Article {
	articles := make([]*domain.Article, 0, len(records))
	for _, rec := range records {
		content, warn := domain.ExtractContent(rec.Content)
		if warn != nil {
			var decodeErr *domain.ContentDecodeError
			if errors.As(warn, &decodeErr) {
				g.logger.Warn("content payload not decodable, indexing raw text",
					"article_id", rec.ID,
					"error", decodeErr.Err)
			}
		}

		article, err := domain.NewArticle(rec.ID, rec.Title, rec.Description, content)
		if err != nil {
			g.logger.Warn("skipping malformed article record",
				"article_id", rec.ID,
				"error", err)
			continue
		}
		articles = append(articles, article)
	}
	return articles
}
