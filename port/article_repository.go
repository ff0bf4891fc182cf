package port

import (
	"context"

	"article-search/domain"
)

type ArticleRepository interface {
	// FetchPage returns one page of articles from the store, ordered by ID.
	FetchPage(ctx context.Context, skip, limit int) ([]*domain.Article, error)
	// FetchAll drains the store page by page until a short page signals the end.
	FetchAll(ctx context.Context) ([]*domain.Article, error)
	// FetchByIDs returns the named articles. IDs absent from the store are
	// simply missing from the result, not an error.
	FetchByIDs(ctx context.Context, ids []string) ([]*domain.Article, error)
	// Ping probes store liveness with a single read and no retries.
	Ping(ctx context.Context) error
}
