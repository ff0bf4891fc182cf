package gateway

import (
	"context"

	"article-search/domain"
	"article-search/driver"
	"article-search/utils/retry"
)

type SearchDriver interface {
	EnsureIndex(ctx context.Context) error
	PutDocuments(ctx context.Context, docs []driver.SearchDocumentDriver) error
	DeleteDocuments(ctx context.Context, ids []string) error
	Search(ctx context.Context, query string, limit int) ([]driver.SearchDocumentDriver, error)
	Ping(ctx context.Context) error
}

// SearchEngineGateway adapts the search engine driver to the domain
// contract. Queries run under the retry budget; writes surface their error
// to the caller, which decides whether the whole run is repeated.
type SearchEngineGateway struct {
	driver  SearchDriver
	retrier *retry.Retrier
}

func NewSearchEngineGateway(searchDriver SearchDriver, retrier *retry.Retrier) *SearchEngineGateway {
	return &SearchEngineGateway{
		driver:  searchDriver,
		retrier: retrier,
	}
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context) error {
	if err := g.driver.EnsureIndex(ctx); err != nil {
		return &domain.IndexError{
			Op:  "EnsureIndex",
			Err: err.Error(),
		}
	}
	return nil
}

func (g *SearchEngineGateway) UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	driverDocs := make([]driver.SearchDocumentDriver, len(docs))
	for i, doc := range docs {
		driverDocs[i] = driver.SearchDocumentDriver{
			ID:          doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
			Content:     doc.Content,
		}
	}

	if err := g.driver.PutDocuments(ctx, driverDocs); err != nil {
		return &domain.IndexError{
			Op:  "UpsertDocuments",
			Err: err.Error(),
		}
	}
	return nil
}

func (g *SearchEngineGateway) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := g.driver.DeleteDocuments(ctx, ids); err != nil {
		return &domain.IndexError{
			Op:  "DeleteDocuments",
			Err: err.Error(),
		}
	}
	return nil
}

func (g *SearchEngineGateway) Search(ctx context.Context, query string, limit int) ([]domain.SearchDocument, error) {
	var results []driver.SearchDocumentDriver
	err := g.retrier.Do(ctx, "search query", func() error {
		var searchErr error
		results, searchErr = g.driver.Search(ctx, query, limit)
		return searchErr
	})
	if err != nil {
		return nil, &domain.QueryError{
			Op:  "Search",
			Err: err.Error(),
		}
	}

	docs := make([]domain.SearchDocument, 0, len(results))
	for _, result := range results {
		docs = append(docs, domain.SearchDocument{
			ID:          result.ID,
			Title:       result.Title,
			Description: result.Description,
			Content:     result.Content,
		})
	}
	return docs, nil
}

func (g *SearchEngineGateway) Ping(ctx context.Context) error {
	if err := g.driver.Ping(ctx); err != nil {
		return &domain.IndexError{
			Op:  "Ping",
			Err: err.Error(),
		}
	}
	return nil
}
