package port

import (
	"context"

	"article-search/domain"
)

type SearchEngine interface {
	// EnsureIndex creates the article index when it does not exist yet and is
	// a no-op when it does.
	EnsureIndex(ctx context.Context) error
	// UpsertDocuments writes documents to the index, replacing any existing
	// document with the same ID.
	UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) error
	DeleteDocuments(ctx context.Context, ids []string) error
	Search(ctx context.Context, query string, limit int) ([]domain.SearchDocument, error)
	// Ping probes engine liveness without mutating any state.
	Ping(ctx context.Context) error
}
