package usecase

import (
	"context"
	"fmt"
	"unicode/utf8"

	"article-search/domain"
	"article-search/port"
)

const (
	// maxQueryLength bounds the query before any backend is called. Length
	// is counted in characters, not bytes.
	maxQueryLength = 500

	// searchResultLimit caps how many hits one query returns.
	searchResultLimit = 20
)

type SearchArticlesUsecase struct {
	searchEngine port.SearchEngine
}

type SearchResult struct {
	Query string
	Hits  []domain.SearchHit
	Total int
}

func NewSearchArticlesUsecase(searchEngine port.SearchEngine) *SearchArticlesUsecase {
	return &SearchArticlesUsecase{
		searchEngine: searchEngine,
	}
}

// Execute validates the query and runs it against the search engine. An
// empty query is allowed and matches every document. Only hit projections
// leave this layer; indexed content stays internal.
func (u *SearchArticlesUsecase) Execute(ctx context.Context, query string) (*SearchResult, error) {
	if utf8.RuneCountInString(query) > maxQueryLength {
		return nil, &domain.ValidationError{
			Field: "query",
			Msg:   fmt.Sprintf("must not exceed %d characters", maxQueryLength),
		}
	}

	documents, err := u.searchEngine.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(documents))
	for _, doc := range documents {
		hits = append(hits, domain.SearchHit{
			ID:          doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
		})
	}

	return &SearchResult{
		Query: query,
		Hits:  hits,
		Total: len(hits),
	}, nil
}
