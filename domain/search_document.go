package domain

type SearchDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func NewSearchDocument(article *Article) SearchDocument {
	return SearchDocument{
		ID:          article.ID(),
		Title:       article.Title(),
		Description: article.Description(),
		Content:     article.Content(),
	}
}

// SearchHit is the projection of a document returned to search clients.
// Content is indexed but never served back.
type SearchHit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
