package driver

// ArticleRecord is one raw row returned by the graph store. Content holds
// whatever the store has for the article: a structured value, a serialized
// tree, a plain string or nothing at all.
type ArticleRecord struct {
	ID          string
	Title       string
	Description string
	Content     any
}

// SearchDocumentDriver represents a search document in the search engine
type SearchDocumentDriver struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// DriverError represents an error from the driver layer
type DriverError struct {
	Op        string
	Err       string
	Transient bool
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}

// TransientError reports whether the failure is worth retrying.
func (e *DriverError) TransientError() bool {
	return e.Transient
}
