package domain

// ValidationError represents input rejected before any backend was called.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return "validation failed on " + e.Field + ": " + e.Msg
}

// RepositoryError represents an article store failure that survived the
// retry budget.
type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}

// IndexError represents a failure while preparing or writing the search index.
type IndexError struct {
	Op  string
	Err string
}

func (e *IndexError) Error() string {
	return e.Op + ": " + e.Err
}

// QueryError represents a search query failure. Callers can surface it as
// "search unavailable" without inspecting the cause.
type QueryError struct {
	Op  string
	Err string
}

func (e *QueryError) Error() string {
	return e.Op + ": " + e.Err
}

// ContentDecodeError records a content payload that could not be decoded as
// structured data. It is non-fatal: extraction falls back to the raw payload
// text and the error is only logged.
type ContentDecodeError struct {
	Err error
}

func (e *ContentDecodeError) Error() string {
	return "content payload decode failed: " + e.Err.Error()
}

func (e *ContentDecodeError) Unwrap() error {
	return e.Err
}
