package pipeline

import "errors"

var (
	// ErrEmptyText indicates an ingestion request with no content.
	ErrEmptyText = errors.New("document text is empty")

	// ErrEmptyName indicates an ingestion request with no document name.
	ErrEmptyName = errors.New("document name is empty")

	// ErrEmptyQuery indicates a search request with no query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrIngestion wraps any failure during document ingestion. By the
	// time it is returned all partial state has been rolled back.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrSearch wraps failures during retrieval, excluding synthesis:
	// a failed synthesis degrades to results-only, not to an error.
	ErrSearch = errors.New("document search failed")
)
