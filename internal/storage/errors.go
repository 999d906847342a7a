package storage

import "errors"

// ErrDocumentNotFound indicates the requested document does not exist.
var ErrDocumentNotFound = errors.New("document not found")
