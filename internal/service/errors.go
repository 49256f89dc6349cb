package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a value handed to the text pipeline is not string-like.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCorpus is returned when no document survives cleaning.
	ErrEmptyCorpus = errors.New("No valid policy text provided.")
	// ErrSourceNotFound is returned when an ingestion source path does not exist.
	ErrSourceNotFound = errors.New("input path does not exist")
	// ErrUnsupportedFormat is returned for a single input file that is not .txt or .md.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrNoDocumentsFound is returned when a directory holds no .txt or .md files.
	ErrNoDocumentsFound = errors.New("no .md or .txt files found")
	// ErrIndexNotFound is returned when no persisted index exists at the configured location.
	ErrIndexNotFound = errors.New("index not found")
	// ErrInvalidQuery is returned for an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("Query must be a non-empty string.")
	// ErrInvalidTopK is returned when top_k is below 1.
	ErrInvalidTopK = errors.New("top_k must be greater than or equal to 1.")
	// ErrExternalService is returned when an embedding, search or summarization call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
// Err, when set, is the sentinel the error matches through errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// IndexNotFoundError builds the error returned when no index exists at path.
func IndexNotFoundError(path string) error {
	return fmt.Errorf("%w at %s. Run the ingest command to build it first", ErrIndexNotFound, path)
}

// Kind names the taxonomy entry err belongs to. Unknown errors are "Internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuery):
		return "InvalidQuery"
	case errors.Is(err, ErrInvalidTopK):
		return "InvalidTopK"
	case errors.Is(err, ErrIndexNotFound):
		return "IndexNotFound"
	case errors.Is(err, ErrEmptyCorpus):
		return "EmptyCorpus"
	case errors.Is(err, ErrSourceNotFound):
		return "SourceNotFound"
	case errors.Is(err, ErrUnsupportedFormat):
		return "UnsupportedFormat"
	case errors.Is(err, ErrNoDocumentsFound):
		return "NoDocumentsFound"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrExternalService):
		return "ExternalService"
	default:
		return "Internal"
	}
}
