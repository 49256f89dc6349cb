// Package corpus turns raw policy documents into cleaned text ready for chunking.
package corpus

import (
	"fmt"
	"reflect"
	"strings"

	"policybot/internal/service"
)

// RawDocument is a policy document as read from disk.
// Path is empty for the built-in sample policies.
type RawDocument struct {
	Path string
	Text string
}

// CleanedDocument is a RawDocument whose text went through Normalize and was not empty.
type CleanedDocument struct {
	Path string
	Text string
}

// NormalizeString trims s and collapses every run of whitespace into a single space.
func NormalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize accepts any string-like value and returns its normalized form.
// nil and non-string values fail with service.ErrInvalidInput.
func Normalize(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return NormalizeString(s), nil
	case *string:
		if s == nil {
			return "", invalidInput("nil string pointer")
		}
		return NormalizeString(*s), nil
	case []byte:
		if s == nil {
			return "", invalidInput("nil byte slice")
		}
		return NormalizeString(string(s)), nil
	case fmt.Stringer:
		if isNilPointer(s) {
			return "", invalidInput("text must not be nil")
		}
		return NormalizeString(s.String()), nil
	case nil:
		return "", invalidInput("text must not be nil")
	default:
		return "", invalidInput(fmt.Sprintf("unsupported text type %T", v))
	}
}

// isNilPointer reports whether v holds a typed nil, which would panic on a method call.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// CleanCorpus normalizes every entry, drops the empty results and keeps the order of the rest.
// It fails with service.ErrEmptyCorpus when nothing survives.
func CleanCorpus(raw []string) ([]string, error) {
	cleaned := make([]string, 0, len(raw))
	for _, text := range raw {
		if s := NormalizeString(text); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	if len(cleaned) == 0 {
		return nil, service.ErrEmptyCorpus
	}
	return cleaned, nil
}

// CleanDocuments is CleanCorpus for documents, keeping each survivor's path.
func CleanDocuments(docs []RawDocument) ([]CleanedDocument, error) {
	cleaned := make([]CleanedDocument, 0, len(docs))
	for _, doc := range docs {
		if s := NormalizeString(doc.Text); s != "" {
			cleaned = append(cleaned, CleanedDocument{Path: doc.Path, Text: s})
		}
	}

	if len(cleaned) == 0 {
		return nil, service.ErrEmptyCorpus
	}
	return cleaned, nil
}

func invalidInput(msg string) error {
	return &service.ValidationError{
		Field:   "text",
		Message: msg,
		Err:     service.ErrInvalidInput,
	}
}
