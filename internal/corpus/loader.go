package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"policybot/internal/service"
)

// SupportedSuffixes lists the file extensions the loader accepts, compared case-insensitively.
var SupportedSuffixes = []string{".md", ".txt"}

// LoadOptions controls how documents are read.
type LoadOptions struct {
	// Pattern selects files below a directory source. Defaults to "**/*".
	Pattern string
	// StripMarkdown renders .md files to plain text before they are returned.
	StripMarkdown bool
}

// LoadDocuments reads policy documents from a single file or from every supported file
// below a directory, in path order.
func LoadDocuments(path string, opts LoadOptions) ([]RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no policy files found at %s", service.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !isSupported(path) {
			return nil, fmt.Errorf("%w: %q, expected one of %v", service.ErrUnsupportedFormat, filepath.Ext(path), SupportedSuffixes)
		}
		doc, err := readDocument(path, opts)
		if err != nil {
			return nil, err
		}
		return []RawDocument{doc}, nil
	}

	files, err := findDocuments(path, opts.Pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s, accepted suffixes: %v", service.ErrNoDocumentsFound, path, SupportedSuffixes)
	}

	docs := make([]RawDocument, 0, len(files))
	for _, file := range files {
		doc, err := readDocument(file, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// findDocuments returns the supported files below root matching pattern, sorted.
func findDocuments(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**/*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}

	var rel []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() || !isSupported(p) {
			return nil
		}
		rel = append(rel, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(rel)
	files := make([]string, len(rel))
	for i, p := range rel {
		files[i] = filepath.Join(root, filepath.FromSlash(p))
	}
	return files, nil
}

func readDocument(path string, opts LoadOptions) (RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawDocument{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(data)
	if opts.StripMarkdown && strings.EqualFold(filepath.Ext(path), ".md") {
		text = MarkdownToText(data)
	}
	return RawDocument{Path: path, Text: text}, nil
}

func isSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}
