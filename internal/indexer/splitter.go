package indexer

import (
	"strings"
	"unicode/utf8"

	"policybot/internal/service"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into overlapping windows. It prefers paragraph breaks, then line
// breaks, then spaces, and falls back to single characters.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter producing windows of at most size runes, with about
// overlap runes repeated between consecutive windows.
func NewSplitter(size, overlap int) (*Splitter, error) {
	switch {
	case size <= 0:
		return nil, &service.ValidationError{Field: "chunk_size", Message: "must be greater than 0", Err: service.ErrInvalidInput}
	case overlap < 0:
		return nil, &service.ValidationError{Field: "chunk_overlap", Message: "cannot be negative", Err: service.ErrInvalidInput}
	case overlap > size:
		return nil, &service.ValidationError{Field: "chunk_overlap", Message: "cannot be larger than chunk_size", Err: service.ErrInvalidInput}
	}
	return &Splitter{size: size, overlap: overlap, separators: defaultSeparators}, nil
}

// Split returns the trimmed, non-empty windows of text in order.
func (s *Splitter) Split(text string) []string {
	var out []string
	for _, chunk := range s.split(text, s.separators) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, small []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < s.size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small)...)
			small = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small)...)
	}
	return chunks
}

// merge packs pieces into windows of at most s.size runes. When a window is full, pieces
// are dropped from its front until at most s.overlap runes remain to start the next one.
func (s *Splitter) merge(pieces []string) []string {
	var (
		windows []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.size && len(current) > 0 {
			if w := strings.TrimSpace(strings.Join(current, "")); w != "" {
				windows = append(windows, w)
			}
			for total > s.overlap || (total+n > s.size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if w := strings.TrimSpace(strings.Join(current, "")); w != "" {
		windows = append(windows, w)
	}
	return windows
}

// splitKeepingSeparator splits text on sep, keeping sep at the start of every piece but
// the first. An empty sep splits into single characters. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}
