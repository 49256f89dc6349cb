package llm

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultLocalDimension matches the vector size of all-MiniLM-L6-v2.
const DefaultLocalDimension = 384

var (
	tokenPattern    = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// HashEmbedder is a deterministic feature-hashing embedder that needs no model server.
// Vectors for different model names live in unrelated spaces.
type HashEmbedder struct {
	model     string
	dimension int
}

// NewHashEmbedder creates a local embedder. dimension <= 0 uses DefaultLocalDimension.
func NewHashEmbedder(model string, dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &HashEmbedder{model: model, dimension: dimension}
}

// Dimension returns the vector size.
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// EmbedTexts hashes each text's tokens and bigrams into a signed, L2-normalised vector.
func (e *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tokens := tokenize(text)
	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (e *HashEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.model))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// ExtractiveSummarizer picks the most representative sentences of a text by word frequency.
// It is deterministic and never returns an empty summary for non-empty input.
type ExtractiveSummarizer struct {
	stopwords map[string]struct{}
}

// NewExtractiveSummarizer creates a local summarizer.
func NewExtractiveSummarizer() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{stopwords: defaultStopwords()}
}

// Summarize keeps the highest ranked sentences, in their original order, within opts.MaxTokens words.
// When that selection is shorter than opts.MinTokens words, further sentences are added in rank
// order and the result is cut at MaxTokens, so the summary only falls below MinTokens when the
// text itself is shorter.
func (s *ExtractiveSummarizer) Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxWords := opts.MaxTokens
	if maxWords <= 0 {
		maxWords = DefaultSummaryOptions.MaxTokens
	}
	minWords := min(max(opts.MinTokens, 0), maxWords)

	var sentences []string
	for _, sent := range sentencePattern.FindAllString(text, -1) {
		if sent = strings.TrimSpace(sent); sent != "" {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return truncateWords(strings.TrimSpace(text), maxWords), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			if _, stop := s.stopwords[tok]; !stop {
				freq[tok]++
			}
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		toks := tokenize(sent)
		var score float64
		for _, tok := range toks {
			score += freq[tok]
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{idx: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	var selected []int
	taken := make([]bool, len(sentences))
	words := 0
	for _, r := range scores {
		n := len(strings.Fields(sentences[r.idx]))
		if len(selected) > 0 && words+n > maxWords {
			continue
		}
		selected = append(selected, r.idx)
		taken[r.idx] = true
		words += n
		if words >= maxWords {
			break
		}
	}
	for _, r := range scores {
		if words >= minWords {
			break
		}
		if !taken[r.idx] {
			selected = append(selected, r.idx)
			words += len(strings.Fields(sentences[r.idx]))
		}
	}
	sort.Ints(selected)

	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return truncateWords(strings.Join(out, " "), maxWords), nil
}

func truncateWords(text string, maxWords int) string {
	fields := strings.Fields(text)
	if len(fields) <= maxWords {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:maxWords], " ")
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "should", "now", "must", "may", "all",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
