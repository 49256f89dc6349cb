package indexer

import (
	"math"
	"sort"
	"unicode/utf8"
)

// TokensPerRune is an approximation for token counting (4 chars per token).
const TokensPerRune = 4.0

// BuildStats summarises what an index build produced.
type BuildStats struct {
	// DocsProcessed is the number of cleaned documents that were chunked.
	DocsProcessed int `json:"docs_processed"`
	// DocsWith0Chunks is the number of documents that produced no chunk.
	DocsWith0Chunks int `json:"docs_with_0_chunks"`
	// ChunksEmbedded is the number of chunks embedded and stored.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunkTokenStats describes the estimated token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// IndexVersion identifies the build; it is the manifest version.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func computeBuildStats(docs []document, version string) BuildStats {
	stats := BuildStats{
		DocsProcessed: len(docs),
		IndexVersion:  version,
	}

	var tokenCounts []int
	for _, doc := range docs {
		if len(doc.chunks) == 0 {
			stats.DocsWith0Chunks++
		}
		for _, chunk := range doc.chunks {
			tokenCounts = append(tokenCounts, estimateTokens(chunk))
		}
	}
	stats.ChunksEmbedded = len(tokenCounts)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	return stats
}

// estimateTokens approximates the token count of text from its rune count. Never below 1.
func estimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // 2 decimal places
		P95:  sorted[p95Index],
	}
}
