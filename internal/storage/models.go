package storage

// SourceRecord is one ingested document.
type SourceRecord struct {
	ID         int64
	Path       string // empty for built-in sample policies
	Position   int    // order in which the document was ingested
	ChunkCount int
}

// ChunkRecord is a chunk of a source's cleaned text.
type ChunkRecord struct {
	ID         string // UUID, also the vector point ID
	SourceID   int64
	ChunkIndex int // index within the source, starting at 0
	Text       string
}
