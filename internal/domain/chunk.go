package domain

import "time"

// ChunkMetadata is the metadata attached to every indexed chunk. SourceID,
// Title, URL and SourceType are inherited from the document; ChunkIndex and
// TotalChunks position the chunk among its siblings.
type ChunkMetadata struct {
	SourceID    string `json:"source_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	SourceType  string `json:"source_type"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	// PageNumber is set when the chunk text carries a [PAGE n] marker,
	// zero otherwise.
	PageNumber int `json:"page_number,omitempty"`
}

// DocumentChunk is an embedding record: a chunk of document text plus its
// dense vector and metadata.
type DocumentChunk struct {
	ID        string
	Content   string
	Embedding []float32
	Meta      ChunkMetadata
	CreatedAt time.Time
}

// ChunkRef is a lightweight id/source pair used by consistency scans.
type ChunkRef struct {
	ID       string
	SourceID string
}

// RetrievalResult is one similarity-search hit. Distance is cosine
// dissimilarity in [0,1]; lower is more relevant.
type RetrievalResult struct {
	Content  string        `json:"content"`
	Meta     ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// Relevance converts the distance into a similarity score.
func (r RetrievalResult) Relevance() float64 {
	return 1 - r.Distance
}

// Citation is a ranked source reference surfaced alongside an answer.
type Citation struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
}
