package rag

// ChunkMetadata travels with every vector into the store and back out with
// every match. DocumentID ties a chunk to its parent for deletion; ChunkIndex
// is 0-based and contiguous per document; TotalChunks is the same for every
// chunk of one document.
type ChunkMetadata struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Section     string `json:"section,omitempty"`
	DocumentID  string `json:"document_id"`
	Position    int    `json:"position"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	FileType    string `json:"file_type,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	WordCount   int    `json:"word_count,omitempty"`
}

// Chunk is the retrieval unit: a bounded slice of a document's text plus its
// embedding, once computed.
type Chunk struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Embedding []float32     `json:"embedding,omitempty"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// Result pairs a chunk with its raw similarity score. RerankScore is set only
// after reranking; when present it determines final ordering.
type Result struct {
	Chunk       Chunk    `json:"chunk"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// FinalScore is the rerank score when set, otherwise the raw similarity.
func (r Result) FinalScore() float64 {
	if r.RerankScore != nil {
		return *r.RerankScore
	}
	return r.Score
}

// Citation lets a generated answer reference [1], [2], ... in one-to-one
// correspondence with the ordered result list handed to generation. IDs are
// 1-based by enumeration order.
type Citation struct {
	ID      int     `json:"id"`
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	Section string  `json:"section,omitempty"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// ProcessedDocument is the result of one ingestion.
type ProcessedDocument struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Source           string  `json:"source"`
	Chunks           []Chunk `json:"chunks"`
	TotalTokens      int     `json:"total_tokens"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// RetrievedDoc is the wire shape of one result in a query response.
type RetrievedDoc struct {
	ID          string        `json:"id"`
	Text        string        `json:"text"`
	Metadata    ChunkMetadata `json:"metadata"`
	Score       float64       `json:"score"`
	RerankScore *float64      `json:"rerank_score,omitempty"`
}
