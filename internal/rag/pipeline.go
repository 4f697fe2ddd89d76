package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectorstore"
	"github.com/askdocs/askdocs/pkg/chunker"
	"github.com/askdocs/askdocs/pkg/tokenizer"
)

// upsertBatchSize caps vectors per store call to respect provider limits.
// Batches are issued sequentially; a caller that abandons the request can
// leave earlier batches committed, which shows up as a partial chunk count.
const upsertBatchSize = 100

// NoAnswerMessage is returned when retrieval finds no relevant context.
const NoAnswerMessage = "I cannot find any relevant information to answer your question."

type Pipeline interface {
	Ingest(ctx context.Context, req IngestRequest) (*ProcessedDocument, error)
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (*StatsResponse, error)
}

type IngestRequest struct {
	Text   string `json:"text"`
	Title  string `json:"title"`
	Source string `json:"source,omitempty"`

	// Set for file uploads, carried into chunk metadata.
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	ChunkOpts chunker.Options `json:"-"`
}

type QueryRequest struct {
	Query   string   `json:"query"`
	Options *Options `json:"options,omitempty"`
}

type QueryResponse struct {
	Answer        string         `json:"answer"`
	Citations     []Citation     `json:"citations"`
	RetrievedDocs []RetrievedDoc `json:"retrieved_docs"`
	TotalTimeMs   int64          `json:"total_time_ms"`
	TokensUsed    int            `json:"tokens_used"`
	EstimatedCost float64        `json:"estimated_cost"`
}

type StatsResponse struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
	TotalTokens    int `json:"total_tokens"`
}

type PipelineConfig struct {
	GenerationProvider string
	GenerationModel    string
	RerankModel        string
	Defaults           Options
}

type pipeline struct {
	store     vectorstore.VectorStore
	embedSvc  *embedding.Service
	retriever *Retriever
	generator *Generator
	chunker   *chunker.Chunker
	counter   tokenizer.Counter
	defaults  Options
}

func NewPipeline(store vectorstore.VectorStore, embedSvc *embedding.Service, gw llm.Gateway, cfg PipelineConfig) Pipeline {
	defaults := cfg.Defaults
	if defaults.TopK <= 0 {
		defaults = DefaultOptions()
	}

	reranker := NewRelevanceReranker(gw, cfg.RerankModel)

	return &pipeline{
		store:     store,
		embedSvc:  embedSvc,
		retriever: NewRetriever(store, embedSvc, reranker),
		generator: NewGenerator(gw, cfg.GenerationProvider, cfg.GenerationModel),
		chunker:   chunker.New(),
		counter:   tokenizer.Approximate{},
		defaults:  defaults,
	}
}

func (p *pipeline) Ingest(ctx context.Context, req IngestRequest) (*ProcessedDocument, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, validationError("ingest", "text is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, validationError("ingest", "title is required")
	}

	source := req.Source
	if source == "" {
		source = "upload"
	}

	start := time.Now()
	documentID := uuid.New().String()
	totalTokens := p.counter.Count(req.Text)

	opts := req.ChunkOpts
	if opts.ChunkSize == 0 {
		opts = chunker.DefaultOptions()
	}
	texts := p.chunker.Chunk(req.Text, opts)

	embeddings := p.embedSvc.EmbedBatch(ctx, texts)

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			ID:        fmt.Sprintf("%s_chunk_%d", documentID, i),
			Text:      text,
			Embedding: embeddings[i],
			Metadata: ChunkMetadata{
				Source:      source,
				Title:       req.Title,
				DocumentID:  documentID,
				Position:    i,
				ChunkIndex:  i,
				TotalChunks: len(texts),
				FileType:    req.FileType,
				FileSize:    req.FileSize,
				WordCount:   len(strings.Fields(text)),
			},
		}
	}

	if err := checkChunkInvariants(chunks); err != nil {
		return nil, validationError("ingest", err.Error())
	}

	if err := p.upsertChunks(ctx, chunks); err != nil {
		return nil, err
	}

	doc := &ProcessedDocument{
		ID:               documentID,
		Title:            req.Title,
		Source:           source,
		Chunks:           chunks,
		TotalTokens:      totalTokens,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	slog.Info("document ingested",
		"document_id", documentID,
		"chunks", len(chunks),
		"tokens", totalTokens,
		"duration_ms", doc.ProcessingTimeMs,
	)
	return doc, nil
}

// checkChunkInvariants verifies the ingestion contract: chunk indices are
// contiguous from 0 and every chunk carries the same TotalChunks equal to the
// chunk count.
func checkChunkInvariants(chunks []Chunk) error {
	for i, c := range chunks {
		if c.Metadata.ChunkIndex != i {
			return fmt.Errorf("chunk %s: index %d at position %d", c.ID, c.Metadata.ChunkIndex, i)
		}
		if c.Metadata.TotalChunks != len(chunks) {
			return fmt.Errorf("chunk %s: total_chunks %d, want %d", c.ID, c.Metadata.TotalChunks, len(chunks))
		}
	}
	return nil
}

func (p *pipeline) upsertChunks(ctx context.Context, chunks []Chunk) error {
	vectors := make([]vectorstore.Vector, len(chunks))
	for i, c := range chunks {
		vectors[i] = vectorstore.Vector{
			ID:       c.ID,
			Values:   c.Embedding,
			Metadata: storeMetadata(c),
		}
	}

	for i := 0; i < len(vectors); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		if err := p.store.Upsert(ctx, vectors[i:end]); err != nil {
			return storeError("ingest", fmt.Errorf("upsert batch %d: %w", i/upsertBatchSize, err))
		}
	}
	return nil
}

func (p *pipeline) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, validationError("query", "query is required")
	}

	opts := p.defaults
	if req.Options != nil {
		opts = *req.Options
	}

	start := time.Now()

	results, err := p.retriever.Retrieve(ctx, req.Query, opts)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		// Valid outcome, not a failure: nothing relevant is ingested.
		return &QueryResponse{
			Answer:        NoAnswerMessage,
			Citations:     []Citation{},
			RetrievedDocs: []RetrievedDoc{},
			TotalTimeMs:   time.Since(start).Milliseconds(),
			TokensUsed:    0,
			EstimatedCost: 0,
		}, nil
	}

	answer, err := p.generator.Generate(ctx, req.Query, results)
	if err != nil {
		return nil, providerError("query", err)
	}

	docs := make([]RetrievedDoc, len(results))
	for i, r := range results {
		docs[i] = RetrievedDoc{
			ID:          r.Chunk.ID,
			Text:        r.Chunk.Text,
			Metadata:    r.Chunk.Metadata,
			Score:       r.Score,
			RerankScore: r.RerankScore,
		}
	}

	return &QueryResponse{
		Answer:        answer.Text,
		Citations:     answer.Citations,
		RetrievedDocs: docs,
		TotalTimeMs:   time.Since(start).Milliseconds(),
		TokensUsed:    answer.TokensUsed,
		EstimatedCost: answer.CostUSD,
	}, nil
}

// DeleteDocument removes every chunk whose metadata names the document. The
// store has no list-by-filter call, so this queries with a zero vector and a
// metadata filter, then deletes the matched ids.
func (p *pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return validationError("delete_document", "document id is required")
	}

	matches, err := p.store.Query(ctx, make([]float32, p.embedSvc.Dimension()), vectorstore.QueryOptions{
		TopK:   10000,
		Filter: map[string]string{"document_id": documentID},
	})
	if err != nil {
		return storeError("delete_document", fmt.Errorf("find chunks: %w", err))
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	if err := p.store.DeleteByIDs(ctx, ids); err != nil {
		return storeError("delete_document", fmt.Errorf("delete chunks: %w", err))
	}

	slog.Info("document deleted", "document_id", documentID, "chunks", len(ids))
	return nil
}

// Stats reports aggregate counts from the store. The store tracks vectors,
// not documents or tokens, so document count mirrors the vector count and the
// token total is 0 unless tracked separately by the caller.
func (p *pipeline) Stats(ctx context.Context) (*StatsResponse, error) {
	stats, err := p.store.DescribeStats(ctx)
	if err != nil {
		return nil, storeError("stats", fmt.Errorf("describe stats: %w", err))
	}

	return &StatsResponse{
		TotalDocuments: stats.VectorCount,
		TotalChunks:    stats.VectorCount,
		TotalTokens:    0,
	}, nil
}
