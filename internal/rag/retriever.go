package rag

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// Options controls one retrieval. TopK bounds the nearest-neighbor candidate
// set; RerankTopK bounds the final result list.
type Options struct {
	TopK         int     `json:"top_k,omitempty"`
	RerankTopK   int     `json:"rerank_top_k,omitempty"`
	UseReranking bool    `json:"use_reranking,omitempty"`
	Strategy     string  `json:"strategy,omitempty"` // "", "mmr"
	MMRLambda    float64 `json:"mmr_lambda,omitempty"`
}

func DefaultOptions() Options {
	return Options{
		TopK:         20,
		RerankTopK:   5,
		UseReranking: true,
	}
}

type Retriever struct {
	store    vectorstore.VectorStore
	embedSvc *embedding.Service
	reranker Reranker
}

func NewRetriever(store vectorstore.VectorStore, embedSvc *embedding.Service, reranker Reranker) *Retriever {
	return &Retriever{store: store, embedSvc: embedSvc, reranker: reranker}
}

// Retrieve embeds the query, pulls the TopK nearest candidates and reorders
// them per Options. Zero candidates is a valid outcome and returns an empty
// slice with a nil error; only a store failure is an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]Result, error) {
	if opts.TopK <= 0 {
		opts.TopK = 20
	}
	if opts.RerankTopK <= 0 {
		opts.RerankTopK = 5
	}

	queryVec := r.embedSvc.Embed(ctx, query)

	matches, err := r.store.Query(ctx, queryVec, vectorstore.QueryOptions{
		TopK:          opts.TopK,
		IncludeValues: true,
	})
	if err != nil {
		return nil, storeError("retrieve", fmt.Errorf("query store: %w", err))
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Chunk: chunkFromMetadata(m.ID, m.Values, m.Metadata),
			Score: m.Score,
		}
	}

	if len(results) == 0 {
		return results, nil
	}

	if opts.Strategy == "mmr" {
		lambda := opts.MMRLambda
		if lambda == 0 {
			lambda = 0.7
		}
		return truncate(ApplyMMR(results, lambda), opts.RerankTopK), nil
	}

	if !opts.UseReranking {
		return truncate(results, opts.RerankTopK), nil
	}

	return r.reranker.Rerank(ctx, query, results, opts.RerankTopK), nil
}

func truncate(results []Result, topK int) []Result {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
