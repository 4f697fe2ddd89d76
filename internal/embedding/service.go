package embedding

import (
	"context"
	"log/slog"

	"github.com/askdocs/askdocs/internal/llm"
)

// batchSize caps inputs per provider call to respect API limits.
const batchSize = 100

// Service maps text to fixed-length vectors. The primary path goes through
// the LLM gateway; any provider failure falls back to the deterministic local
// embedding, so Embed and EmbedBatch never fail. Every vector produced by one
// Service has the same dimensionality.
type Service struct {
	gateway   llm.Gateway
	model     string
	dimension int
}

func NewService(gw llm.Gateway, model string, dimension int) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimension <= 0 {
		dimension = 1536
	}
	return &Service{gateway: gw, model: model, dimension: dimension}
}

func (s *Service) Dimension() int { return s.dimension }

// EmbedBatch returns one vector per input text, in input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return nil
	}

	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]
		all = append(all, s.embedBatch(ctx, batch)...)
	}

	return all
}

func (s *Service) Embed(ctx context.Context, text string) []float32 {
	return s.embedBatch(ctx, []string{text})[0]
}

func (s *Service) embedBatch(ctx context.Context, batch []string) [][]float32 {
	if s.gateway != nil {
		resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
			Model: s.model,
			Input: batch,
		})
		if err == nil && len(resp.Embeddings) == len(batch) {
			return resp.Embeddings
		}

		if err != nil {
			slog.Warn("embedding provider failed, using local fallback",
				"op", "embed_batch",
				"model", s.model,
				"inputs", len(batch),
				"error", err,
			)
		} else {
			slog.Warn("embedding provider returned wrong vector count, using local fallback",
				"op", "embed_batch",
				"model", s.model,
				"want", len(batch),
				"got", len(resp.Embeddings),
			)
		}
	}

	vecs := make([][]float32, len(batch))
	for i, t := range batch {
		vecs[i] = EmbedLocal(t, s.dimension)
	}
	return vecs
}
