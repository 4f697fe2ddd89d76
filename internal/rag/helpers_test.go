package rag

import (
	"context"
	"errors"
	"sort"

	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// fakeStore is an in-memory VectorStore. Query returns stored vectors in
// insertion order with a default score of 0.5, overridable per id, so tests
// control candidate ordering without real similarity math.
type fakeStore struct {
	vectors map[string]vectorstore.Vector
	order   []string
	scores  map[string]float64

	upsertBatches []int
	deletedIDs    []string

	upsertErr error
	queryErr  error
	deleteErr error
	statsErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vectors: map[string]vectorstore.Vector{},
		scores:  map[string]float64{},
	}
}

func (s *fakeStore) Upsert(_ context.Context, vs []vectorstore.Vector) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upsertBatches = append(s.upsertBatches, len(vs))
	for _, v := range vs {
		if _, exists := s.vectors[v.ID]; !exists {
			s.order = append(s.order, v.ID)
		}
		s.vectors[v.ID] = v
	}
	return nil
}

func (s *fakeStore) Query(_ context.Context, _ []float32, opts vectorstore.QueryOptions) ([]vectorstore.Match, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	var matches []vectorstore.Match
	for _, id := range s.order {
		v := s.vectors[id]
		if !matchesFilter(v.Metadata, opts.Filter) {
			continue
		}
		score, ok := s.scores[id]
		if !ok {
			score = 0.5
		}
		m := vectorstore.Match{ID: id, Score: score, Metadata: v.Metadata}
		if opts.IncludeValues {
			m.Values = v.Values
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

func matchesFilter(metadata map[string]any, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := metadata[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (s *fakeStore) DeleteByIDs(_ context.Context, ids []string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for _, id := range ids {
		delete(s.vectors, id)
		s.deletedIDs = append(s.deletedIDs, id)
	}
	var order []string
	for _, id := range s.order {
		if _, ok := s.vectors[id]; ok {
			order = append(order, id)
		}
	}
	s.order = order
	return nil
}

func (s *fakeStore) DescribeStats(_ context.Context) (*vectorstore.Stats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &vectorstore.Stats{VectorCount: len(s.vectors)}, nil
}

// fakeGateway stubs the LLM gateway. Nil funcs fail, which drives the local
// embedding and keyword-rerank fallbacks.
type fakeGateway struct {
	chatFn  func(req llm.ChatRequest) (*llm.ChatResponse, error)
	embedFn func(req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error)
}

func (g *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if g.chatFn == nil {
		return nil, errors.New("chat not configured")
	}
	return g.chatFn(req)
}

func (g *fakeGateway) Embed(_ context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if g.embedFn == nil {
		return nil, errors.New("embed not configured")
	}
	return g.embedFn(req)
}

func (g *fakeGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("provider " + name + " not configured")
}

func (g *fakeGateway) ListModels() []llm.ModelInfo { return nil }

func resultWithText(id, text string, score float64) Result {
	return Result{
		Chunk: Chunk{ID: id, Text: text},
		Score: score,
	}
}

func resultWithEmbedding(id string, score float64, embedding []float32) Result {
	return Result{
		Chunk: Chunk{ID: id, Embedding: embedding},
		Score: score,
	}
}
