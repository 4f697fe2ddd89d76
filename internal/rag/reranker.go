package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/askdocs/askdocs/internal/llm"
)

// Reranker re-scores a candidate list against a query and returns the top
// results in descending relevance. Implementations must use stable ordering
// so equal scores keep the store-returned order.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result, topK int) []Result
}

// KeywordReranker blends the raw similarity score with literal term overlap:
// 0.7 * score + 0.3 * (keyword matches / query word count). It needs no
// external service.
type KeywordReranker struct{}

func NewKeywordReranker() *KeywordReranker {
	return &KeywordReranker{}
}

func (r *KeywordReranker) Rerank(_ context.Context, query string, results []Result, topK int) []Result {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return truncate(results, topK)
	}

	reranked := make([]Result, len(results))
	copy(reranked, results)

	for i, res := range reranked {
		matches := 0
		for _, word := range queryWords {
			matches += countOccurrences(res.Chunk.Text, word)
		}

		score := res.Score*0.7 + float64(matches)/float64(len(queryWords))*0.3
		reranked[i].RerankScore = &score
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return *reranked[i].RerankScore > *reranked[j].RerankScore
	})

	return truncate(reranked, topK)
}

// countOccurrences counts case-insensitive occurrences of word in text. The
// word is escaped first so query text containing regex metacharacters cannot
// break the pattern.
func countOccurrences(text, word string) int {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(word))
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

// RelevanceReranker asks a relevance model, through the LLM gateway, to score
// each candidate against the query. Any provider failure falls back to the
// keyword reranker; a query never fails because reranking did.
type RelevanceReranker struct {
	gateway  llm.Gateway
	model    string
	fallback *KeywordReranker
}

func NewRelevanceReranker(gw llm.Gateway, model string) *RelevanceReranker {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &RelevanceReranker{
		gateway:  gw,
		model:    model,
		fallback: NewKeywordReranker(),
	}
}

func (r *RelevanceReranker) Rerank(ctx context.Context, query string, results []Result, topK int) []Result {
	if len(results) == 0 {
		return results
	}

	scores, err := r.scoreCandidates(ctx, query, results)
	if err != nil {
		slog.Warn("relevance reranking failed, falling back to keyword scoring",
			"op", "rerank",
			"model", r.model,
			"error", err,
		)
		return r.fallback.Rerank(ctx, query, results, topK)
	}

	reranked := make([]Result, len(results))
	copy(reranked, results)

	for i := range reranked {
		score, ok := scores[i]
		if !ok {
			// unscored candidates keep their raw similarity
			score = reranked[i].Score
		}
		s := score
		reranked[i].RerankScore = &s
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return *reranked[i].RerankScore > *reranked[j].RerankScore
	})

	return truncate(reranked, topK)
}

func (r *RelevanceReranker) scoreCandidates(ctx context.Context, query string, results []Result) (map[int]float64, error) {
	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i, truncateText(res.Chunk.Text, 500))
	}

	resp, err := r.gateway.Chat(ctx, llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			{
				Role: "system",
				Content: `You are a relevance scoring assistant. Given a query and a list of text chunks,
score each chunk from 0.0 to 1.0 based on how relevant it is to the query.
Return ONLY a JSON array of objects with "index" and "score" fields. Example:
[{"index": 0, "score": 0.95}, {"index": 1, "score": 0.3}]`,
			},
			{
				Role:    "user",
				Content: fmt.Sprintf("Query: %s\n\nChunks:\n%s", query, sb.String()),
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	var scores []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	}
	content := strings.TrimSpace(resp.Content)
	// Strip markdown code fences if present
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &scores); err != nil {
		return nil, fmt.Errorf("parse scores: %w", err)
	}

	scoreMap := make(map[int]float64, len(scores))
	for _, s := range scores {
		if s.Index >= 0 && s.Index < len(results) {
			scoreMap[s.Index] = s.Score
		}
	}
	return scoreMap, nil
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
