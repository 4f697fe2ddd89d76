package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/llm"
)

const generatorSystemPrompt = `You are a helpful AI assistant that answers questions based on provided context.
Always cite your sources using the format [1], [2], etc.
If you cannot find the answer in the provided context, say "I cannot find the answer to this question in the provided documents."
Be accurate, concise, and helpful.`

// Generator turns a query plus its ordered retrieval results into an answer
// with inline [n] markers matching the citation list.
type Generator struct {
	gateway  llm.Gateway
	provider string
	model    string
}

func NewGenerator(gw llm.Gateway, provider, model string) *Generator {
	return &Generator{gateway: gw, provider: provider, model: model}
}

type Answer struct {
	Text       string     `json:"text"`
	Citations  []Citation `json:"citations"`
	TokensUsed int        `json:"tokens_used"`
	CostUSD    float64    `json:"cost_usd"`
	Model      string     `json:"model"`
}

func (g *Generator) Generate(ctx context.Context, query string, results []Result) (*Answer, error) {
	citations := BuildCitations(results)

	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Provider: g.provider,
		Model:    g.model,
		Messages: []llm.Message{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: buildPrompt(query, results)},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := resp.Content
	if answer == "" {
		answer = "No answer generated."
	}

	return &Answer{
		Text:       answer,
		Citations:  citations,
		TokensUsed: resp.TotalTokens,
		CostUSD:    resp.CostUSD,
		Model:      resp.Model,
	}, nil
}

// BuildCitations assigns 1-based ids by enumeration order of the result list,
// so citation N always refers to the Nth retrieved document.
func BuildCitations(results []Result) []Citation {
	citations := make([]Citation, len(results))
	for i, r := range results {
		citations[i] = Citation{
			ID:      i + 1,
			Source:  r.Chunk.Metadata.Source,
			Title:   r.Chunk.Metadata.Title,
			Section: r.Chunk.Metadata.Section,
			Text:    r.Chunk.Text,
			Score:   r.FinalScore(),
		}
	}
	return citations
}

func buildPrompt(query string, results []Result) string {
	var context strings.Builder
	for i, r := range results {
		fmt.Fprintf(&context, "[%d] %s\n\n", i+1, r.Chunk.Text)
	}

	return fmt.Sprintf(`Based on the following context, please answer the question: %q

Context:
%s
Instructions:
1. Answer the question based only on the provided context
2. Use citations in the format [1], [2], etc. to reference specific sources
3. If the answer cannot be found in the context, clearly state that
4. Be concise but comprehensive
5. Maintain accuracy and avoid hallucination

Question: %s

Answer:`, query, context.String(), query)
}
