package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/config"
)

func TestGatewayProviderNotConfigured(t *testing.T) {
	g := NewGateway(config.LLMConfig{DefaultProvider: "openai"})

	_, err := g.Chat(context.Background(), ChatRequest{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = g.Embed(context.Background(), EmbeddingRequest{Model: "text-embedding-3-small"})
	require.Error(t, err)
}

func TestGatewayChatViaOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(ollamaChatResp{
			Message:         ollamaMessage{Role: "assistant", Content: "hello back"},
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       5,
		})
	}))
	defer srv.Close()

	g := NewGateway(config.LLMConfig{OllamaURL: srv.URL, DefaultProvider: "ollama"})

	resp, err := g.Chat(context.Background(), ChatRequest{
		Model:    "llama3",
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, 15, resp.TotalTokens)
	assert.Zero(t, resp.CostUSD)
}

func TestGatewayRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// garbage body makes the first attempt fail to decode
			w.Write([]byte("not json"))
			return
		}
		json.NewEncoder(w).Encode(ollamaChatResp{Message: ollamaMessage{Content: "ok"}})
	}))
	defer srv.Close()

	g := NewGateway(config.LLMConfig{OllamaURL: srv.URL, DefaultProvider: "ollama", MaxRetries: 2})

	resp, err := g.Chat(context.Background(), ChatRequest{Model: "llama3"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, calls)
}

func TestGatewayEmbedViaOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		json.NewEncoder(w).Encode(ollamaEmbedResp{Embeddings: [][]float32{{0.1, 0.2}}})
	}))
	defer srv.Close()

	g := NewGateway(config.LLMConfig{OllamaURL: srv.URL, DefaultProvider: "ollama"})

	resp, err := g.Embed(context.Background(), EmbeddingRequest{Input: []string{"text"}})

	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 1)
	assert.Equal(t, []float32{0.1, 0.2}, resp.Embeddings[0])
	assert.Equal(t, "nomic-embed-text", resp.Model)
}

func TestCalculateCost(t *testing.T) {
	// 1000 input + 1000 output tokens of gpt-4o-mini
	assert.InDelta(t, 0.00015+0.0006, CalculateCost("gpt-4o-mini", 1000, 1000), 1e-9)

	// embeddings bill input only
	assert.InDelta(t, 0.00002, CalculateCost("text-embedding-3-small", 1000, 0), 1e-9)

	// unknown models cost nothing rather than guessing
	assert.Zero(t, CalculateCost("some-unknown-model", 1000, 1000))
}
