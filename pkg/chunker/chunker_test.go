package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/pkg/tokenizer"
)

func TestChunkEmptyInput(t *testing.T) {
	c := New()

	assert.Nil(t, c.Chunk("", DefaultOptions()))
	assert.Nil(t, c.Chunk("   \n\t  ", DefaultOptions()))
	assert.Nil(t, c.Chunk("...!!!???", DefaultOptions()))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := New()

	chunks := c.Chunk("Hello world. How are you today?", DefaultOptions())

	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world. How are you today", chunks[0])
}

func TestChunkTextWithoutTerminalPunctuation(t *testing.T) {
	c := New()

	chunks := c.Chunk("a fragment with no period", DefaultOptions())

	require.Len(t, chunks, 1)
	assert.Equal(t, "a fragment with no period", chunks[0])
}

func TestChunkRespectsTokenBudget(t *testing.T) {
	c := New()
	opts := Options{ChunkSize: 50, ChunkOverlap: 0}

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "sentence number %d has a handful of words. ", i)
	}

	chunks := c.Chunk(b.String(), opts)

	require.Greater(t, len(chunks), 1)
	counter := tokenizer.Approximate{}
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
		assert.Equal(t, strings.TrimSpace(chunk), chunk)
		// A chunk may exceed the budget only by its final sentence; with
		// these short sentences it stays within budget plus one sentence.
		assert.LessOrEqual(t, counter.Count(chunk), opts.ChunkSize+counter.Count("sentence number 39 has a handful of words"))
	}
}

func TestChunkOverlapSeedsNextChunk(t *testing.T) {
	c := New()
	opts := Options{ChunkSize: 50, ChunkOverlap: 10}

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "alpha%d beta%d gamma%d delta%d. ", i, i, i, i)
	}

	chunks := c.Chunk(b.String(), opts)
	require.Greater(t, len(chunks), 1)

	// 10 overlap tokens estimate to 8 words carried across the boundary.
	const overlapWords = 8
	for i := 0; i < len(chunks)-1; i++ {
		next := strings.Fields(chunks[i+1])
		n := overlapWords
		if len(next) < n {
			n = len(next)
		}
		carried := strings.Join(next[:n], " ")
		assert.True(t, strings.HasSuffix(chunks[i], carried),
			"chunk %d should end with the words seeding chunk %d", i, i+1)
	}
}

func TestChunkOversizedSentenceEmittedWhole(t *testing.T) {
	c := New()
	opts := Options{ChunkSize: 10, ChunkOverlap: 0}

	long := strings.Repeat("verylongword ", 30)
	text := "short one. " + long + ". short two."

	chunks := c.Chunk(text, opts)

	require.GreaterOrEqual(t, len(chunks), 3)
	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk, "verylongword verylongword") {
			found = true
			assert.Equal(t, strings.TrimSpace(long), chunk)
		}
	}
	assert.True(t, found, "oversized sentence should survive as one chunk")
}

func TestChunkPreservesAllContent(t *testing.T) {
	c := New()
	opts := Options{ChunkSize: 40, ChunkOverlap: 0}

	var words []string
	var b strings.Builder
	for i := 0; i < 30; i++ {
		w := fmt.Sprintf("unique%d", i)
		words = append(words, w)
		fmt.Fprintf(&b, "%s follows the previous one. ", w)
	}

	joined := strings.Join(c.Chunk(b.String(), opts), " ")
	for _, w := range words {
		assert.Contains(t, joined, w)
	}
}

func TestChunkZeroOptionsFallBackToDefaults(t *testing.T) {
	c := New()

	chunks := c.Chunk("One sentence. Another sentence.", Options{})

	require.Len(t, chunks, 1)
	assert.Equal(t, "One sentence. Another sentence", chunks[0])
}

func TestChunkWithCustomCounter(t *testing.T) {
	// Count every sentence as the budget so each one closes a chunk.
	c := NewWithCounter(counterFunc(func(string) int { return 10 }))
	opts := Options{ChunkSize: 10, ChunkOverlap: 0}

	chunks := c.Chunk("first part. second part. third part.", opts)

	assert.Equal(t, []string{"first part", "second part", "third part"}, chunks)
}

type counterFunc func(string) int

func (f counterFunc) Count(text string) int { return f(text) }
