// Package chunker splits document text into overlapping, token-bounded
// passages suitable for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/askdocs/askdocs/pkg/tokenizer"
)

type Options struct {
	ChunkSize    int // token budget per chunk
	ChunkOverlap int // tokens carried over between adjacent chunks
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:    1000,
		ChunkOverlap: 150,
	}
}

type Chunker struct {
	counter tokenizer.Counter
}

// New returns a chunker using the approximate token counter. Use NewWithCounter
// to plug in an exact tokenizer.
func New() *Chunker {
	return &Chunker{counter: tokenizer.Approximate{}}
}

func NewWithCounter(c tokenizer.Counter) *Chunker {
	return &Chunker{counter: c}
}

// Chunk splits text at sentence boundaries, accumulating sentences until the
// token budget is reached. Each new chunk is seeded with the tail of its
// predecessor so that context spans chunk edges. A single sentence longer
// than the budget is emitted as its own oversized chunk rather than split
// mid-sentence.
func (c *Chunker) Chunk(text string, opts Options) []string {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current string
	currentTokens := 0

	for _, sentence := range sentences {
		sentenceTokens := c.counter.Count(sentence)

		if currentTokens+sentenceTokens > opts.ChunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			current = overlapTail(current, opts.ChunkOverlap) + sentence
			currentTokens = c.counter.Count(current)
			continue
		}

		if current != "" {
			current += ". " + sentence
		} else {
			current = sentence
		}
		currentTokens += sentenceTokens
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// splitSentences breaks text on terminal punctuation, discarding empty units.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			flush()
			continue
		}
		b.WriteRune(r)
	}
	flush()

	return sentences
}

// overlapTail returns the suffix of a closed chunk worth roughly overlapTokens
// tokens, converted to a word count at ~5 characters per word over the 4
// characters-per-token estimate. With a trailing space so the next sentence
// joins cleanly.
func overlapTail(text string, overlapTokens int) string {
	if overlapTokens <= 0 {
		return ""
	}

	words := strings.Split(text, " ")
	estimatedWords := (overlapTokens*4 + 4) / 5

	if len(words) <= estimatedWords {
		return text + " "
	}
	return strings.Join(words[len(words)-estimatedWords:], " ") + " "
}
