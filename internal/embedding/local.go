package embedding

import (
	"math"
	"strings"
)

// EmbedLocal produces a deterministic bag-of-words embedding with no external
// dependency: each lower-cased whitespace token is hashed to a slot in a
// fixed-size vector, term counts accumulate there, and the result is
// L2-normalized. It is a literal word-hashing sketch, not a trained model,
// and exists so that ingestion and query keep working when the embedding
// provider is down.
func EmbedLocal(text string, dimension int) []float32 {
	vec := make([]float32, dimension)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		vec[hashIndex(word, dimension)]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		// all-zero stays all-zero; normalizing would divide by zero
		return vec
	}

	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// hashIndex maps a token to a vector slot via a 32-bit rolling hash
// (h*31 + char, wrapping), then abs(h) mod dimension.
func hashIndex(word string, dimension int) int {
	var h int32
	for _, r := range word {
		h = (h << 5) - h + int32(r)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	return int(n % int64(dimension))
}
