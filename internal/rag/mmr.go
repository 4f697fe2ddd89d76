package rag

import "math"

// mmrMaxSelected caps the MMR output regardless of candidate count.
const mmrMaxSelected = 10

// ApplyMMR reorders candidates by Maximal Marginal Relevance: the first pick
// is the highest raw score, every later pick maximizes
// lambda*relevance - (1-lambda)*max(cosine to already selected). Relevance is
// always the raw similarity score, never a rerank score, so MMR composes with
// the other strategies as an independent post-filter. lambda=1 degenerates to
// pure relevance order, lambda=0 to pure diversity after the first pick.
func ApplyMMR(results []Result, lambda float64) []Result {
	if len(results) <= 1 {
		return results
	}

	remaining := make([]Result, len(results))
	copy(remaining, results)

	// Seed with the highest-scoring candidate; ties keep the earliest.
	best := 0
	for i, r := range remaining {
		if r.Score > remaining[best].Score {
			best = i
		}
	}

	selected := []Result{remaining[best]}
	remaining = append(remaining[:best], remaining[best+1:]...)

	for len(remaining) > 0 && len(selected) < mmrMaxSelected {
		bestScore := math.Inf(-1)
		bestIndex := -1

		for i, cand := range remaining {
			maxSim := math.Inf(-1)
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.Chunk.Embedding, sel.Chunk.Embedding); sim > maxSim {
					maxSim = sim
				}
			}

			score := lambda*cand.Score - (1-lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIndex = i
			}
		}

		if bestIndex < 0 {
			break
		}
		selected = append(selected, remaining[bestIndex])
		remaining = append(remaining[:bestIndex], remaining[bestIndex+1:]...)
	}

	return selected
}

// cosineSimilarity returns 0 for vectors of mismatched length or zero norm
// rather than faulting on malformed embeddings.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
