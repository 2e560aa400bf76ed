// Package ranking scores candidate fragments against a query vector by
// cosine similarity.
package ranking

import (
	"math"
	"sort"
)

// Candidate pairs a fragment text with its embedding vector.
type Candidate struct {
	Text   string
	Vector []float32
}

// Rank returns the topK candidates ordered by descending cosine similarity
// to the query vector. The sort is stable: ties keep the original candidate
// order. topK larger than the candidate count returns all candidates ranked;
// topK <= 0 returns nil.
func Rank(query []float32, candidates []Candidate, topK int) []Candidate {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		candidate Candidate
		score     float64
	}

	results := make([]scored, len(candidates))
	for i, c := range candidates {
		results[i] = scored{
			candidate: c,
			score:     CosineSimilarity(query, c.Vector),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}

	ranked := make([]Candidate, topK)
	for i := 0; i < topK; i++ {
		ranked[i] = results[i].candidate
	}
	return ranked
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). If either magnitude
// is zero, or the vectors differ in length, the similarity is defined as 0
// rather than NaN - a zero vector candidate must never poison the ranking.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
