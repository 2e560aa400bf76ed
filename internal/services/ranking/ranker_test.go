package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		a      []float32
		b      []float32
		want   float64
		margin float64
	}{
		{
			name:   "identical vectors",
			a:      []float32{1, 2, 3},
			b:      []float32{1, 2, 3},
			want:   1.0,
			margin: 1e-9,
		},
		{
			name:   "opposite vectors",
			a:      []float32{1, 0},
			b:      []float32{-1, 0},
			want:   -1.0,
			margin: 1e-9,
		},
		{
			name:   "orthogonal vectors",
			a:      []float32{1, 0},
			b:      []float32{0, 1},
			want:   0,
			margin: 1e-9,
		},
		{
			name:   "zero vector yields zero not NaN",
			a:      []float32{0, 0, 0},
			b:      []float32{1, 2, 3},
			want:   0,
			margin: 0,
		},
		{
			name:   "both zero vectors",
			a:      []float32{0, 0},
			b:      []float32{0, 0},
			want:   0,
			margin: 0,
		},
		{
			name:   "length mismatch yields zero",
			a:      []float32{1, 2},
			b:      []float32{1, 2, 3},
			want:   0,
			margin: 0,
		},
		{
			name:   "empty vectors yield zero",
			a:      nil,
			b:      nil,
			want:   0,
			margin: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			require.False(t, math.IsNaN(got), "similarity must never be NaN")
			assert.InDelta(t, tt.want, got, tt.margin)
		})
	}
}

func TestRank_OrdersByDescendingSimilarity(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Text: "weak", Vector: []float32{0.1, 0.995}},
		{Text: "strong", Vector: []float32{0.9, 0.1}},
		{Text: "medium", Vector: []float32{0.5, 0.5}},
	}

	ranked := Rank(query, candidates, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "strong", ranked[0].Text)
	assert.Equal(t, "medium", ranked[1].Text)
	assert.Equal(t, "weak", ranked[2].Text)
}

func TestRank_TopKLimitsResults(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Text: "a", Vector: []float32{1, 0}},
		{Text: "b", Vector: []float32{0.5, 0.5}},
		{Text: "c", Vector: []float32{0, 1}},
	}

	ranked := Rank(query, candidates, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Text)
	assert.Equal(t, "b", ranked[1].Text)
}

func TestRank_TopKLargerThanCandidates(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Text: "only", Vector: []float32{1, 0}},
	}

	ranked := Rank(query, candidates, 10)

	assert.Len(t, ranked, 1)
}

func TestRank_EmptyAndNonPositiveTopK(t *testing.T) {
	query := []float32{1, 0}

	assert.Nil(t, Rank(query, nil, 3))
	assert.Nil(t, Rank(query, []Candidate{{Text: "a", Vector: []float32{1, 0}}}, 0))
	assert.Nil(t, Rank(query, []Candidate{{Text: "a", Vector: []float32{1, 0}}}, -1))
}

func TestRank_StableTies(t *testing.T) {
	query := []float32{1, 0}
	// Identical vectors tie exactly; insertion order must be preserved.
	candidates := []Candidate{
		{Text: "first", Vector: []float32{1, 1}},
		{Text: "second", Vector: []float32{1, 1}},
		{Text: "third", Vector: []float32{1, 1}},
	}

	ranked := Rank(query, candidates, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Text)
	assert.Equal(t, "second", ranked[1].Text)
	assert.Equal(t, "third", ranked[2].Text)
}

func TestRank_ZeroVectorCandidateRanksLast(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Text: "zero", Vector: []float32{0, 0}},
		{Text: "aligned", Vector: []float32{2, 0}},
	}

	ranked := Rank(query, candidates, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "aligned", ranked[0].Text)
	assert.Equal(t, "zero", ranked[1].Text)
}
