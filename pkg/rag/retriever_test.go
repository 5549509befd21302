package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{ vec []float32 }

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) { return s.vec, nil }

type stubSparse struct{ results []Result }

func (s stubSparse) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	return s.results, nil
}

func TestRRFFusionScenario(t *testing.T) {
	// dense=[(1,0.9),(2,0.8)], sparse=[(2,0.85),(3,0.7)],
	// rrf_k=60, dense_weight=0.6 -> id=2 ranks above id=1 and id=3, Hybrid.
	cfg := DefaultConfig()
	cfg.RRFK = 60
	cfg.DenseWeight = 0.6
	cfg.RerankingEnabled = false
	r := New(cfg, nil, nil, nil, nil)

	dense := []Result{{ID: "1", Score: 0.9}, {ID: "2", Score: 0.8}}
	sparse := []Result{{ID: "2", Score: 0.85}, {ID: "3", Score: 0.7}}

	fused := r.rrfFusion(dense, sparse)
	require.Len(t, fused, 3)

	byID := map[string]Result{}
	for _, res := range fused {
		byID[res.ID] = res
	}
	assert.Equal(t, SourceHybrid, byID["2"].Source)
	assert.Greater(t, byID["2"].Score, byID["1"].Score)
	assert.Greater(t, byID["2"].Score, byID["3"].Score)
}

func TestSearchAppliesRRFAndRerank(t *testing.T) {
	dense := NewInMemoryStore()
	dense.Add("d1", "gold loan interest rate", []float32{1, 0, 0}, nil)
	dense.Add("d2", "unrelated document", []float32{0, 1, 0}, nil)

	cfg := DefaultConfig()
	cfg.FinalTopK = 5
	cfg.MinScore = 0
	r := New(cfg, dense, stubSparse{results: []Result{{ID: "d1", Text: "gold loan interest rate", Score: 0.5}}}, stubEmbedder{vec: []float32{1, 0, 0}}, nil)

	results, err := r.Search(context.Background(), "gold loan interest rate", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "d1", results[0].ID)
	assert.Equal(t, SourceHybrid, results[0].Source)
}

func TestPrefetchBelowConfidenceReturnsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	dense := NewInMemoryStore()
	r := New(cfg, dense, nil, stubEmbedder{vec: []float32{1, 0}}, nil)

	results, err := r.Prefetch(context.Background(), "gold loan rate", 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPrefetchAboveConfidenceScalesScores(t *testing.T) {
	cfg := DefaultConfig()
	dense := NewInMemoryStore()
	dense.Add("d1", "gold loan interest rate", []float32{1, 0}, nil)
	r := New(cfg, dense, nil, stubEmbedder{vec: []float32{1, 0}}, nil)

	results, err := r.Prefetch(context.Background(), "gold loan interest rate please", 0.8)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0*0.8, results[0].Score, 1e-6)
}

func TestInMemoryStoreSearchAppliesFilterAndTopK(t *testing.T) {
	store := NewInMemoryStore()
	store.Add("hi-doc", "hindi content", []float32{1, 0}, map[string]string{"lang": "hi"})
	store.Add("en-doc-1", "english content one", []float32{1, 0}, map[string]string{"lang": "en"})
	store.Add("en-doc-2", "english content two", []float32{0.9, 0.1}, map[string]string{"lang": "en"})

	results, err := store.Search(context.Background(), []float32{1, 0}, 1, map[string]string{"lang": "en"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "en-doc-1", results[0].ID)
}

func TestSimpleScorerMonotonic(t *testing.T) {
	scorer := SimpleScorer{}
	scores, exits, err := scorer.Rerank(context.Background(), "gold loan rate", []string{"gold loan interest rate", "completely unrelated text"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])
	assert.Equal(t, -1, exits[0])
}
