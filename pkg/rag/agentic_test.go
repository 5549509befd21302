package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRewriter struct{ rewritten string }

func (s stubRewriter) Rewrite(ctx context.Context, query, conversationContext string) (string, error) {
	return s.rewritten, nil
}

// stubReranker scores each document by a fixed relevance keyed on its text.
type stubReranker map[string]float64

func (s stubReranker) Rerank(ctx context.Context, query string, documents []string) ([]float64, []int, error) {
	scores := make([]float64, len(documents))
	exits := make([]int, len(documents))
	for i, d := range documents {
		scores[i] = s[d]
		exits[i] = -1
	}
	return scores, exits, nil
}

// newTestRetriever indexes one document per id (text = id) and reranks
// each with docs[id] as its relevance, so final scores follow docs.
func newTestRetriever(docs map[string]float32) *Retriever {
	store := NewInMemoryStore()
	relevance := stubReranker{}
	for id := range docs {
		store.Add(id, id, []float32{docs[id]}, nil)
		relevance[id] = float64(docs[id])
	}
	return New(DefaultConfig(), store, stubSparse{}, stubEmbedder{vec: []float32{1}}, relevance)
}

func TestAgenticSearchReturnsEarlyWhenSufficient(t *testing.T) {
	r := newTestRetriever(map[string]float32{"a": 1, "b": 0.95, "c": 0.9})
	ar := NewAgenticRetriever(DefaultAgenticConfig(), r, nil, stubRewriter{rewritten: "should not be used"}, nil)

	res, err := ar.Search(context.Background(), "query", "", nil)
	require.NoError(t, err)
	assert.False(t, res.QueryRewritten)
	assert.Equal(t, 1, res.Iterations)
	assert.GreaterOrEqual(t, res.SufficiencyScore, DefaultAgenticConfig().SufficiencyThreshold)
}

func TestAgenticSearchRewritesWhenInsufficient(t *testing.T) {
	store := NewInMemoryStore() // empty store -> zero results -> sufficiency 0
	cfg := DefaultConfig()
	cfg.RerankingEnabled = false
	r := New(cfg, store, stubSparse{}, stubEmbedder{vec: []float32{1}}, nil)

	acfg := DefaultAgenticConfig()
	acfg.MaxIterations = 2
	ar := NewAgenticRetriever(acfg, r, nil, stubRewriter{rewritten: "rewritten query"}, nil)

	res, err := ar.Search(context.Background(), "original query", "", nil)
	require.NoError(t, err)
	assert.True(t, res.QueryRewritten)
	assert.Equal(t, "rewritten query", res.FinalQuery)
	assert.Equal(t, 3, res.Iterations) // initial + 2 rewrites
}

func TestSmallModelPresetDisablesIterationAndRewriting(t *testing.T) {
	cfg := SmallModelPreset()
	assert.Equal(t, 0, cfg.MaxIterations)
	assert.False(t, cfg.LLMRewritingEnabled)
}

func TestSufficiencyScoreEmptyResults(t *testing.T) {
	ar := NewAgenticRetriever(DefaultAgenticConfig(), nil, nil, nil, nil)
	assert.Equal(t, 0.0, ar.sufficiencyScore(nil))
}
