package rag

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
)

// Reranker is the cross-encoder boundary; EarlyExitLayer lets a document
// report which layer it exited scoring at (the ExitLayer
// `reranker_early_exit_layer`).
type Reranker interface {
	// Rerank scores each document against query, returning one score per
	// document in the same order. exitLayers[i] is -1 when the
	// implementation does not support early exit.
	Rerank(ctx context.Context, query string, documents []string) (scores []float64, exitLayers []int, err error)
}

// SimpleScorer is the lexical-overlap fallback reranker used when no
// cross-encoder is wired. Score is token-overlap / union size.
type SimpleScorer struct{}

func (SimpleScorer) Rerank(ctx context.Context, query string, documents []string) ([]float64, []int, error) {
	qTokens := tokenSet(query)
	scores := make([]float64, len(documents))
	exits := make([]int, len(documents))
	for i, d := range documents {
		dTokens := tokenSet(d)
		scores[i] = jaccard(qTokens, dTokens)
		exits[i] = -1
	}
	return scores, exits, nil
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Config controls the hybrid retriever's tuning.
type Config struct {
	DenseTopK        int
	SparseTopK       int
	RRFK             float64
	DenseWeight      float64
	RerankingEnabled bool
	MinScore         float64
	FinalTopK        int

	PrefetchConfidenceThreshold float64
	PrefetchTopK                int
}

// DefaultConfig returns the standard retriever tuning.
func DefaultConfig() Config {
	return Config{
		DenseTopK:        20,
		SparseTopK:       20,
		RRFK:             60,
		DenseWeight:      0.6,
		RerankingEnabled: true,
		MinScore:         0,
		FinalTopK:        5,

		PrefetchConfidenceThreshold: 0.7,
		PrefetchTopK:                3,
	}
}

// Retriever is the hybrid dense+sparse retriever with RRF fusion and
// cross-encoder reranking.
type Retriever struct {
	cfg      Config
	dense    VectorStore
	sparse   SparseStore
	embedder Embedder
	reranker Reranker
	pool     *bus.BlockingPool
}

// New constructs a Retriever. reranker may be nil, in which case
// SimpleScorer is used as the fallback. Embedding inference
// and sparse index lookups are dispatched through a dedicated blocking pool
// rather than inline on the caller's goroutine.
func New(cfg Config, dense VectorStore, sparse SparseStore, embedder Embedder, reranker Reranker) *Retriever {
	if reranker == nil {
		reranker = SimpleScorer{}
	}
	return &Retriever{cfg: cfg, dense: dense, sparse: sparse, embedder: embedder, reranker: reranker, pool: bus.NewBlockingPool(bus.DefaultBlockingPoolCapacity)}
}

// Search runs parallel dense+sparse search, RRF
// fusion, optional rerank, min-score filter, top-k truncation.
func (r *Retriever) Search(ctx context.Context, query string, filter map[string]string) ([]Result, error) {
	var denseResults, sparseResults []Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.Do(gctx, func() error {
			embedding, err := r.embedder.Embed(gctx, query)
			if err != nil {
				return err
			}
			res, err := r.dense.Search(gctx, embedding, r.cfg.DenseTopK, filter)
			if err != nil {
				return err
			}
			denseResults = res
			return nil
		})
	})
	g.Go(func() error {
		return r.pool.Do(gctx, func() error {
			res, err := r.sparse.Search(gctx, query, r.cfg.SparseTopK)
			if err != nil {
				return err
			}
			sparseResults = res
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := r.rrfFusion(denseResults, sparseResults)

	final := fused
	if r.cfg.RerankingEnabled {
		var err error
		final, err = r.rerank(ctx, query, fused)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Result, 0, len(final))
	for _, res := range final {
		if res.Score >= r.cfg.MinScore {
			out = append(out, res)
		}
	}
	if r.cfg.FinalTopK > 0 && len(out) > r.cfg.FinalTopK {
		out = out[:r.cfg.FinalTopK]
	}
	return out, nil
}

// rrfFusion implements Reciprocal Rank Fusion. For each
// result at 0-based rank r, contribute 1/(rrf_k + r + 1) weighted by
// dense_weight (dense side) or 1-dense_weight (sparse side). An id that
// appears on both sides is tagged Hybrid.
func (r *Retriever) rrfFusion(dense, sparse []Result) []Result {
	type entry struct {
		result     Result
		score      float64
		fromDense  bool
		fromSparse bool
	}
	byID := make(map[string]*entry)
	var order []string

	addSide := func(results []Result, weight float64, isDense bool) {
		for rank, res := range results {
			rrfScore := 1.0 / (r.cfg.RRFK + float64(rank) + 1.0)
			weighted := rrfScore * weight
			e, ok := byID[res.ID]
			if !ok {
				e = &entry{result: res}
				byID[res.ID] = e
				order = append(order, res.ID)
			}
			e.score += weighted
			if isDense {
				e.fromDense = true
			} else {
				e.fromSparse = true
			}
		}
	}

	addSide(dense, r.cfg.DenseWeight, true)
	addSide(sparse, 1-r.cfg.DenseWeight, false)

	out := make([]Result, 0, len(order))
	for _, id := range order {
		e := byID[id]
		res := e.result
		res.Score = e.score
		if e.fromDense && e.fromSparse {
			res.Source = SourceHybrid
		} else if e.fromDense {
			res.Source = SourceDense
		} else {
			res.Source = SourceSparse
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// rerank blends scores: final = 0.3*fused + 0.7*rerank.
func (r *Retriever) rerank(ctx context.Context, query string, fused []Result) ([]Result, error) {
	if len(fused) == 0 {
		return fused, nil
	}
	docs := make([]string, len(fused))
	for i, res := range fused {
		docs[i] = res.Text
	}
	scores, exitLayers, err := r.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(fused))
	for i, res := range fused {
		combined := 0.3*res.Score + 0.7*scores[i]
		res.Score = combined
		if exitLayers[i] >= 0 {
			res.RerankExitLayer = exitLayers[i]
			res.HasExitLayer = true
		}
		out[i] = res
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "of": {}, "to": {}, "in": {},
	"for": {}, "and": {}, "or": {}, "what": {}, "how": {}, "do": {}, "does": {},
	"kya": {}, "hai": {}, "hain": {}, "ka": {}, "ki": {}, "ke": {}, "se": {},
}

// Prefetch speculatively searches given a partial transcript and
// its confidence, returns early (empty) if confidence is below threshold;
// otherwise extracts up to 5 non-stopword keywords (length > 2), embeds
// the joined string, and does a dense-only search scaled by confidence.
func (r *Retriever) Prefetch(ctx context.Context, partialTranscript string, confidence float64) ([]Result, error) {
	if confidence < r.cfg.PrefetchConfidenceThreshold {
		return nil, nil
	}
	var keywords []string
	for _, tok := range strings.Fields(strings.ToLower(partialTranscript)) {
		tok = strings.Trim(tok, ".,?!।॥")
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == 5 {
			break
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}
	var embedding []float32
	var results []Result
	err := r.pool.Do(ctx, func() error {
		var err error
		embedding, err = r.embedder.Embed(ctx, strings.Join(keywords, " "))
		if err != nil {
			return err
		}
		results, err = r.dense.Search(ctx, embedding, r.cfg.PrefetchTopK, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Score *= confidence
	}
	return results, nil
}
