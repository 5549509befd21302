package rag

import "context"

// QueryRewriter asks an LLM to rewrite a query given conversation context
//. Kept as a narrow interface so pkg/rag never imports
// pkg/llm directly.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string, conversationContext string) (string, error)
}

// AgenticConfig controls the multi-step refinement loop.
type AgenticConfig struct {
	SufficiencyThreshold float64
	MaxIterations        int
	LLMRewritingEnabled  bool
	MinAvgScore          float64
}

// DefaultAgenticConfig returns the standard refinement tuning.
func DefaultAgenticConfig() AgenticConfig {
	return AgenticConfig{
		SufficiencyThreshold: 0.7,
		MaxIterations:        3,
		LLMRewritingEnabled:  true,
		MinAvgScore:          0.5,
	}
}

// SmallModelPreset disables LLM rewriting and sets iterations to zero,
// for backends too small to rewrite queries usefully.
func SmallModelPreset() AgenticConfig {
	cfg := DefaultAgenticConfig()
	cfg.MaxIterations = 0
	cfg.LLMRewritingEnabled = false
	return cfg
}

// AgenticResult is the outcome of one Search call.
type AgenticResult struct {
	Results          []Result
	Iterations       int
	QueryRewritten   bool
	FinalQuery       string
	SufficiencyScore float64
}

// AgenticRetriever layers multi-step query refinement on top of a
// Retriever.
type AgenticRetriever struct {
	cfg        AgenticConfig
	retriever  *Retriever
	normalizer *Normalizer
	rewriter   QueryRewriter
	expander   SynonymExpander
}

// SynonymExpander performs rule-based query expansion: adds
// synonyms and Hindi<->Roman transliterations from a domain dictionary,
// weighting originals highest. Returning the original query unexpanded is
// valid when no domain dictionary is wired.
type SynonymExpander interface {
	Expand(query string) string
}

// noopExpander returns the query unchanged.
type noopExpander struct{}

func (noopExpander) Expand(query string) string { return query }

// NewAgenticRetriever constructs an AgenticRetriever. rewriter may be nil
// (LLM rewriting is then force-disabled); expander may be nil (no rule-based
// expansion).
func NewAgenticRetriever(cfg AgenticConfig, retriever *Retriever, normalizer *Normalizer, rewriter QueryRewriter, expander SynonymExpander) *AgenticRetriever {
	if expander == nil {
		expander = noopExpander{}
	}
	if rewriter == nil {
		cfg.LLMRewritingEnabled = false
	}
	return &AgenticRetriever{cfg: cfg, retriever: retriever, normalizer: normalizer, rewriter: rewriter, expander: expander}
}

// Search runs the multi-step refinement loop.
func (a *AgenticRetriever) Search(ctx context.Context, query string, conversationContext string, filter map[string]string) (AgenticResult, error) {
	expanded := a.expander.Expand(query)
	if a.normalizer != nil {
		expanded = a.normalizer.NormalizeForSearch(expanded)
	}

	results, err := a.retriever.Search(ctx, expanded, filter)
	if err != nil {
		return AgenticResult{}, err
	}

	sufficiency := a.sufficiencyScore(results)
	iterations := 1
	rewritten := false
	finalQuery := expanded

	for sufficiency < a.cfg.SufficiencyThreshold && a.cfg.LLMRewritingEnabled && iterations <= a.cfg.MaxIterations {
		rewrittenQuery, err := a.rewriter.Rewrite(ctx, finalQuery, conversationContext)
		if err != nil {
			break
		}
		rewritten = true
		finalQuery = rewrittenQuery
		results, err = a.retriever.Search(ctx, finalQuery, filter)
		if err != nil {
			return AgenticResult{}, err
		}
		sufficiency = a.sufficiencyScore(results)
		iterations++
	}

	return AgenticResult{
		Results:          results,
		Iterations:       iterations,
		QueryRewritten:   rewritten,
		FinalQuery:       finalQuery,
		SufficiencyScore: sufficiency,
	}, nil
}

// sufficiencyScore computes, over the top-3 results, a
// cheap heuristic gauge of retrieval adequacy.
func (a *AgenticRetriever) sufficiencyScore(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	top := results
	if len(top) > 3 {
		top = top[:3]
	}

	var sum, max, min float64
	min = top[0].Score
	for _, r := range top {
		sum += r.Score
		if r.Score > max {
			max = r.Score
		}
		if r.Score < min {
			min = r.Score
		}
	}
	mean := sum / float64(len(top))

	if mean < a.cfg.MinAvgScore {
		return mean / a.cfg.MinAvgScore * 0.5
	}

	score := mean
	if score > 1 {
		score = 1
	}
	if max-min < 0.2 {
		score += 0.1
	}
	return score
}
