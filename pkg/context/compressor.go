// Package context implements the conversation-history context
// compressor: a bounded FIFO recency window plus summarization of older
// turns, token-budgeted.
package context

import (
	"context"
	"strings"
)

// Turn is one conversation turn to be compressed.
type Turn struct {
	Role      string
	Content   string
	Timestamp string
}

// EstimateTokens approximates token count: rune count / 2 when Devanagari
// runes are more than 1/3 of all runes, else / 4 (rounded up). Non-negative.
// It is non-decreasing only while the divisor stays the same: appending
// Latin text can drop the Devanagari share below 1/3 and lower the estimate.
func EstimateTokens(text string) int {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	devanagari := 0
	for _, r := range runes {
		if r >= 0x0900 && r <= 0x097F {
			devanagari++
		}
	}
	divisor := 4
	if float64(devanagari)/float64(len(runes)) > 1.0/3.0 {
		divisor = 2
	}
	n := (len(runes) + divisor - 1) / divisor
	return n
}

// Summarizer summarizes text into at most maxTokens tokens. Implementations
// may be LLM-backed or rule-based.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxTokens int) (string, error)
}

// RuleBasedSummarizer extracts name/amount/collateral-weight patterns
// without an LLM.
type RuleBasedSummarizer struct{}

var extractionPatterns = []struct {
	label      string
	patterns   []string
	wordsAfter int
}{
	{"Customer", []string{"my name is", "i am", "this is"}, 3},
	{"Amount discussed", []string{"lakh", "crore", "rupees", "₹"}, 4},
	{"Collateral", []string{"gram", "gm", "kg", "tola"}, 3},
}

func (RuleBasedSummarizer) Summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	lower := strings.ToLower(text)
	var parts []string
	for _, p := range extractionPatterns {
		if v, ok := extractAfterPattern(text, lower, p.patterns, p.wordsAfter); ok {
			parts = append(parts, p.label+": "+v)
		}
	}
	if len(parts) == 0 {
		return smartTruncate(text, maxTokens), nil
	}
	return smartTruncate("Previously discussed: "+strings.Join(parts, "; "), maxTokens), nil
}

func extractAfterPattern(text, lowerText string, patterns []string, wordsAfter int) (string, bool) {
	for _, pattern := range patterns {
		idx := strings.Index(lowerText, pattern)
		if idx < 0 {
			continue
		}
		remaining := text[idx+len(pattern):]
		words := strings.Fields(remaining)
		if len(words) == 0 {
			continue
		}
		if len(words) > wordsAfter {
			words = words[:wordsAfter]
		}
		return strings.Join(words, " "), true
	}
	return "", false
}

func smartTruncate(text string, maxTokens int) string {
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	truncated := text[:maxChars]
	if idx := strings.LastIndexAny(truncated, ".?!"); idx >= 0 {
		return truncated[:idx+1]
	}
	if idx := strings.LastIndex(truncated, ","); idx >= 0 {
		return truncated[:idx+1]
	}
	return truncated
}

// Config controls compression tuning.
type Config struct {
	RecencyWindow    int
	MaxSummaryTokens int
}

// DefaultConfig returns the standard compressor tuning.
func DefaultConfig() Config {
	return Config{RecencyWindow: 4, MaxSummaryTokens: 200}
}

// Compressed is the result of one Compress call.
type Compressed struct {
	Text            string
	SummarizedTurns int
	IntactTurns     int
	EstimatedTokens int
}

// Compressor compresses conversation history to a token budget.
type Compressor struct {
	cfg        Config
	summarizer Summarizer
}

// New constructs a Compressor. summarizer may be nil, defaulting to
// RuleBasedSummarizer.
func New(cfg Config, summarizer Summarizer) *Compressor {
	if summarizer == nil {
		summarizer = RuleBasedSummarizer{}
	}
	return &Compressor{cfg: cfg, summarizer: summarizer}
}

func turnTokens(t Turn) int { return EstimateTokens(t.Content) + 2 }

func joinVerbatim(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}

// Compress bounds history: if total tokens fit the budget, return turns
// verbatim; else keep the last RecencyWindow turns intact and summarize the
// rest into the remaining budget (bounded by MaxSummaryTokens).
func (c *Compressor) Compress(ctx context.Context, turns []Turn, budgetTokens int) (Compressed, error) {
	if len(turns) == 0 {
		return Compressed{}, nil
	}

	total := 0
	for _, t := range turns {
		total += turnTokens(t)
	}
	if total <= budgetTokens {
		text := joinVerbatim(turns)
		return Compressed{Text: text, IntactTurns: len(turns), EstimatedTokens: EstimateTokens(text)}, nil
	}

	recencyWindow := c.cfg.RecencyWindow
	if recencyWindow > len(turns) {
		recencyWindow = len(turns)
	}
	recent := turns[len(turns)-recencyWindow:]
	older := turns[:len(turns)-recencyWindow]

	recentTokens := 0
	for _, t := range recent {
		recentTokens += turnTokens(t)
	}

	summaryBudget := budgetTokens - recentTokens
	if summaryBudget > c.cfg.MaxSummaryTokens {
		summaryBudget = c.cfg.MaxSummaryTokens
	}
	if summaryBudget < 0 {
		summaryBudget = 0
	}

	var summary string
	if len(older) > 0 {
		olderText := joinVerbatim(older)
		var err error
		summary, err = c.summarizer.Summarize(ctx, olderText, summaryBudget)
		if err != nil {
			return Compressed{}, err
		}
	}

	var sb strings.Builder
	if summary != "" {
		sb.WriteString("[Summary of earlier conversation]\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("[Recent conversation]\n")
	sb.WriteString(joinVerbatim(recent))

	text := sb.String()
	return Compressed{
		Text:            text,
		SummarizedTurns: len(older),
		IntactTurns:     len(recent),
		EstimatedTokens: EstimateTokens(text),
	}, nil
}
