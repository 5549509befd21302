// Package tts implements the streaming TTS chunker and engine loop:
// text is segmented into minimal synthesizable units, each is synthesized
// through a pluggable backend, and the stream can be cut short on barge-in.
package tts

import (
	"strings"
	"unicode"
)

// Strategy selects how the chunker segments pushed text.
type Strategy string

const (
	StrategyAdaptive  Strategy = "adaptive"
	StrategyWordCount Strategy = "word_count"
	StrategyPhrase    Strategy = "phrase"
)

// Chunk is one minimal synthesizable text unit.
type Chunk struct {
	Text        string
	WordIndices [2]int // [start, end) word index range this chunk covers
	IsFinal     bool
}

// ChunkerConfig tunes segmentation.
type ChunkerConfig struct {
	Strategy      Strategy
	WordsPerChunk int // used by StrategyWordCount and as the adaptive ceiling
	MinWords      int // adaptive strategy will not emit a chunk shorter than this unless flushing
}

// DefaultChunkerConfig matches typical TTS backend latency/quality tradeoffs.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{Strategy: StrategyAdaptive, WordsPerChunk: 12, MinWords: 4}
}

var phraseBoundary = map[rune]bool{',': true, ';': true, ':': true}
var sentenceBoundary = map[rune]bool{'.': true, '?': true, '!': true, '।': true, '॥': true}

// Chunker buffers pushed text and yields Chunks on demand.
type Chunker struct {
	cfg       ChunkerConfig
	words     []string
	wordIndex int  // index of the next unconsumed word in words
	done      bool // Push will not be called again; last chunk should carry IsFinal
}

// NewChunker constructs a Chunker with cfg.
func NewChunker(cfg ChunkerConfig) *Chunker {
	return &Chunker{cfg: cfg}
}

// Reset clears buffered words and word-index state.
func (c *Chunker) Reset() {
	c.words = nil
	c.wordIndex = 0
	c.done = false
}

// Push appends text to the buffer, to be segmented by subsequent Next calls.
func (c *Chunker) Push(text string) {
	c.words = append(c.words, strings.Fields(text)...)
}

// Finish marks that no more text will be pushed; the final Next call drains
// all remaining words as one last chunk with IsFinal set.
func (c *Chunker) Finish() { c.done = true }

// Drained reports whether all buffered words have been consumed and no more
// text is expected.
func (c *Chunker) Drained() bool {
	return c.wordIndex >= len(c.words) && c.done
}

// Next returns the next chunk, or ok=false if no chunk is currently
// available (more text must be pushed, or the chunker is drained).
func (c *Chunker) Next() (Chunk, bool) {
	if c.wordIndex >= len(c.words) {
		return Chunk{}, false
	}

	end, ok := c.findBoundary()
	if !ok {
		return Chunk{}, false
	}
	isFinal := c.done && end >= len(c.words)
	words := c.words[c.wordIndex:end]
	chunk := Chunk{
		Text:        strings.Join(words, " "),
		WordIndices: [2]int{c.wordIndex, end},
		IsFinal:     isFinal,
	}
	c.wordIndex = end
	return chunk, true
}

// findBoundary picks the end index (exclusive) of the next chunk according
// to the configured strategy. ok is false when no chunk can be emitted yet
// and the caller must push more text (or call Finish) first.
func (c *Chunker) findBoundary() (int, bool) {
	remaining := len(c.words) - c.wordIndex
	switch c.cfg.Strategy {
	case StrategyWordCount:
		n := c.cfg.WordsPerChunk
		if n <= 0 || n > remaining {
			if !c.done {
				return 0, false
			}
			n = remaining
		}
		return c.wordIndex + n, true
	case StrategyPhrase:
		if end, ok := c.scanForTerminators(phraseBoundary, sentenceBoundary); ok {
			return end, true
		}
		if c.done {
			return len(c.words), true
		}
		return 0, false
	default: // StrategyAdaptive
		if end, ok := c.scanForTerminators(sentenceBoundary, phraseBoundary); ok && (c.done || end-c.wordIndex >= c.cfg.MinWords) {
			return end, true
		}
		ceiling := c.cfg.WordsPerChunk
		if ceiling <= 0 {
			ceiling = remaining
		}
		if remaining >= ceiling {
			return c.wordIndex + ceiling, true
		}
		if c.done {
			return len(c.words), true
		}
		return 0, false
	}
}

// scanForTerminators looks for the first word ending in a primary (or,
// failing that, secondary) boundary rune, and returns the word index just
// past it.
func (c *Chunker) scanForTerminators(primary, secondary map[rune]bool) (int, bool) {
	for i := c.wordIndex; i < len(c.words); i++ {
		last := lastRune(c.words[i])
		if primary[last] {
			return i + 1, true
		}
	}
	if !c.done {
		for i := c.wordIndex; i < len(c.words); i++ {
			last := lastRune(c.words[i])
			if secondary[last] {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func lastRune(s string) rune {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	r := runes[len(runes)-1]
	if unicode.IsPunct(r) {
		return r
	}
	return 0
}
