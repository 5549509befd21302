// Package stt implements the streaming CTC-style beam-search decoder:
// per-frame log-probability scoring, word-piece text assembly, entity and
// code-switch boosting, and stability-window gated partial emission.
package stt

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Language is the script tag inferred from the most recently appended
// token's text.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageEnglish
	LanguageDevanagari
	LanguageMixed
)

func (l Language) String() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageDevanagari:
		return "Devanagari"
	case LanguageMixed:
		return "Mixed"
	}
	return "Unknown"
}

// classifyScript tags a text piece by the scripts its runes belong to.
func classifyScript(piece string) Language {
	var hasLatin, hasDevanagari bool
	for _, r := range piece {
		switch {
		case r >= 0x0900 && r <= 0x097F:
			hasDevanagari = true
		case unicode.IsLetter(r) && r < 0x0250:
			hasLatin = true
		}
	}
	switch {
	case hasLatin && hasDevanagari:
		return LanguageMixed
	case hasDevanagari:
		return LanguageDevanagari
	case hasLatin:
		return LanguageEnglish
	}
	return LanguageUnknown
}

// Hypothesis is one beam-search candidate.
type Hypothesis struct {
	Tokens           []int
	Text             string
	LogProb          float64
	Language         Language
	LastToken        int
	HasLastToken     bool
	StabilityCounter int
}

func (h Hypothesis) clone() Hypothesis {
	tokens := make([]int, len(h.Tokens))
	copy(tokens, h.Tokens)
	h.Tokens = tokens
	return h
}

// Config controls beam search width and scoring knobs.
type Config struct {
	Width             int     // B, default 10
	BlankID           int
	Entities          []string
	StabilityWindow   int
	CodeSwitchProb    float64
	EntityBoost       float64 // full entity-string suffix match
	PartialEntity     float64 // partial-word entity match
	CodeSwitchBoost   float64
	CodeSwitchPenalty float64
}

// DefaultConfig returns the standard beam-search parameters.
func DefaultConfig() Config {
	return Config{
		Width:             10,
		StabilityWindow:   5,
		CodeSwitchProb:    0.5,
		EntityBoost:       0.5,
		PartialEntity:     0.2,
		CodeSwitchBoost:   0.1,
		CodeSwitchPenalty: -0.2,
	}
}

// TokenScore is one candidate token's log-probability for a frame.
type TokenScore struct {
	TokenID int
	LogProb float64
}

// Decoder is the stateful streaming beam-search decoder.
type Decoder struct {
	mu sync.Mutex

	cfg   Config
	vocab Vocab

	beam []Hypothesis

	ring              []int
	ringFilled        []bool
	ringPos           int
	stablePrefixRunes int
}

// New constructs a Decoder over vocab with cfg.
func New(cfg Config, vocab Vocab) *Decoder {
	if cfg.Width <= 0 {
		cfg.Width = 10
	}
	if cfg.StabilityWindow <= 0 {
		cfg.StabilityWindow = 5
	}
	return &Decoder{
		cfg:        cfg,
		vocab:      vocab,
		beam:       []Hypothesis{{}},
		ring:       make([]int, cfg.StabilityWindow),
		ringFilled: make([]bool, cfg.StabilityWindow),
	}
}

// ProcessFrame scores one frame's token log-probabilities, expands the beam,
// and returns a partial transcript delta if the stability window just
// agreed on a token. An empty string means no
// partial was released this frame.
func (d *Decoder) ProcessFrame(scores []TokenScore) (partial string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	topK := topKScores(scores, 2*d.cfg.Width)
	normalized := logNormalize(topK)

	var next []Hypothesis
	for _, h := range d.beam {
		for _, c := range normalized {
			next = append(next, d.expand(h, c))
		}
	}
	next = sortAndTruncate(next, d.cfg.Width)
	d.beam = next

	if len(d.beam) == 0 {
		return "", false
	}
	best := d.beam[0]

	lastTok := -1
	if best.HasLastToken {
		lastTok = best.LastToken
	}
	d.pushRing(lastTok)

	if !d.ringAgrees() {
		return "", false
	}
	return d.emitStableDelta(best), true
}

func (d *Decoder) expand(h Hypothesis, c TokenScore) Hypothesis {
	out := h.clone()
	out.LogProb += c.LogProb

	isBlank := c.TokenID == d.cfg.BlankID
	isRepeat := h.HasLastToken && c.TokenID == h.LastToken
	if isBlank || isRepeat {
		out.LastToken = c.TokenID
		out.HasLastToken = true
		return out
	}

	piece := d.vocab.Text(c.TokenID)
	out.Text = appendPiece(out.Text, piece)
	out.Tokens = append(out.Tokens, c.TokenID)
	out.LastToken = c.TokenID
	out.HasLastToken = true

	newLang := classifyScript(piece)
	if newLang == LanguageUnknown {
		newLang = h.Language
	}

	if hasEntitySuffix(out.Text, d.cfg.Entities) {
		out.LogProb += d.cfg.EntityBoost
	} else if hasPartialEntitySuffix(out.Text, d.cfg.Entities) {
		out.LogProb += d.cfg.PartialEntity
	}

	if h.Language != LanguageUnknown && newLang != LanguageUnknown && newLang != h.Language {
		if d.cfg.CodeSwitchProb > 0.5 {
			out.LogProb += d.cfg.CodeSwitchBoost
		} else {
			out.LogProb += d.cfg.CodeSwitchPenalty
		}
	}
	out.Language = newLang
	return out
}

// appendPiece implements the word-piece join rule.
func appendPiece(text, piece string) string {
	switch {
	case strings.HasPrefix(piece, "##"):
		return text + piece[2:]
	case strings.HasPrefix(piece, "▁"):
		word := piece[len("▁"):]
		if text == "" {
			return word
		}
		return text + " " + word
	default:
		return text + piece
	}
}

func hasEntitySuffix(text string, entities []string) bool {
	for _, e := range entities {
		if e != "" && strings.HasSuffix(text, e) {
			return true
		}
	}
	return false
}

func hasPartialEntitySuffix(text string, entities []string) bool {
	for _, e := range entities {
		for i := 1; i < len(e); i++ {
			if strings.HasSuffix(text, e[:i]) {
				return true
			}
		}
	}
	return false
}

func topKScores(scores []TokenScore, k int) []TokenScore {
	sorted := make([]TokenScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LogProb > sorted[j].LogProb })
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

func logNormalize(scores []TokenScore) []TokenScore {
	if len(scores) == 0 {
		return scores
	}
	max := scores[0].LogProb
	for _, s := range scores {
		if s.LogProb > max {
			max = s.LogProb
		}
	}
	var sumExp float64
	for _, s := range scores {
		sumExp += math.Exp(s.LogProb - max)
	}
	logSum := max + math.Log(sumExp)
	out := make([]TokenScore, len(scores))
	for i, s := range scores {
		out[i] = TokenScore{TokenID: s.TokenID, LogProb: s.LogProb - logSum}
	}
	return out
}

// sortAndTruncate sorts descending by score, NaN-safe (NaN compares equal
// to anything, never panics/reorders unpredictably), and truncates to width.
func sortAndTruncate(hyps []Hypothesis, width int) []Hypothesis {
	sort.SliceStable(hyps, func(i, j int) bool {
		a, b := hyps[i].LogProb, hyps[j].LogProb
		if math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		return a > b
	})
	if width < len(hyps) {
		hyps = hyps[:width]
	}
	return hyps
}

func (d *Decoder) pushRing(token int) {
	d.ring[d.ringPos] = token
	d.ringFilled[d.ringPos] = true
	d.ringPos = (d.ringPos + 1) % len(d.ring)
}

func (d *Decoder) ringAgrees() bool {
	first := d.ring[0]
	for i, filled := range d.ringFilled {
		if !filled {
			return false
		}
		if d.ring[i] != first {
			return false
		}
	}
	return true
}

// emitStableDelta finds the last grapheme-space boundary in best.Text beyond
// the previously emitted stable prefix and returns the new characters.
// Operates in rune (grapheme-approximating) space to stay UTF-8 safe.
func (d *Decoder) emitStableDelta(best Hypothesis) string {
	runes := []rune(best.Text)
	if d.stablePrefixRunes >= len(runes) {
		return ""
	}
	boundary := lastSpaceBoundary(runes)
	if boundary <= d.stablePrefixRunes {
		return ""
	}
	delta := string(runes[d.stablePrefixRunes:boundary])
	d.stablePrefixRunes = boundary
	return delta
}

func lastSpaceBoundary(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return 0
}

// Finalize returns the full text of the top hypothesis on end-of-stream.
func (d *Decoder) Finalize() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.beam) == 0 {
		return ""
	}
	return d.beam[0].Text
}

// Reset clears the beam, stable prefix, and stability history.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beam = []Hypothesis{{}}
	d.stablePrefixRunes = 0
	d.ring = make([]int, d.cfg.StabilityWindow)
	d.ringFilled = make([]bool, d.cfg.StabilityWindow)
	d.ringPos = 0
}
