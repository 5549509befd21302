package rag

import "strings"

// Script is the detected script composition of a query.
type Script int

const (
	ScriptLatin Script = iota
	ScriptDevanagari
	ScriptMixed
)

func (s Script) String() string {
	switch s {
	case ScriptLatin:
		return "latin"
	case ScriptDevanagari:
		return "devanagari"
	case ScriptMixed:
		return "mixed"
	}
	return "unknown"
}

// LanguageDetection is the result of scanning a query's script composition.
type LanguageDetection struct {
	PrimaryScript   Script
	DevanagariRatio float64
	LatinRatio      float64
	IsCodeSwitched  bool
}

// DetectLanguage counts Devanagari (U+0900-U+097F) versus ASCII-alphabetic
// characters over total character count and classifies the primary script
//: Devanagari if >70%, Latin if >70%, Mixed if both >10%, else
// leans by the higher ratio.
func DetectLanguage(text string) LanguageDetection {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		total = 1
	}
	var devanagari, latin int
	for _, r := range runes {
		if isDevanagari(r) {
			devanagari++
		} else if isASCIIAlpha(r) {
			latin++
		}
	}
	devRatio := float64(devanagari) / float64(total)
	latRatio := float64(latin) / float64(total)

	var primary Script
	switch {
	case devRatio > 0.7:
		primary = ScriptDevanagari
	case latRatio > 0.7:
		primary = ScriptLatin
	case devRatio > 0.1 && latRatio > 0.1:
		primary = ScriptMixed
	case devRatio > latRatio:
		primary = ScriptDevanagari
	default:
		primary = ScriptLatin
	}

	return LanguageDetection{
		PrimaryScript:   primary,
		DevanagariRatio: devRatio,
		LatinRatio:      latRatio,
		IsCodeSwitched:  devRatio > 0.1 && latRatio > 0.1,
	}
}

func isDevanagari(r rune) bool { return r >= 0x0900 && r <= 0x097F }
func isASCIIAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Dictionary is the bilingual spelling-variant and transliteration
// dictionary a domain loads. The normalizer ships empty by
// default; the domain bridge populates it from config.
type Dictionary struct {
	SpellingVariants  map[string]string // lowercase variant -> standard
	RomanToDevanagari map[string]string
	DevanagariToRoman map[string]string
}

// NewDictionary constructs an empty Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		SpellingVariants:  make(map[string]string),
		RomanToDevanagari: make(map[string]string),
		DevanagariToRoman: make(map[string]string),
	}
}

// NormalizedQuery is the result of normalizing one query.
type NormalizedQuery struct {
	Original         string
	Normalized       string
	Language         LanguageDetection
	Transliterations []string
	WasNormalized    bool
}

// Normalizer applies a Dictionary's spelling-variant and transliteration
// tables to incoming queries.
type Normalizer struct {
	dict *Dictionary
}

func NewNormalizer(dict *Dictionary) *Normalizer {
	if dict == nil {
		dict = NewDictionary()
	}
	return &Normalizer{dict: dict}
}

// Normalize applies the spelling-variant dictionary (on lowercased text),
// then emits Devanagari<->Roman transliterations of known terms depending
// on the detected primary script.
func (n *Normalizer) Normalize(query string) NormalizedQuery {
	lang := DetectLanguage(query)
	normalized := query
	wasNormalized := false

	lower := strings.ToLower(normalized)
	for variant, standard := range n.dict.SpellingVariants {
		if strings.Contains(lower, variant) {
			lower = strings.ReplaceAll(lower, variant, standard)
			normalized = lower
			wasNormalized = true
		}
	}

	var transliterations []string
	switch lang.PrimaryScript {
	case ScriptLatin:
		if t, changed := transliterate(normalized, n.dict.RomanToDevanagari, true); changed {
			transliterations = append(transliterations, t)
		}
	case ScriptDevanagari:
		if t, changed := transliterate(normalized, n.dict.DevanagariToRoman, false); changed {
			transliterations = append(transliterations, t)
		}
	case ScriptMixed:
		if t, changed := transliterate(normalized, n.dict.RomanToDevanagari, true); changed {
			transliterations = append(transliterations, t)
		}
		if t, changed := transliterate(normalized, n.dict.DevanagariToRoman, false); changed {
			transliterations = append(transliterations, t)
		}
	}

	return NormalizedQuery{
		Original:         query,
		Normalized:       normalized,
		Language:         lang,
		Transliterations: transliterations,
		WasNormalized:    wasNormalized,
	}
}

func transliterate(query string, dict map[string]string, lowercaseHaystack bool) (string, bool) {
	haystack := query
	if lowercaseHaystack {
		haystack = strings.ToLower(haystack)
	}
	out := haystack
	changed := false
	for from, to := range dict {
		key := from
		if lowercaseHaystack {
			key = strings.ToLower(from)
		}
		if strings.Contains(haystack, key) {
			out = strings.ReplaceAll(out, key, to)
			changed = true
		}
	}
	return out, changed
}

// QueryVariants returns the normalized query plus any unique
// transliteration variants.
func (n *Normalizer) QueryVariants(query string) []string {
	nq := n.Normalize(query)
	variants := []string{nq.Normalized}
	for _, t := range nq.Transliterations {
		found := false
		for _, v := range variants {
			if v == t {
				found = true
				break
			}
		}
		if !found {
			variants = append(variants, t)
		}
	}
	return variants
}

// NormalizeForSearch returns the best single query string for retrieval:
// for code-switched queries it prefers Roman script.
func (n *Normalizer) NormalizeForSearch(query string) string {
	nq := n.Normalize(query)
	if nq.Language.IsCodeSwitched {
		if nq.Language.LatinRatio > nq.Language.DevanagariRatio {
			return nq.Normalized
		}
		for _, t := range nq.Transliterations {
			if DetectLanguage(t).PrimaryScript == ScriptLatin {
				return t
			}
		}
	}
	return nq.Normalized
}
