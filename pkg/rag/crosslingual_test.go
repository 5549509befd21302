package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguageScenario(t *testing.T) {
	en := DetectLanguage("What is the gold loan interest rate?")
	assert.Equal(t, ScriptLatin, en.PrimaryScript)
	assert.False(t, en.IsCodeSwitched)

	hi := DetectLanguage("सोने का लोन कैसे मिलेगा?")
	assert.Equal(t, ScriptDevanagari, hi.PrimaryScript)
	assert.Greater(t, hi.DevanagariRatio, 0.7)

	mixed := DetectLanguage("गोल्ड loan का interest रेट kya है?")
	assert.Equal(t, ScriptMixed, mixed.PrimaryScript)
	assert.True(t, mixed.IsCodeSwitched)
}

func TestNormalizeIdentityForUnknownEnglishQuery(t *testing.T) {
	// Normalizing an all-English query whose tokens are
	// absent from the dictionary is identity.
	n := NewNormalizer(NewDictionary())
	nq := n.Normalize("please explain the repayment schedule")
	assert.Equal(t, "please explain the repayment schedule", nq.Normalized)
	assert.False(t, nq.WasNormalized)
	assert.Empty(t, nq.Transliterations)
}

func TestNormalizeAppliesSpellingVariants(t *testing.T) {
	dict := NewDictionary()
	dict.SpellingVariants["intrest"] = "interest"
	n := NewNormalizer(dict)
	nq := n.Normalize("what is the intrest rate")
	assert.True(t, nq.WasNormalized)
	assert.Contains(t, nq.Normalized, "interest")
}

func TestNormalizeForSearchPrefersRomanOnCodeSwitch(t *testing.T) {
	dict := NewDictionary()
	dict.RomanToDevanagari["gold"] = "गोल्ड"
	dict.DevanagariToRoman["गोल्ड"] = "gold"
	n := NewNormalizer(dict)

	got := n.NormalizeForSearch("गोल्ड loan rate kya hai")
	lang := DetectLanguage(got)
	assert.NotEqual(t, ScriptDevanagari, lang.PrimaryScript)
}

func TestQueryVariantsDeduplicates(t *testing.T) {
	dict := NewDictionary()
	dict.RomanToDevanagari["gold"] = "गोल्ड"
	n := NewNormalizer(dict)
	variants := n.QueryVariants("gold loan")
	assert.NotEmpty(t, variants)
	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v], "duplicate variant %q", v)
		seen[v] = true
	}
}
