package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainAll(t *testing.T, c *Chunker) []Chunk {
	t.Helper()
	var out []Chunk
	for {
		chunk, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, chunk)
	}
	return out
}

func TestChunkerWordCountStrategy(t *testing.T) {
	c := NewChunker(ChunkerConfig{Strategy: StrategyWordCount, WordsPerChunk: 3})
	c.Push("one two three four five six seven")
	c.Finish()

	chunks := drainAll(t, c)
	require.Len(t, chunks, 3)
	assert.Equal(t, "one two three", chunks[0].Text)
	assert.Equal(t, [2]int{0, 3}, chunks[0].WordIndices)
	assert.False(t, chunks[0].IsFinal)
	assert.Equal(t, "seven", chunks[2].Text)
	assert.True(t, chunks[2].IsFinal)
}

func TestChunkerAdaptiveBreaksOnSentenceBoundary(t *testing.T) {
	c := NewChunker(ChunkerConfig{Strategy: StrategyAdaptive, WordsPerChunk: 20})
	c.Push("Hello there. How can I help you today?")
	c.Finish()

	chunks := drainAll(t, c)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Hello there.", chunks[0].Text)
	assert.Equal(t, "How can I help you today?", chunks[1].Text)
	assert.True(t, chunks[1].IsFinal)
}

func TestChunkerAdaptiveRespectsCeilingWithoutBoundary(t *testing.T) {
	c := NewChunker(ChunkerConfig{Strategy: StrategyAdaptive, WordsPerChunk: 4})
	c.Push("this text has no terminators at all here")
	c.Finish()

	chunks := drainAll(t, c)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, [2]int{0, 4}, chunks[0].WordIndices)
}

func TestChunkerWaitsForMoreTextWhenNotDone(t *testing.T) {
	c := NewChunker(ChunkerConfig{Strategy: StrategyPhrase})
	c.Push("partial clause without punctuation")

	_, ok := c.Next()
	assert.False(t, ok, "should not emit a chunk before a boundary or Finish")

	c.Finish()
	chunks := drainAll(t, c)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].IsFinal)
}

func TestChunkerResetClearsState(t *testing.T) {
	c := NewChunker(DefaultChunkerConfig())
	c.Push("some words here")
	c.Finish()
	_, _ = c.Next()

	c.Reset()
	assert.False(t, c.Drained())
	c.Push("fresh")
	c.Finish()
	chunks := drainAll(t, c)
	require.Len(t, chunks, 1)
	assert.Equal(t, "fresh", chunks[0].Text)
	assert.Equal(t, [2]int{0, 1}, chunks[0].WordIndices)
}
