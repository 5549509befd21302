package tts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	calls int
	err   error
}

func (s *stubBackend) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return []float32{0.1, 0.2}, 22050, nil
}

func (s *stubBackend) Name() string { return "stub" }

func TestEngineStartProcessNextEmitsAudioThenComplete(t *testing.T) {
	backend := &stubBackend{}
	e := NewEngine(ChunkerConfig{Strategy: StrategyWordCount, WordsPerChunk: 2}, backend)
	e.Start("one two three four")

	ev1, ok, err := e.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventAudio, ev1.Kind)
	assert.Equal(t, [2]int{0, 2}, ev1.WordIndices)
	assert.False(t, ev1.IsFinal)

	ev2, ok, err := e.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventAudio, ev2.Kind)
	assert.True(t, ev2.IsFinal)

	ev3, ok, err := e.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventComplete, ev3.Kind)
	assert.False(t, e.IsSynthesizing())
}

func TestEngineBargeInStopsLoop(t *testing.T) {
	backend := &stubBackend{}
	e := NewEngine(ChunkerConfig{Strategy: StrategyWordCount, WordsPerChunk: 2}, backend)
	e.Start("one two three four")

	_, _, err := e.ProcessNext(context.Background())
	require.NoError(t, err)

	e.BargeIn()
	ev, ok, err := e.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventBargedIn, ev.Kind)
	assert.Equal(t, 2, ev.WordIndex)
	assert.False(t, e.IsSynthesizing())

	_, ok, err = e.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "no further events once stopped")
}

func TestEngineProcessNextPropagatesBackendError(t *testing.T) {
	backend := &stubBackend{err: errors.New("synth failed")}
	e := NewEngine(DefaultChunkerConfig(), backend)
	e.Start("hello world")

	_, _, err := e.ProcessNext(context.Background())
	require.Error(t, err)
}

func TestEngineWaitsWithoutEventWhenNoChunkYet(t *testing.T) {
	backend := &stubBackend{}
	e := NewEngine(ChunkerConfig{Strategy: StrategyPhrase}, backend)
	e.Start("") // no text, not finished pushing more
	e.chunker.done = false
	e.chunker.Push("partial clause")

	_, ok, err := e.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
