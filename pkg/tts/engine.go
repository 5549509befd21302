package tts

import (
	"context"
	"sync"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
)

// Backend synthesizes one chunk of text into PCM samples at its own native
// sample rate.
// Implementations wrap a concrete provider, e.g. pkg/providers/tts.LokutorTTS.
type Backend interface {
	Synthesize(ctx context.Context, text string) (samples []float32, sampleRate int, err error)
	Name() string
}

// EventKind discriminates the events ProcessNext can emit.
type EventKind string

const (
	EventAudio    EventKind = "AUDIO"
	EventBargedIn EventKind = "BARGED_IN"
	EventComplete EventKind = "COMPLETE"
)

// Event is one streaming-synthesis step outcome.
type Event struct {
	Kind        EventKind
	Samples     []float32
	SampleRate  int
	Text        string
	WordIndices [2]int
	IsFinal     bool
	WordIndex   int // current word index, meaningful for EventBargedIn and EventComplete
}

// Engine runs the chunk-synthesize-emit loop. It holds no
// goroutines of its own: ProcessNext is called repeatedly by the owning
// pipeline stage, mirroring pkg/sentence.Detector's pull model.
type Engine struct {
	mu           sync.Mutex
	chunker      *Chunker
	backend      Backend
	pool         *bus.BlockingPool
	synthesizing bool
	bargedIn     bool
	currentWord  int
}

// NewEngine constructs an Engine over backend using cfg for chunking.
// Synthesis calls run through a dedicated blocking pool rather than
// inline on the caller.
func NewEngine(cfg ChunkerConfig, backend Backend) *Engine {
	return &Engine{chunker: NewChunker(cfg), backend: backend, pool: bus.NewBlockingPool(bus.DefaultBlockingPoolCapacity)}
}

// Start resets the chunker, pushes text, and begins a new synthesis run.
func (e *Engine) Start(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunker.Reset()
	e.chunker.Push(text)
	e.chunker.Finish()
	e.synthesizing = true
	e.bargedIn = false
	e.currentWord = 0
}

// PushMore feeds additional streamed text into an in-progress run (used
// when the engine is fed directly by the sentence detector rather than one
// complete utterance at a time).
func (e *Engine) PushMore(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunker.done = false
	e.chunker.Push(text)
}

// FinishInput marks that no more text will be pushed for the current run.
func (e *Engine) FinishInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunker.Finish()
}

// BargeIn sets the interrupt flag observed by the next ProcessNext call.
func (e *Engine) BargeIn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bargedIn = true
}

// ProcessNext advances the loop by one step. ok is false when
// there is currently nothing to do (e.g. waiting for more pushed text).
func (e *Engine) ProcessNext(ctx context.Context) (Event, bool, error) {
	e.mu.Lock()
	if !e.synthesizing {
		e.mu.Unlock()
		return Event{}, false, nil
	}
	if e.bargedIn {
		ev := Event{Kind: EventBargedIn, WordIndex: e.currentWord}
		e.synthesizing = false
		e.bargedIn = false
		e.mu.Unlock()
		return ev, true, nil
	}
	chunk, ok := e.chunker.Next()
	if !ok {
		if e.chunker.Drained() {
			e.synthesizing = false
			e.mu.Unlock()
			return Event{Kind: EventComplete, WordIndex: e.currentWord}, true, nil
		}
		e.mu.Unlock()
		return Event{}, false, nil
	}
	backend := e.backend
	pool := e.pool
	e.mu.Unlock()

	var samples []float32
	var rate int
	err := pool.Do(ctx, func() error {
		var err error
		samples, rate, err = backend.Synthesize(ctx, chunk.Text)
		return err
	})
	if err != nil {
		return Event{}, false, err
	}

	e.mu.Lock()
	e.currentWord = chunk.WordIndices[1]
	e.mu.Unlock()

	return Event{
		Kind:        EventAudio,
		Samples:     samples,
		SampleRate:  rate,
		Text:        chunk.Text,
		WordIndices: chunk.WordIndices,
		IsFinal:     chunk.IsFinal,
		WordIndex:   chunk.WordIndices[1],
	}, true, nil
}

// IsSynthesizing reports whether a run is currently active (neither
// completed nor barged-in).
func (e *Engine) IsSynthesizing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synthesizing
}
