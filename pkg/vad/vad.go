// Package vad implements the hybrid voice-activity-detection state machine
//: a single-lock guarded Silence/SpeechStart/Speech/SpeechEnd FSM fed
// by a pluggable per-chunk inference backend.
package vad

import (
	"sync"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
)

// State is one of the VAD FSM's four states.
type State int

const (
	StateSilence State = iota
	StateSpeechStart
	StateSpeech
	StateSpeechEnd
)

func (s State) String() string {
	switch s {
	case StateSilence:
		return "Silence"
	case StateSpeechStart:
		return "SpeechStart"
	case StateSpeech:
		return "Speech"
	case StateSpeechEnd:
		return "SpeechEnd"
	}
	return "Unknown"
}

// EventType is the event a state transition emits.
type EventType int

const (
	EventPotentialSpeechStart EventType = iota
	EventSpeechConfirmed
	EventSilence
	EventSpeechContinue
	EventPotentialSpeechEnd
	EventSpeechEnded
)

func (e EventType) String() string {
	switch e {
	case EventPotentialSpeechStart:
		return "PotentialSpeechStart"
	case EventSpeechConfirmed:
		return "SpeechConfirmed"
	case EventSilence:
		return "Silence"
	case EventSpeechContinue:
		return "SpeechContinue"
	case EventPotentialSpeechEnd:
		return "PotentialSpeechEnd"
	case EventSpeechEnded:
		return "SpeechEnded"
	}
	return "Unknown"
}

// Event is emitted on a state transition.
type Event struct {
	Type  EventType
	State State
	Prob  float64
}

// InferenceBackend scores exactly ChunkSize samples as a speech probability.
// A neural backend may hold internal hidden state across calls; Reset clears
// it. EnergyThresholdBackend is the pure energy-threshold default.
type InferenceBackend interface {
	Infer(chunk []float32) (float64, error)
	Reset()
}

// Config controls the VAD FSM and its fast path.
type Config struct {
	ChunkSize        int // samples per inference tick, default 512 (≈32ms @16kHz)
	Threshold        float64
	MinSpeechFrames  int
	MinSilenceFrames int
	EnergyFloorDB    float64 // below this, skip inference and feed prob=0
}

// DefaultConfig returns the standard tuning: 512-sample window at
// 16kHz mono.
func DefaultConfig() Config {
	return Config{
		ChunkSize:        512,
		Threshold:        0.5,
		MinSpeechFrames:  3,
		MinSilenceFrames: 8,
		EnergyFloorDB:    -50,
	}
}

// VAD is the stateful detector. All mutable state is guarded by a single
// lock to prevent torn updates between inference and state transition.
type VAD struct {
	mu sync.Mutex

	cfg     Config
	backend InferenceBackend

	state      State
	aboveCount int
	belowCount int
	buffer     []float32
}

// New constructs a VAD over backend with cfg.
func New(cfg Config, backend InferenceBackend) *VAD {
	if backend == nil {
		backend = NewEnergyThresholdBackend(cfg.EnergyFloorDB)
	}
	return &VAD{cfg: cfg, backend: backend, state: StateSilence}
}

// State returns the current FSM state.
func (v *VAD) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Process feeds a frame's samples into the chunk buffer, running one
// inference tick per complete ChunkSize window, and returns every event
// produced (possibly empty, possibly more than one if the frame spans
// several windows).
func (v *VAD) Process(f *audio.Frame) ([]Event, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buffer = append(v.buffer, f.Samples()...)

	var events []Event
	for len(v.buffer) >= v.cfg.ChunkSize {
		chunk := v.buffer[:v.cfg.ChunkSize]
		v.buffer = v.buffer[v.cfg.ChunkSize:]

		prob, err := v.inferLocked(chunk)
		if err != nil {
			return events, err
		}
		if ev := v.stepLocked(prob); ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

func (v *VAD) inferLocked(chunk []float32) (float64, error) {
	if audio.EnergyDB(chunk) < v.cfg.EnergyFloorDB {
		return 0, nil
	}
	return v.backend.Infer(chunk)
}

// stepLocked advances the FSM by one inference tick per the transition
// table. Caller holds v.mu.
func (v *VAD) stepLocked(prob float64) *Event {
	above := prob >= v.cfg.Threshold

	switch v.state {
	case StateSilence:
		if !above {
			return nil
		}
		v.state = StateSpeechStart
		v.aboveCount = 1
		return &Event{Type: EventPotentialSpeechStart, State: v.state, Prob: prob}

	case StateSpeechStart:
		if above {
			v.aboveCount++
			if v.aboveCount >= v.cfg.MinSpeechFrames {
				v.state = StateSpeech
				return &Event{Type: EventSpeechConfirmed, State: v.state, Prob: prob}
			}
			return nil
		}
		v.state = StateSilence
		v.aboveCount = 0
		return &Event{Type: EventSilence, State: v.state, Prob: prob}

	case StateSpeech:
		if above {
			return &Event{Type: EventSpeechContinue, State: v.state, Prob: prob}
		}
		v.state = StateSpeechEnd
		v.belowCount = 1
		return &Event{Type: EventPotentialSpeechEnd, State: v.state, Prob: prob}

	case StateSpeechEnd:
		if !above {
			v.belowCount++
			if v.belowCount >= v.cfg.MinSilenceFrames {
				v.state = StateSilence
				v.belowCount = 0
				return &Event{Type: EventSpeechEnded, State: v.state, Prob: prob}
			}
			return nil
		}
		v.state = StateSpeech
		v.belowCount = 0
		return &Event{Type: EventSpeechContinue, State: v.state, Prob: prob}
	}
	return nil
}

// Reset clears the FSM state, buffer, and counters.
func (v *VAD) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateSilence
	v.aboveCount = 0
	v.belowCount = 0
	v.buffer = nil
	v.backend.Reset()
}
