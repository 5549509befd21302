// Package interrupt implements the barge-in interrupt handler: a
// config-driven cancellation policy gating TTS output against user speech.
package interrupt

import "sync"

// Mode selects how a barge-in is honoured.
type Mode int

const (
	Disabled Mode = iota
	Immediate
	WordBoundary
	SentenceBoundary
)

// State is the handler's internal FSM state.
type State int

const (
	StateIdle State = iota
	StateSpeaking
	StatePendingInterrupt
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSpeaking:
		return "Speaking"
	case StatePendingInterrupt:
		return "PendingInterrupt"
	case StateInterrupted:
		return "Interrupted"
	}
	return "Unknown"
}

// Config controls interrupt policy.
type Config struct {
	Mode          Mode
	GracePeriodMs int64
}

// Handler is the stateful barge-in gate.
type Handler struct {
	mu sync.Mutex

	cfg Config

	state          State
	ttsStartFrame  uint64
	ttsStartMs     int64
	pendingTarget  uint64
	hasPendingTarg bool
}

// New constructs a Handler.
func New(cfg Config) *Handler {
	return &Handler{cfg: cfg, state: StateIdle}
}

// OnAudioOut observes an audio-out frame; while Idle it transitions to
// Speaking and records the TTS start position.
func (h *Handler) OnAudioOut(frameCounter uint64, nowMs int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateIdle {
		h.state = StateSpeaking
		h.ttsStartFrame = frameCounter
		h.ttsStartMs = nowMs
	}
}

// BargeInDecision tells the caller what to do with a barge-in event.
type BargeInDecision int

const (
	DecisionDrop BargeInDecision = iota
	DecisionInterruptNow
	DecisionPendingWordBoundary
	DecisionPendingSentenceBoundary
)

// OnBargeIn observes a barge-in event while Speaking.
func (h *Handler) OnBargeIn(nowMs int64, currentSentenceIndex uint64) BargeInDecision {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.Mode == Disabled || h.state != StateSpeaking {
		return DecisionDrop
	}
	if nowMs-h.ttsStartMs < h.cfg.GracePeriodMs {
		return DecisionDrop
	}

	switch h.cfg.Mode {
	case Immediate:
		h.state = StateInterrupted
		return DecisionInterruptNow
	case WordBoundary:
		h.state = StatePendingInterrupt
		return DecisionPendingWordBoundary
	case SentenceBoundary:
		h.state = StatePendingInterrupt
		h.pendingTarget = currentSentenceIndex
		h.hasPendingTarg = true
		return DecisionPendingSentenceBoundary
	}
	return DecisionDrop
}

// OnSentence observes a sentence frame while PendingInterrupt; if its index
// exceeds the recorded target, the handler commits to Interrupted and the
// sentence should be dropped.
func (h *Handler) OnSentence(sentenceIndex uint64) (drop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StatePendingInterrupt || !h.hasPendingTarg {
		return false
	}
	if sentenceIndex > h.pendingTarget {
		h.state = StateInterrupted
		return true
	}
	return false
}

// AllowAudioOut reports whether an audio-out frame may pass (output
// gating): blocked in PendingInterrupt and Interrupted.
func (h *Handler) AllowAudioOut() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != StatePendingInterrupt && h.state != StateInterrupted
}

// AllowSentence reports whether a further sentence may pass: blocked only
// once fully Interrupted.
func (h *Handler) AllowSentence() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != StateInterrupted
}

// State returns the current FSM state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reset returns the handler to Idle, on end-of-stream or a Reset control
// frame.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateIdle
	h.hasPendingTarg = false
	h.pendingTarget = 0
}
