// Package stage implements the conversation stage FSM: stage
// transitions, emitted actions, and checkpoint/restore for rewinding a
// conversation to an earlier point.
package stage

import "sync"

// Stage is one conversation stage.
type Stage string

const (
	Greeting          Stage = "Greeting"
	Discovery         Stage = "Discovery"
	Qualification     Stage = "Qualification"
	Presentation      Stage = "Presentation"
	ObjectionHandling Stage = "ObjectionHandling"
	Closing           Stage = "Closing"
	Farewell          Stage = "Farewell"
)

// defaultTransitions is the default valid-transitions table,
// overridable via Config.Transitions from the domain bridge's stages view.
var defaultTransitions = map[Stage][]Stage{
	Greeting:          {Discovery, Farewell},
	Discovery:         {Qualification, Presentation, ObjectionHandling, Farewell},
	Qualification:     {Presentation, Discovery, Farewell},
	Presentation:      {ObjectionHandling, Closing, Farewell},
	ObjectionHandling: {Presentation, Discovery, Closing, Farewell},
	Closing:           {ObjectionHandling, Farewell},
	Farewell:          {},
}

// EventKind discriminates FSM input events.
type EventKind string

const (
	EventCallStarted       EventKind = "CallStarted"
	EventUserIntent        EventKind = "UserIntent"
	EventUserAgreement     EventKind = "UserAgreement"
	EventUserRefusal       EventKind = "UserRefusal"
	EventUserObjection     EventKind = "UserObjection"
	EventCallEnded         EventKind = "CallEnded"
	EventTranscriptReady   EventKind = "TranscriptReady"
	EventResponseGenerated EventKind = "ResponseGenerated"
)

// Event is one FSM input.
type Event struct {
	Kind       EventKind
	Intent     string  // populated for EventUserIntent
	Confidence float64 // populated for EventUserIntent
}

// ActionKind discriminates the actions a successful transition emits.
type ActionKind string

const (
	ActionStartListening ActionKind = "StartListening"
	ActionSpeak          ActionKind = "Speak"
	ActionUpdateContext  ActionKind = "UpdateContext"
	ActionEnd            ActionKind = "End"
)

// Action is one side-effect the caller must perform after a transition.
type Action struct {
	Kind    ActionKind
	Outcome string // populated for ActionEnd
}

// ErrInvalidTransition is returned when an event's resolved target stage is
// not reachable from the current stage.
type ErrInvalidTransition struct {
	From Stage
	To   Stage
}

func (e *ErrInvalidTransition) Error() string {
	return "invalid transition from " + string(e.From) + " to " + string(e.To)
}

// HighConfidenceIntentThreshold is the minimum UserIntent confidence that
// resolves to a stage-advancing target.
const HighConfidenceIntentThreshold = 0.6

// Checkpoint is a saved FSM snapshot.
type Checkpoint struct {
	Index       int
	Stage       Stage
	Context     map[string]string
	TimestampMs int64
	TurnCount   int
}

// Metrics tracks FSM usage counters.
type Metrics struct {
	TurnCount       int
	StageTurns      map[Stage]int
	CheckpointCount int
	RestoreCount    int
}

// Config controls the FSM's transition table.
type Config struct {
	Transitions map[Stage][]Stage
}

// DefaultConfig returns the default transition table.
func DefaultConfig() Config {
	return Config{Transitions: defaultTransitions}
}

// FSM is the stateful conversation stage machine.
type FSM struct {
	mu sync.Mutex

	cfg     Config
	stage   Stage
	context map[string]string
	metrics Metrics

	checkpoints []Checkpoint
}

// New constructs an FSM starting at Greeting.
func New(cfg Config) *FSM {
	if cfg.Transitions == nil {
		cfg = DefaultConfig()
	}
	return &FSM{
		cfg:     cfg,
		stage:   Greeting,
		context: make(map[string]string),
		metrics: Metrics{StageTurns: make(map[Stage]int)},
	}
}

// Stage returns the current stage.
func (f *FSM) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Context returns a copy of the current context map.
func (f *FSM) Context() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.context))
	for k, v := range f.context {
		out[k] = v
	}
	return out
}

// Metrics returns a copy of the current metrics.
func (f *FSM) Metrics() Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	stageTurns := make(map[Stage]int, len(f.metrics.StageTurns))
	for k, v := range f.metrics.StageTurns {
		stageTurns[k] = v
	}
	m := f.metrics
	m.StageTurns = stageTurns
	return m
}

// resolveTarget maps an event to its target stage.
// Events that do not themselves drive a transition (TranscriptReady,
// ResponseGenerated) return ok=false
// and the caller should treat the event as a no-op context update.
func (f *FSM) resolveTarget(ev Event) (Stage, bool) {
	switch ev.Kind {
	case EventCallStarted:
		return Discovery, true
	case EventUserIntent:
		if ev.Confidence < HighConfidenceIntentThreshold {
			return "", false
		}
		switch ev.Intent {
		case "interested":
			return Discovery, true
		case "ready_to_qualify":
			return Qualification, true
		case "ready_to_close":
			return Closing, true
		case "not_interested":
			return Farewell, true
		default:
			return "", false
		}
	case EventUserObjection:
		return ObjectionHandling, true
	case EventUserRefusal:
		return Farewell, true
	case EventUserAgreement:
		switch f.stage {
		case Presentation:
			return Closing, true
		case ObjectionHandling:
			return Presentation, true
		default:
			return "", false
		}
	case EventCallEnded:
		return Farewell, true
	default:
		return "", false
	}
}

func (f *FSM) validLocked(to Stage) bool {
	for _, s := range f.cfg.Transitions[f.stage] {
		if s == to {
			return true
		}
	}
	return false
}

func actionsFor(to Stage) []Action {
	switch to {
	case Farewell:
		return []Action{{Kind: ActionUpdateContext}, {Kind: ActionSpeak}, {Kind: ActionEnd, Outcome: "completed"}}
	default:
		return []Action{{Kind: ActionUpdateContext}, {Kind: ActionSpeak}, {Kind: ActionStartListening}}
	}
}

// Apply resolves ev against the current stage, validates the transition,
// and — if valid — advances the stage and returns the emitted actions. If
// ev does not resolve to a target stage, Apply is a no-op returning nil
// actions and no error. If the resolved target is not in the valid set for
// the current stage, Apply returns *ErrInvalidTransition.
func (f *FSM) Apply(ev Event) ([]Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.resolveTarget(ev)
	if !ok {
		return nil, nil
	}
	if !f.validLocked(target) {
		return nil, &ErrInvalidTransition{From: f.stage, To: target}
	}

	f.stage = target
	f.metrics.TurnCount++
	f.metrics.StageTurns[target]++
	return actionsFor(target), nil
}

// SetContext writes a key into the FSM's context map (driven by
// ActionUpdateContext handling upstream).
func (f *FSM) SetContext(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.context[key] = value
}

// Checkpoint records the current (stage, context, turn count) for later
// Restore, returning its index.
func (f *FSM) Checkpoint(nowMs int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ctxCopy := make(map[string]string, len(f.context))
	for k, v := range f.context {
		ctxCopy[k] = v
	}
	cp := Checkpoint{
		Index:       len(f.checkpoints),
		Stage:       f.stage,
		Context:     ctxCopy,
		TimestampMs: nowMs,
		TurnCount:   f.metrics.TurnCount,
	}
	f.checkpoints = append(f.checkpoints, cp)
	f.metrics.CheckpointCount++
	return cp.Index
}

// Restore reverts stage, context, and turn count to a prior checkpoint,
// bypassing transition validation.
func (f *FSM) Restore(index int) (Checkpoint, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.checkpoints) {
		return Checkpoint{}, false
	}
	cp := f.checkpoints[index]
	f.stage = cp.Stage
	ctxCopy := make(map[string]string, len(cp.Context))
	for k, v := range cp.Context {
		ctxCopy[k] = v
	}
	f.context = ctxCopy
	f.metrics.TurnCount = cp.TurnCount
	f.metrics.RestoreCount++
	return cp, true
}
