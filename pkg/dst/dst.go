// Package dst implements the dialogue state tracker and the goal
// schema / next-best-action resolver.
package dst

import "sync"

// ChangeSource tags where a slot value update came from.
type ChangeSource int

const (
	SourceUserUtterance ChangeSource = iota
	SourceCorrection
	SourceSystemConfirmation
	SourceExternal
)

// Slot is the current value held for a slot-id.
type Slot struct {
	Value      string
	Confidence float64
	Source     ChangeSource
	TurnIndex  int
}

// SlotValue is one detected slot observation to feed into Update.
type SlotValue struct {
	Value      string
	Confidence float64
}

// StateChange is one recorded transition in dialogue-state history.
type StateChange struct {
	TimestampMs int64
	Slot        string
	OldValue    string
	NewValue    string
	Confidence  float64
	Source      ChangeSource
	TurnIndex   int
}

// Config controls DST thresholds.
type Config struct {
	CorrectionLookback    int
	MinSlotConfidence     float64
	AutoConfirmConfidence float64
}

// DefaultConfig returns the standard tracker tuning.
func DefaultConfig() Config {
	return Config{CorrectionLookback: 5, MinSlotConfidence: 0.4, AutoConfirmConfidence: 0.8}
}

// Tracker is the stateful dialogue state tracker.
type Tracker struct {
	mu sync.Mutex

	cfg    Config
	schema *Schema

	slots     map[string]Slot
	pending   map[string]bool
	confirmed map[string]bool
	history   []StateChange

	primaryIntent     string
	primaryConfidence float64
}

// New constructs a Tracker. schema may be nil if intent-complete/missing-slot
// queries are not needed.
func New(cfg Config, schema *Schema) *Tracker {
	return &Tracker{
		cfg:       cfg,
		schema:    schema,
		slots:     make(map[string]Slot),
		pending:   make(map[string]bool),
		confirmed: make(map[string]bool),
	}
}

// Update applies one detected intent with its slot observations.
func (t *Tracker) Update(intent string, intentConfidence float64, slotValues map[string]SlotValue, turnIndex int, nowMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for slotID, sv := range slotValues {
		conf := sv.Confidence
		source := SourceUserUtterance
		if t.wasCorrectedLocked(slotID, sv.Value, turnIndex) {
			if conf < 0.9 {
				conf = 0.9
			}
			source = SourceCorrection
		}

		if conf < t.cfg.MinSlotConfidence {
			continue
		}

		old, existed := t.slots[slotID]
		if !existed || old.Value != sv.Value {
			t.history = append(t.history, StateChange{
				TimestampMs: nowMs,
				Slot:        slotID,
				OldValue:    old.Value,
				NewValue:    sv.Value,
				Confidence:  conf,
				Source:      source,
				TurnIndex:   turnIndex,
			})
			t.slots[slotID] = Slot{Value: sv.Value, Confidence: conf, Source: source, TurnIndex: turnIndex}
		}

		if conf >= t.cfg.AutoConfirmConfidence {
			t.confirmed[slotID] = true
			delete(t.pending, slotID)
		} else {
			t.pending[slotID] = true
		}
	}

	t.primaryIntent = intent
	t.primaryConfidence = intentConfidence
	t.sweepPendingLocked()
}

// wasCorrectedLocked scans history back correction_lookback turns for the
// same slot; returns true if found with a different value. Caller holds mu.
func (t *Tracker) wasCorrectedLocked(slotID, newValue string, turnIndex int) bool {
	for i := len(t.history) - 1; i >= 0; i-- {
		ch := t.history[i]
		if turnIndex-ch.TurnIndex > t.cfg.CorrectionLookback {
			break
		}
		if ch.Slot == slotID {
			return ch.NewValue != newValue
		}
	}
	return false
}

func (t *Tracker) sweepPendingLocked() {
	for slotID := range t.pending {
		if s, ok := t.slots[slotID]; ok && s.Confidence >= t.cfg.AutoConfirmConfidence {
			t.confirmed[slotID] = true
			delete(t.pending, slotID)
		}
	}
}

// GetSlot returns the current slot value.
func (t *Tracker) GetSlot(slotID string) (Slot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slotID]
	return s, ok
}

// SetSlot writes through a slot value directly (external source).
func (t *Tracker) SetSlot(slotID, value string, confidence float64, turnIndex int, nowMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.slots[slotID]
	t.history = append(t.history, StateChange{
		TimestampMs: nowMs, Slot: slotID, OldValue: old.Value, NewValue: value,
		Confidence: confidence, Source: SourceExternal, TurnIndex: turnIndex,
	})
	t.slots[slotID] = Slot{Value: value, Confidence: confidence, Source: SourceExternal, TurnIndex: turnIndex}
	if confidence >= t.cfg.AutoConfirmConfidence {
		t.confirmed[slotID] = true
		delete(t.pending, slotID)
	} else {
		t.pending[slotID] = true
	}
}

// ConfirmSlot marks a slot confirmed (e.g. on system confirmation).
func (t *Tracker) ConfirmSlot(slotID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.confirmed[slotID] = true
	delete(t.pending, slotID)
}

// ClearSlot removes a slot entirely.
func (t *Tracker) ClearSlot(slotID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, slotID)
	delete(t.pending, slotID)
	delete(t.confirmed, slotID)
}

// ListPending returns pending slot-ids.
func (t *Tracker) ListPending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.pending))
	for id := range t.pending {
		out = append(out, id)
	}
	return out
}

// ListConfirmed returns confirmed slot-ids.
func (t *Tracker) ListConfirmed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.confirmed))
	for id := range t.confirmed {
		out = append(out, id)
	}
	return out
}

// PrimaryIntent returns the current primary intent and its confidence.
func (t *Tracker) PrimaryIntent() (string, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primaryIntent, t.primaryConfidence
}

// History returns a copy of the recorded state changes.
func (t *Tracker) History() []StateChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StateChange, len(t.history))
	copy(out, t.history)
	return out
}

// IsIntentComplete reports whether every required slot of the goal mapped
// from intent is filled.
func (t *Tracker) IsIntentComplete(intent string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.schema == nil {
		return false
	}
	g := t.schema.GoalForIntent(intent)
	if g == nil {
		return false
	}
	for _, slotID := range g.RequiredSlots {
		if _, ok := t.slots[slotID]; !ok {
			return false
		}
	}
	return true
}

// MissingSlotsForIntent returns the ordered required slots still unfilled.
func (t *Tracker) MissingSlotsForIntent(intent string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.schema == nil {
		return nil
	}
	g := t.schema.GoalForIntent(intent)
	if g == nil {
		return nil
	}
	var missing []string
	for _, slotID := range g.RequiredSlots {
		if _, ok := t.slots[slotID]; !ok {
			missing = append(missing, slotID)
		}
	}
	return missing
}

// FilledSlots returns a snapshot of slot-id -> SlotValue for goal resolution.
func (t *Tracker) FilledSlots() map[string]SlotValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]SlotValue, len(t.slots))
	for id, s := range t.slots {
		out[id] = SlotValue{Value: s.Value, Confidence: s.Confidence}
	}
	return out
}
