package stage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFSMStartsAtGreeting(t *testing.T) {
	f := New(DefaultConfig())
	assert.Equal(t, Greeting, f.Stage())
}

func TestApplyCallStartedMovesToDiscovery(t *testing.T) {
	f := New(DefaultConfig())
	actions, err := f.Apply(Event{Kind: EventCallStarted})
	require.NoError(t, err)
	assert.Equal(t, Discovery, f.Stage())
	assert.Contains(t, actionKinds(actions), ActionStartListening)
}

func TestApplyHighConfidenceIntentReadyToQualify(t *testing.T) {
	f := New(DefaultConfig())
	_, err := f.Apply(Event{Kind: EventCallStarted}) // -> Discovery
	require.NoError(t, err)

	actions, err := f.Apply(Event{Kind: EventUserIntent, Intent: "ready_to_qualify", Confidence: 0.9})
	require.NoError(t, err)
	assert.Equal(t, Qualification, f.Stage())
	assert.NotEmpty(t, actions)
}

func TestApplyLowConfidenceIntentIsNoOp(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventCallStarted})
	actions, err := f.Apply(Event{Kind: EventUserIntent, Intent: "ready_to_qualify", Confidence: 0.1})
	require.NoError(t, err)
	assert.Nil(t, actions)
	assert.Equal(t, Discovery, f.Stage())
}

func TestApplyUserObjectionFromDiscovery(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventCallStarted})
	actions, err := f.Apply(Event{Kind: EventUserObjection})
	require.NoError(t, err)
	assert.Equal(t, ObjectionHandling, f.Stage())
	assert.NotEmpty(t, actions)
}

func TestApplyUserRefusalEndsInFarewellWithEndAction(t *testing.T) {
	f := New(DefaultConfig())
	actions, err := f.Apply(Event{Kind: EventUserRefusal})
	require.NoError(t, err)
	assert.Equal(t, Farewell, f.Stage())
	found := false
	for _, a := range actions {
		if a.Kind == ActionEnd {
			found = true
			assert.Equal(t, "completed", a.Outcome)
		}
	}
	assert.True(t, found)
}

func TestApplyInvalidTransitionFromFarewell(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventUserRefusal}) // -> Farewell
	_, err := f.Apply(Event{Kind: EventCallStarted})
	require.Error(t, err)
	var invalid *ErrInvalidTransition
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, Farewell, invalid.From)
}

func TestCheckpointRestoreRevertsStageContextAndTurnCount(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventCallStarted}) // -> Discovery, turn 1
	f.SetContext("customer_name", "Rahul")
	cp := f.Checkpoint(1000)

	f.Apply(Event{Kind: EventUserObjection}) // -> ObjectionHandling, turn 2
	f.SetContext("customer_name", "Overwritten")

	restored, ok := f.Restore(cp)
	require.True(t, ok)
	assert.Equal(t, Discovery, restored.Stage)
	assert.Equal(t, Discovery, f.Stage())
	assert.Equal(t, "Rahul", f.Context()["customer_name"])
	assert.Equal(t, 1, f.Metrics().TurnCount)
	assert.Equal(t, 1, f.Metrics().RestoreCount)
}

func TestRestoreBypassesTransitionValidation(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventUserRefusal}) // -> Farewell
	cp := f.Checkpoint(0)
	f.Apply(Event{Kind: EventUserRefusal}) // stays Farewell -> invalid transition attempt
	_, ok := f.Restore(cp)
	require.True(t, ok)
	assert.Equal(t, Farewell, f.Stage())
}

func TestMetricsTracksCheckpointAndStageTurnCounts(t *testing.T) {
	f := New(DefaultConfig())
	f.Apply(Event{Kind: EventCallStarted})
	f.Checkpoint(0)
	m := f.Metrics()
	assert.Equal(t, 1, m.TurnCount)
	assert.Equal(t, 1, m.StageTurns[Discovery])
	assert.Equal(t, 1, m.CheckpointCount)
}

func actionKinds(actions []Action) []ActionKind {
	out := make([]ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}
