package vad

import "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"

// EnergyThresholdBackend is the pure energy-threshold inference model (as
// opposed to a neural backend holding LSTM-like hidden state). It maps a
// chunk's dB energy linearly onto [0,1] around floorDB, so a chunk at or
// below floorDB scores 0 and one 24dB above it saturates to 1.
type EnergyThresholdBackend struct {
	floorDB float64
}

// NewEnergyThresholdBackend constructs a backend with the given noise floor.
func NewEnergyThresholdBackend(floorDB float64) *EnergyThresholdBackend {
	return &EnergyThresholdBackend{floorDB: floorDB}
}

func (b *EnergyThresholdBackend) Infer(chunk []float32) (float64, error) {
	db := audio.EnergyDB(chunk)
	const headroomDB = 24.0
	prob := (db - b.floorDB) / headroomDB
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return prob, nil
}

func (b *EnergyThresholdBackend) Reset() {}
