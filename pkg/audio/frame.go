package audio

import (
	"fmt"
	"math"
)

// SampleRate is one of the rates the pipeline accepts on its audio-in
// boundary.
type SampleRate int

const (
	Rate8k    SampleRate = 8000
	Rate16k   SampleRate = 16000
	Rate22050 SampleRate = 22050
	Rate44100 SampleRate = 44100
	Rate48k   SampleRate = 48000
)

// Valid reports whether r is one of the accepted audio-in rates.
func (r SampleRate) Valid() bool {
	switch r {
	case Rate8k, Rate16k, Rate22050, Rate44100, Rate48k:
		return true
	}
	return false
}

// Channels describes the channel layout of a Frame.
type Channels int

const (
	Mono   Channels = 1
	Stereo Channels = 2
)

const silenceFloorDB = -96.0

// Frame is an immutable block of PCM audio in f32 ∈ [-1, 1]. Samples are
// shared by reference: multiple pipeline stages may read the same Frame
// without copying. Energy is computed once at construction and never
// recomputed.
type Frame struct {
	samples    []float32
	sampleRate SampleRate
	channels   Channels
	seq        uint64
	captureAt  int64 // unix nanos
	energyDB   float64
	vadProb    float64
	hasVadProb bool
	isSpeech   bool
}

// NewFrame constructs a Frame, computing energy and duration invariants.
// samples is retained by reference, not copied.
func NewFrame(samples []float32, rate SampleRate, ch Channels, seq uint64, captureAtUnixNano int64) *Frame {
	return &Frame{
		samples:    samples,
		sampleRate: rate,
		channels:   ch,
		seq:        seq,
		captureAt:  captureAtUnixNano,
		energyDB:   EnergyDB(samples),
	}
}

// WithVAD returns a copy of f annotated with a VAD probability and
// is-speech flag, as processors may re-emit modified copies of frames
// they observe.
func (f *Frame) WithVAD(prob float64, isSpeech bool) *Frame {
	cp := *f
	cp.vadProb = prob
	cp.hasVadProb = true
	cp.isSpeech = isSpeech
	return &cp
}

func (f *Frame) Samples() []float32       { return f.samples }
func (f *Frame) SampleRate() SampleRate   { return f.sampleRate }
func (f *Frame) Channels() Channels       { return f.channels }
func (f *Frame) Seq() uint64              { return f.seq }
func (f *Frame) CaptureAtUnixNano() int64 { return f.captureAt }
func (f *Frame) EnergyDB() float64        { return f.energyDB }
func (f *Frame) IsSpeech() bool           { return f.isSpeech }

// VADProbability returns the VAD probability annotation and whether one
// has been set.
func (f *Frame) VADProbability() (float64, bool) { return f.vadProb, f.hasVadProb }

// Duration returns the frame duration in seconds: samples / (rate * channels).
func (f *Frame) Duration() float64 {
	if f.sampleRate == 0 || f.channels == 0 {
		return 0
	}
	return float64(len(f.samples)) / (float64(f.sampleRate) * float64(f.channels))
}

// EnergyDB computes 20*log10(rms(samples)) with a -96dB floor for silence.
func EnergyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return silenceFloorDB
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return silenceFloorDB
	}
	db := 20 * math.Log10(rms)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}

// FrameSize20ms returns the sample count for a 20ms chunk at rate.
func FrameSize20ms(rate SampleRate) int { return int(rate) * 20 / 1000 }

// FrameSize10ms returns the sample count for a 10ms chunk at rate.
func FrameSize10ms(rate SampleRate) int { return int(rate) * 10 / 1000 }

// PCM16ToFrame decodes little-endian signed 16-bit PCM bytes into a Frame.
func PCM16ToFrame(pcm []byte, rate SampleRate, ch Channels, seq uint64, captureAtUnixNano int64) (*Frame, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("audio: odd PCM16 byte length %d", len(pcm))
	}
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		samples[i] = float32(v) / 32768.0
	}
	return NewFrame(samples, rate, ch, seq, captureAtUnixNano), nil
}

// FrameToPCM16 encodes a Frame's samples back to little-endian signed
// 16-bit PCM bytes. Round-tripping PCM16->Frame->PCM16 is bit-exact
// within the rounding of the fixed 32768 scaling constant.
func FrameToPCM16(f *Frame) []byte {
	out := make([]byte, len(f.samples)*2)
	for i, s := range f.samples {
		v := int32(s * 32768.0)
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		out[2*i] = byte(int16(v))
		out[2*i+1] = byte(int16(v) >> 8)
	}
	return out
}
