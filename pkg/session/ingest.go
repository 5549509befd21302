package session

import (
	"context"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/metrics"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/vad"
)

// VADStage is a bus.Processor wrapping pkg/vad.VAD: it passes every
// AudioIn frame through unchanged and additionally emits VoiceStart/
// VoiceEnd frames on the corresponding FSM transitions.
type VADStage struct {
	v *vad.VAD
}

func NewVADStage(v *vad.VAD) *VADStage { return &VADStage{v: v} }

func (s *VADStage) Name() string                      { return "vad" }
func (s *VADStage) OnStart(ctx context.Context) error { return nil }
func (s *VADStage) OnStop(ctx context.Context) error  { return nil }

func (s *VADStage) Process(ctx context.Context, f *bus.Frame) ([]*bus.Frame, error) {
	if f.Kind != bus.KindAudioIn {
		return []*bus.Frame{f}, nil
	}
	events, err := s.v.Process(f.AudioIn)
	if err != nil {
		return nil, err
	}
	out := []*bus.Frame{f}
	for _, ev := range events {
		switch ev.Type {
		case vad.EventSpeechConfirmed:
			metrics.VADSpeechSegmentsTotal.Inc()
			out = append(out, bus.NewVoiceStartFrame(f.Seq))
		case vad.EventSpeechEnded:
			out = append(out, bus.NewVoiceEndFrame(f.Seq))
		}
	}
	return out, nil
}

// STTStage is a bus.Processor that buffers raw samples between VoiceStart
// and VoiceEnd and transcribes the full utterance through an ASR backend.
type STTStage struct {
	asr      ASR
	lang     string
	rate     audio.SampleRate
	channels audio.Channels

	buffering bool
	buffer    []float32
}

// NewSTTStage constructs an STTStage over asr, transcribing in lang.
func NewSTTStage(asr ASR, lang string) *STTStage {
	return &STTStage{asr: asr, lang: lang, rate: audio.Rate16k, channels: audio.Mono}
}

func (s *STTStage) Name() string                      { return "stt" }
func (s *STTStage) OnStart(ctx context.Context) error { return nil }
func (s *STTStage) OnStop(ctx context.Context) error  { return nil }

func (s *STTStage) Process(ctx context.Context, f *bus.Frame) ([]*bus.Frame, error) {
	switch f.Kind {
	case bus.KindVoiceStart:
		s.buffering = true
		s.buffer = s.buffer[:0]
		return nil, nil

	case bus.KindAudioIn:
		if s.buffering {
			s.rate = f.AudioIn.SampleRate()
			s.channels = f.AudioIn.Channels()
			s.buffer = append(s.buffer, f.AudioIn.Samples()...)
		}
		return []*bus.Frame{f}, nil

	case bus.KindVoiceEnd:
		s.buffering = false
		if len(s.buffer) == 0 {
			return nil, nil
		}
		utterance := audio.NewFrame(s.buffer, s.rate, s.channels, f.Seq, 0)
		pcm := audio.FrameToPCM16(utterance)
		s.buffer = nil

		text, err := s.asr.Transcribe(ctx, pcm, s.lang)
		if err != nil {
			metrics.StageErrorsTotal.WithLabelValues(s.Name(), "transient").Inc()
			return nil, err
		}
		if text == "" {
			return nil, nil
		}
		return []*bus.Frame{bus.NewFinalTranscriptFrame(text, s.lang, 1.0)}, nil

	default:
		return []*bus.Frame{f}, nil
	}
}
