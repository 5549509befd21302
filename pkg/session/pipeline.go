package session

import (
	"context"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/sentence"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/tts"
)

// SentenceStage is a bus.Processor wrapping pkg/sentence.Detector: it
// assembles streamed LLM output into sentence-sized frames ready for
// synthesis.
type SentenceStage struct {
	detector *sentence.Detector
}

func NewSentenceStage(d *sentence.Detector) *SentenceStage { return &SentenceStage{detector: d} }

func (s *SentenceStage) Name() string                      { return "sentence" }
func (s *SentenceStage) OnStart(ctx context.Context) error { return nil }
func (s *SentenceStage) OnStop(ctx context.Context) error  { return nil }

func (s *SentenceStage) Process(ctx context.Context, f *bus.Frame) ([]*bus.Frame, error) {
	switch f.Kind {
	case bus.KindLLMChunk:
		var out []*bus.Frame
		for _, sent := range s.detector.Process(f.LLMChunkText) {
			out = append(out, bus.NewSentenceFrame(sent.Text, sent.Language, sent.Index, false))
		}
		if f.LLMChunkFinal {
			if rest := s.detector.Flush(); rest != nil {
				out = append(out, bus.NewSentenceFrame(rest.Text, rest.Language, rest.Index, false))
			}
			if len(out) > 0 {
				out[len(out)-1].SentenceIsFinal = true
			}
		}
		return out, nil
	case bus.KindControl:
		if f.Control == bus.ControlFlush {
			if rest := s.detector.Flush(); rest != nil {
				sentFrame := bus.NewSentenceFrame(rest.Text, rest.Language, rest.Index, true)
				return []*bus.Frame{sentFrame}, nil
			}
		}
		return nil, nil
	default:
		return []*bus.Frame{f}, nil
	}
}

// TTSStage is a bus.Processor wrapping pkg/tts.Engine: it synthesizes each
// incoming sentence to completion (or until barged in), emitting AudioOut
// frames in order. The Engine is also held directly by Session so
// a barge-in detected on the inbound chain can interrupt mid-sentence
// without routing through the bounded frame channel.
type TTSStage struct {
	engine *tts.Engine
}

func NewTTSStage(e *tts.Engine) *TTSStage { return &TTSStage{engine: e} }

func (s *TTSStage) Name() string                      { return "tts" }
func (s *TTSStage) OnStart(ctx context.Context) error { return nil }
func (s *TTSStage) OnStop(ctx context.Context) error  { return nil }

func (s *TTSStage) Process(ctx context.Context, f *bus.Frame) ([]*bus.Frame, error) {
	if f.Kind != bus.KindSentence {
		return []*bus.Frame{f}, nil
	}
	isFinalSentence := f.SentenceIsFinal
	s.engine.Start(f.SentenceText)

	var out []*bus.Frame
	for {
		ev, ok, err := s.engine.ProcessNext(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		switch ev.Kind {
		case tts.EventAudio:
			out = append(out, bus.NewAudioOutFrame(ev.Samples, audio.SampleRate(ev.SampleRate), ev.WordIndices[:], ev.IsFinal))
		case tts.EventBargedIn:
			out = append(out, bus.NewBargeInFrame(ev.WordIndex, ""))
			return out, nil
		case tts.EventComplete:
			if isFinalSentence {
				out = append(out, bus.NewAgentTurnCompleteFrame())
			}
			return out, nil
		}
	}
	return out, nil
}
