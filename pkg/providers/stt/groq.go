package stt

import (
	"context"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// GroqSTT transcribes utterances through Groq's hosted Whisper endpoint.
type GroqSTT struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
}

func NewGroqSTT(apiKey string, model string) *GroqSTT {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqSTT{
		apiKey:     apiKey,
		url:        "https://api.groq.com/openai/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
	}
}

// SetSampleRate records the capture rate so the WAV header written around
// each utterance matches the device.
func (s *GroqSTT) SetSampleRate(rate int) { s.sampleRate = rate }

func (s *GroqSTT) Transcribe(ctx context.Context, audioPCM []byte, lang providers.Language) (string, error) {
	fields := map[string]string{"model": s.model}
	if lang != "" {
		fields["language"] = string(lang)
	}
	wav := audio.EncodeWAV(audioPCM, s.sampleRate, 1)
	return transcribeMultipart(ctx, s.Name(), s.url, s.apiKey, fields, wav)
}

func (s *GroqSTT) Name() string { return "groq-stt" }
