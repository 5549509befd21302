package stt

import (
	"context"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// OpenAISTT transcribes utterances through the OpenAI Whisper endpoint.
type OpenAISTT struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
}

func NewOpenAISTT(apiKey string, model string) *OpenAISTT {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAISTT{
		apiKey:     apiKey,
		url:        "https://api.openai.com/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
	}
}

// SetSampleRate records the capture rate so the WAV header written around
// each utterance matches the device.
func (s *OpenAISTT) SetSampleRate(rate int) { s.sampleRate = rate }

func (s *OpenAISTT) Transcribe(ctx context.Context, audioPCM []byte, lang providers.Language) (string, error) {
	fields := map[string]string{"model": s.model}
	if lang != "" {
		fields["language"] = string(lang)
	}
	wav := audio.EncodeWAV(audioPCM, s.sampleRate, 1)
	return transcribeMultipart(ctx, s.Name(), s.url, s.apiKey, fields, wav)
}

func (s *OpenAISTT) Name() string { return "openai-stt" }
