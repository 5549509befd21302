package tts

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// ProviderBackend adapts an providers.TTSProvider (e.g.
// pkg/providers/tts.LokutorTTS, which returns PCM16 little-endian bytes
// over a websocket) to the Backend interface the chunked streaming engine
// expects.
type ProviderBackend struct {
	Provider   providers.TTSProvider
	Voice      providers.Voice
	Language   providers.Language
	SampleRate int
}

// NewProviderBackend wraps an existing providers.TTSProvider.
func NewProviderBackend(p providers.TTSProvider, voice providers.Voice, lang providers.Language, sampleRate int) *ProviderBackend {
	if sampleRate == 0 {
		sampleRate = 22050
	}
	return &ProviderBackend{Provider: p, Voice: voice, Language: lang, SampleRate: sampleRate}
}

func (b *ProviderBackend) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	raw, err := b.Provider.Synthesize(ctx, text, b.Voice, b.Language)
	if err != nil {
		return nil, 0, err
	}
	return pcm16ToFloat32(raw), b.SampleRate, nil
}

func (b *ProviderBackend) Name() string { return b.Provider.Name() }

func pcm16ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		out[i] = float32(sample) / math.MaxInt16
	}
	return out
}
