// Package session wires the standalone pipeline packages (pkg/vad, pkg/stt,
// pkg/sentence, pkg/turn, pkg/interrupt, pkg/dst, pkg/stage, pkg/context,
// pkg/rag, pkg/llm, pkg/tts) into one running conversation per call,
// matching the frame-bus processor-chain architecture.
package session

import (
	"context"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// ASR is the speech-to-text boundary the ingest stage calls once the VAD
// confirms an utterance has ended. Every shipped provider
// (pkg/providers/stt/*) is batch-only, so the live audio chain buffers one
// utterance at a time and calls Transcribe on VoiceEnd rather than
// streaming raw frames into pkg/stt.Decoder, which expects externally
// produced per-frame acoustic log-probabilities no shipped provider
// exposes.
type ASR interface {
	Transcribe(ctx context.Context, audioPCM []byte, lang string) (string, error)
	Name() string
}

// providerASR adapts an providers.STTProvider to ASR.
type providerASR struct {
	provider providers.STTProvider
}

// NewProviderASR wraps an existing providers.STTProvider (e.g.
// pkg/providers/stt.DeepgramSTT) as an ASR.
func NewProviderASR(p providers.STTProvider) ASR {
	return &providerASR{provider: p}
}

func (a *providerASR) Transcribe(ctx context.Context, audioPCM []byte, lang string) (string, error) {
	return a.provider.Transcribe(ctx, audioPCM, providers.Language(lang))
}

func (a *providerASR) Name() string { return a.provider.Name() }
