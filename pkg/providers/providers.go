// Package providers defines the boundary between the pipeline core and
// the hosted speech and language services it calls: batch speech-to-text,
// chat completion, and streaming speech synthesis. Concrete clients live
// in the llm, stt and tts subpackages; the core only sees these
// interfaces and never branches on a provider's identity.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one chat turn in provider wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Language selects the recognition / synthesis language. The pipeline is
// built for Indic scripts mixed with English, so the Indic set leads.
type Language string

const (
	LanguageEn Language = "en"
	LanguageHi Language = "hi"
	LanguageBn Language = "bn"
	LanguageTa Language = "ta"
	LanguageTe Language = "te"
	LanguageMr Language = "mr"
	LanguageGu Language = "gu"
	LanguageKn Language = "kn"
)

// Voice names a synthesis voice preset.
type Voice string

const (
	VoiceF1 Voice = "F1"
	VoiceF2 Voice = "F2"
	VoiceF3 Voice = "F3"
	VoiceM1 Voice = "M1"
	VoiceM2 Voice = "M2"
	VoiceM3 Voice = "M3"
)

// STTProvider transcribes one buffered utterance of PCM16 audio.
type STTProvider interface {
	Transcribe(ctx context.Context, audioPCM []byte, lang Language) (string, error)
	Name() string
}

// LLMProvider produces one chat completion for a message history.
type LLMProvider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// TTSProvider synthesizes text to raw PCM16 little-endian bytes, either
// whole or chunk by chunk as synthesis progresses.
type TTSProvider interface {
	Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error)
	StreamSynthesize(ctx context.Context, text string, voice Voice, lang Language, onChunk func([]byte) error) error
	Name() string
}

// StatusError is a non-2xx HTTP response from a provider. Callers use
// the code to decide whether retrying can help: 4xx other than 429 will
// fail identically on every attempt.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether the failure is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// HTTPClient is the shared client for provider calls. Per-request
// deadlines come from the caller's context; this timeout is the backstop
// for requests issued without one.
var HTTPClient = &http.Client{Timeout: 60 * time.Second}

// DoJSON sends req, decodes a JSON response body into out (unless out is
// nil), and converts non-2xx responses into *StatusError with the body
// captured for diagnostics.
func DoJSON(provider string, req *http.Request, out interface{}) error {
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Provider: provider, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}

// PostJSON marshals payload and POSTs it to url with the given headers,
// then decodes the response via DoJSON.
func PostJSON(ctx context.Context, provider, url string, header http.Header, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return DoJSON(provider, req, out)
}
