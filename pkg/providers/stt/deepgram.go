package stt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// DeepgramSTT transcribes utterances through Deepgram's listen endpoint.
// Raw linear PCM is posted directly; the rate/channel layout travels in
// the Content-Type header rather than a container.
type DeepgramSTT struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
}

func NewDeepgramSTT(apiKey string) *DeepgramSTT {
	return &DeepgramSTT{
		apiKey:     apiKey,
		url:        "https://api.deepgram.com/v1/listen",
		model:      "nova-2",
		sampleRate: 16000,
	}
}

// SetSampleRate records the capture rate advertised in the Content-Type.
func (s *DeepgramSTT) SetSampleRate(rate int) { s.sampleRate = rate }

func (s *DeepgramSTT) Transcribe(ctx context.Context, audioPCM []byte, lang providers.Language) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}
	params := u.Query()
	params.Set("model", s.model)
	params.Set("smart_format", "true")
	if lang != "" {
		params.Set("language", string(lang))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audioPCM))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d; channels=1", s.sampleRate))

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := providers.DoJSON(s.Name(), req, &result); err != nil {
		return "", err
	}
	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return result.Results.Channels[0].Alternatives[0].Transcript, nil
}

func (s *DeepgramSTT) Name() string { return "deepgram-stt" }
