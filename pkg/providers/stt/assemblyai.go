package stt

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// AssemblyAISTT transcribes through AssemblyAI's async flow: upload the
// audio, submit a transcription job, then poll until it completes. Too
// slow for the live turn loop; kept for offline re-transcription of
// recorded calls.
type AssemblyAISTT struct {
	apiKey       string
	baseURL      string
	sampleRate   int
	pollInterval time.Duration
}

func NewAssemblyAISTT(apiKey string) *AssemblyAISTT {
	return &AssemblyAISTT{
		apiKey:       apiKey,
		baseURL:      "https://api.assemblyai.com/v2",
		sampleRate:   16000,
		pollInterval: 500 * time.Millisecond,
	}
}

// SetSampleRate records the capture rate for the uploaded WAV header.
func (s *AssemblyAISTT) SetSampleRate(rate int) { s.sampleRate = rate }

func (s *AssemblyAISTT) Transcribe(ctx context.Context, audioPCM []byte, lang providers.Language) (string, error) {
	uploadURL, err := s.upload(ctx, audio.EncodeWAV(audioPCM, s.sampleRate, 1))
	if err != nil {
		return "", err
	}
	jobID, err := s.submit(ctx, uploadURL, lang)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			text, status, err := s.poll(ctx, jobID)
			if err != nil {
				return "", err
			}
			switch status {
			case "completed":
				return text, nil
			case "error":
				return "", errors.New("assemblyai: transcription job failed")
			}
		}
	}
}

func (s *AssemblyAISTT) upload(ctx context.Context, wav []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", bytes.NewReader(wav))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	if err := providers.DoJSON(s.Name(), req, &result); err != nil {
		return "", err
	}
	if result.UploadURL == "" {
		return "", errors.New("assemblyai: upload returned no url")
	}
	return result.UploadURL, nil
}

func (s *AssemblyAISTT) submit(ctx context.Context, uploadURL string, lang providers.Language) (string, error) {
	payload := map[string]interface{}{"audio_url": uploadURL}
	if lang != "" {
		payload["language_code"] = string(lang)
	}

	var result struct {
		ID string `json:"id"`
	}
	header := http.Header{"Authorization": {s.apiKey}}
	if err := providers.PostJSON(ctx, s.Name(), s.baseURL+"/transcript", header, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("assemblyai: submit returned no job id")
	}
	return result.ID, nil
}

func (s *AssemblyAISTT) poll(ctx context.Context, id string) (text, status string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	var result struct {
		Status string `json:"status"`
		Text   string `json:"text"`
	}
	if err := providers.DoJSON(s.Name(), req, &result); err != nil {
		return "", "", err
	}
	return result.Text, result.Status, nil
}

func (s *AssemblyAISTT) Name() string { return "assemblyai-stt" }
