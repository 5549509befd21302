// Package stt holds batch speech-to-text clients. Each receives one
// VAD-bounded utterance of PCM16 audio and returns its transcript.
package stt

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// transcribeMultipart posts a WAV file plus form fields to a
// Whisper-style transcription endpoint and returns the decoded response.
// Groq and OpenAI share this wire shape.
func transcribeMultipart(ctx context.Context, name, url, bearer string, fields map[string]string, wav []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", err
		}
	}
	part, err := writer.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(wav); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)

	var result struct {
		Text string `json:"text"`
	}
	if err := providers.DoJSON(name, req, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}
