package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// GoogleLLM talks to the Gemini generateContent endpoint. Roles are
// remapped to the Gemini vocabulary: assistant becomes model, and system
// turns are sent as user content since not every Gemini model accepts a
// system role.
type GoogleLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGoogleLLM(apiKey string, model string) *GoogleLLM {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleLLM{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:  model,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

func (l *GoogleLLM) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		switch role {
		case "system":
			role = "user"
		case "assistant":
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	payload := map[string]interface{}{"contents": contents}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := providers.PostJSON(ctx, l.Name(), l.url+"?key="+l.apiKey, http.Header{}, payload, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("google: empty candidates in completion response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (l *GoogleLLM) Name() string { return "google-llm" }
