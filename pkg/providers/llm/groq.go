package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// GroqLLM talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGroqLLM(apiKey string, model string) *GroqLLM {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqLLM{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
	}
}

func (l *GroqLLM) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": messages,
	}

	var result chatCompletionResponse
	header := http.Header{"Authorization": {"Bearer " + l.apiKey}}
	if err := providers.PostJSON(ctx, l.Name(), l.url, header, payload, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", errors.New("groq: empty choices in completion response")
	}
	return result.Choices[0].Message.Content, nil
}

func (l *GroqLLM) Name() string { return "groq-llm" }

// chatCompletionResponse is the OpenAI-compatible response shape shared
// by the Groq and OpenAI clients.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
