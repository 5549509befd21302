package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// OpenAILLM talks to the OpenAI chat completions endpoint.
type OpenAILLM struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAILLM(apiKey string, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILLM{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
	}
}

func (l *OpenAILLM) Complete(ctx context.Context, messages []providers.Message) (string, error) {
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
		return "", errors.New("openai: empty choices in completion response")
	}
	return result.Choices[0].Message.Content, nil
}

func (l *OpenAILLM) Name() string { return "openai-llm" }
