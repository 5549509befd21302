package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// AnthropicLLM talks to the Anthropic messages endpoint. System turns are
// lifted out of the message list into the top-level system field the API
// expects.
type AnthropicLLM struct {
	apiKey string
	url    string
	model  string
}

func NewAnthropicLLM(apiKey string, model string) *AnthropicLLM {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicLLM{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
	}
}

func (l *AnthropicLLM) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	var system string
	chat := make([]providers.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		chat = append(chat, m)
	}

	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   chat,
		"max_tokens": 1024,
	}
	if system != "" {
		payload["system"] = system
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	header := http.Header{
		"X-Api-Key":         {l.apiKey},
		"Anthropic-Version": {"2023-06-01"},
	}
	if err := providers.PostJSON(ctx, l.Name(), l.url, header, payload, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", errors.New("anthropic: empty content in completion response")
	}
	return result.Content[0].Text, nil
}

func (l *AnthropicLLM) Name() string { return "anthropic-llm" }
