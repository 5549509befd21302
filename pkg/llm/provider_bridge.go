package llm

import (
	"context"
	"errors"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// ProviderBackend adapts the non-streaming, non-tool-aware
// providers.LLMProvider (pkg/providers/llm/{anthropic,google,groq,openai})
// to the Backend interface so the retry/session/tool machinery in Adapter
// can sit in front of any of them.
type ProviderBackend struct {
	Provider providers.LLMProvider
}

// classifyError wraps non-retryable provider failures (bad request,
// invalid auth, schema mismatch) as PermanentError so the adapter does
// not waste retries on a request that will never succeed. 429 stays
// retryable: it is the one 4xx that is transient.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr *providers.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return &PermanentError{Err: err}
	}
	return err
}

func toProviderMessages(messages []Message) []providers.Message {
	out := make([]providers.Message, len(messages))
	for i, m := range messages {
		out[i] = providers.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func (b *ProviderBackend) Generate(ctx context.Context, messages []Message, tools []ToolDefinition, session *Session) (Result, error) {
	text, err := b.Provider.Complete(ctx, toProviderMessages(messages))
	if err != nil {
		return Result{}, classifyError(err)
	}
	return Result{Text: text, Tokens: EstimateTokens(text), FinishReason: "stop"}, nil
}

func (b *ProviderBackend) Name() string { return b.Provider.Name() }

// NewProviderBackend wraps an existing providers.LLMProvider.
func NewProviderBackend(p providers.LLMProvider) *ProviderBackend {
	return &ProviderBackend{Provider: p}
}
