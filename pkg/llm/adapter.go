// Package llm implements the streaming LLM adapter: retry/backoff,
// KV-cache session reuse, and tool-calling on top of a raw provider
// boundary.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/metrics"
)

// Message is one chat message.
type Message struct {
	Role    string
	Content string
}

// ToolDefinition is a tool a caller offers to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema
}

// ToolCall is one structured tool invocation the model requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Session is the opaque KV-cache handle a backend may return to let the
// next call skip re-processing the prefix.
type Session struct {
	Handle []byte
}

// Result is the outcome of one generate call.
type Result struct {
	Text         string
	Tokens       int
	FirstTokenMs int64
	TotalMs      int64
	TokensPerSec float64
	FinishReason string
	ToolCalls    []ToolCall
	Session      *Session
}

// PermanentError wraps a 4xx/invalid-auth/schema-mismatch failure that must
// not be retried.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Backend is the raw, non-retrying provider boundary a concrete LLM
// integration implements (wraps e.g. pkg/providers/llm.AnthropicLLM).
type Backend interface {
	// Generate performs one non-streaming call. Implementations return a
	// *PermanentError for 4xx-class failures so the adapter does not retry.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition, session *Session) (Result, error)
	Name() string
}

// StreamingBackend additionally supports token streaming.
type StreamingBackend interface {
	Backend
	GenerateStream(ctx context.Context, messages []Message, tools []ToolDefinition, session *Session, onToken func(token string) error) (Result, error)
}

// Config controls the adapter's retry/backoff and timeout behavior.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns the default adapter tuning: a 30s hard
// deadline per request, three retries from a 200ms initial backoff.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, InitialBackoff: 200 * time.Millisecond, RequestTimeout: 30 * time.Second}
}

// Adapter is the streaming+retrying+session-aware LLM adapter.
//
// Adapter is not safe for concurrent Generate calls that share session
// state; callers needing concurrency should hold one Adapter per session
// (one model per conversation, not per call).
type Adapter struct {
	cfg     Config
	backend Backend
	session *Session
}

// New constructs an Adapter over backend.
func New(cfg Config, backend Backend) *Adapter {
	return &Adapter{cfg: cfg, backend: backend}
}

// Generate performs one non-streaming generation, retrying transient
// failures with exponential backoff.
func (a *Adapter) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (Result, error) {
	return a.generate(ctx, messages, tools, nil)
}

// GenerateWithSession is the canonical multi-turn entry point: it passes
// the adapter's held session context to the backend and stores whatever
// session the backend returns.
func (a *Adapter) GenerateWithSession(ctx context.Context, messages []Message, tools []ToolDefinition) (Result, error) {
	return a.generate(ctx, messages, tools, a.session)
}

// ClearSession discards the held KV-cache session handle. Call it at
// conversation boundaries so stale context never leaks across calls.
func (a *Adapter) ClearSession() { a.session = nil }

func (a *Adapter) generate(ctx context.Context, messages []Message, tools []ToolDefinition, session *Session) (Result, error) {
	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.InitialBackoff

	attempt := 0
	result, err := backoff.Retry(ctx, func() (Result, error) {
		attempt++
		if attempt > 1 {
			metrics.LLMRetriesTotal.Inc()
		}
		res, err := a.backend.Generate(ctx, messages, tools, session)
		if err != nil {
			var perm *PermanentError
			if errors.As(err, &perm) {
				return Result{}, backoff.Permanent(err)
			}
			return Result{}, err
		}
		return res, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(a.cfg.MaxRetries+1)))
	if err != nil {
		return Result{}, err
	}
	if result.Session != nil {
		a.session = result.Session
	}
	return result, nil
}

// GenerateStream streams individual token strings into onToken; the final
// result mirrors non-stream plus the updated session.
func (a *Adapter) GenerateStream(ctx context.Context, messages []Message, tools []ToolDefinition, onToken func(token string) error) (Result, error) {
	streaming, ok := a.backend.(StreamingBackend)
	if !ok {
		result, err := a.generate(ctx, messages, tools, a.session)
		if err != nil {
			return Result{}, err
		}
		if onToken != nil && result.Text != "" {
			if err := onToken(result.Text); err != nil {
				return Result{}, err
			}
		}
		return result, nil
	}

	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}

	result, err := streaming.GenerateStream(ctx, messages, tools, a.session, onToken)
	if err != nil {
		return Result{}, err
	}
	if result.Session != nil {
		a.session = result.Session
	}
	return result, nil
}

// EstimateTokens approximates token count: rune count /
// 2 when Devanagari dominates (>1/3 of runes), else /4.
func EstimateTokens(text string) int {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	devanagari := 0
	for _, r := range runes {
		if r >= 0x0900 && r <= 0x097F {
			devanagari++
		}
	}
	divisor := 4
	if float64(devanagari)/float64(len(runes)) > 1.0/3.0 {
		divisor = 2
	}
	return (len(runes) + divisor - 1) / divisor
}

// JoinMessages renders messages as a flat transcript, useful for
// rule-based fallbacks that need a single string.
func JoinMessages(messages []Message) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
