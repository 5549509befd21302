package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

var history = []providers.Message{
	{Role: "system", Content: "be brief"},
	{Role: "user", Content: "hello"},
}

func TestGroqComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req struct {
			Model    string              `json:"model"`
			Messages []providers.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
		assert.Len(t, req.Messages, 2)
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from groq"}}]}`))
	}))
	defer server.Close()

	client := NewGroqLLM("test-key", "")
	client.url = server.URL

	text, err := client.Complete(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "hello from groq", text)
}

func TestOpenAICompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAILLM("test-key", "gpt-4o")
	client.url = server.URL

	_, err := client.Complete(context.Background(), history)
	require.Error(t, err)
}

func TestAnthropicCompleteLiftsSystemTurn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		var req struct {
			System   string              `json:"system"`
			Messages []providers.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		w.Write([]byte(`{"content":[{"text":"hello from anthropic"}]}`))
	}))
	defer server.Close()

	client := NewAnthropicLLM("test-key", "")
	client.url = server.URL

	text, err := client.Complete(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "hello from anthropic", text)
}

func TestGoogleCompleteRemapsRoles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		var req struct {
			Contents []geminiContent `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 3)
		assert.Equal(t, "user", req.Contents[0].Role)  // system folded in
		assert.Equal(t, "model", req.Contents[2].Role) // assistant remapped
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}]}}]}`))
	}))
	defer server.Close()

	client := NewGoogleLLM("test-key", "")
	client.url = server.URL

	text, err := client.Complete(context.Background(), append(history,
		providers.Message{Role: "assistant", Content: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "hello from gemini", text)
}

func TestCompleteSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewGroqLLM("bad-key", "")
	client.url = server.URL

	_, err := client.Complete(context.Background(), history)
	var statusErr *providers.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.False(t, statusErr.Temporary())
}
