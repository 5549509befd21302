// Package tts holds speech-synthesis clients producing PCM16 audio.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
)

// NativeSampleRate is the rate Lokutor emits PCM16 at.
const NativeSampleRate = 22050

// LokutorTTS streams synthesis over a persistent websocket. One request
// is in flight at a time; the connection is dropped and re-dialed on any
// read or write failure.
type LokutorTTS struct {
	apiKey     string
	host       string
	hostScheme string
	mu         sync.Mutex
	conn       *websocket.Conn
}

func NewLokutorTTS(apiKey string) *LokutorTTS {
	return &LokutorTTS{
		apiKey:     apiKey,
		host:       "api.lokutor.com",
		hostScheme: "wss",
	}
}

// SampleRate reports the PCM16 rate of emitted chunks.
func (t *LokutorTTS) SampleRate() int { return NativeSampleRate }

func (t *LokutorTTS) dialLocked(ctx context.Context) (*websocket.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	u := url.URL{Scheme: t.hostScheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("lokutor: dial: %w", err)
	}
	t.conn = conn
	return conn, nil
}

// Synthesize collects the full streamed utterance into one buffer.
func (t *LokutorTTS) Synthesize(ctx context.Context, text string, voice providers.Voice, lang providers.Language) ([]byte, error) {
	var pcm []byte
	err := t.StreamSynthesize(ctx, text, voice, lang, func(chunk []byte) error {
		pcm = append(pcm, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pcm, nil
}

// StreamSynthesize sends one synthesis request and invokes onChunk for
// each binary PCM16 frame until the server signals end of stream.
func (t *LokutorTTS) StreamSynthesize(ctx context.Context, text string, voice providers.Voice, lang providers.Language, onChunk func([]byte) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.dialLocked(ctx)
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"text":    text,
		"voice":   string(voice),
		"lang":    string(lang),
		"speed":   1.05,
		"steps":   5,
		"version": "versa-1.0",
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.dropLocked(conn)
		return fmt.Errorf("lokutor: send request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.dropLocked(conn)
			return fmt.Errorf("lokutor: read: %w", err)
		}
		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if strings.HasPrefix(msg, "ERR:") {
				return fmt.Errorf("lokutor: %s", strings.TrimPrefix(msg, "ERR:"))
			}
		}
	}
}

func (t *LokutorTTS) dropLocked(conn *websocket.Conn) {
	conn.Close(websocket.StatusAbnormalClosure, "request failed")
	t.conn = nil
}

func (t *LokutorTTS) Name() string { return "lokutor" }

// Close tears down the persistent connection.
func (t *LokutorTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close(websocket.StatusNormalClosure, "")
	t.conn = nil
	return err
}
