package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmctx "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/context"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/domain"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/interrupt"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/llm"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/rag"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/sentence"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/stage"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/tts"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/turn"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/vad"
)

func loadGoldloan(t *testing.T) *domain.MasterDomainConfig {
	t.Helper()
	cfg, report, err := domain.Load("../../config", "goldloan")
	require.NoError(t, err)
	require.False(t, report.HasCriticals())
	return cfg
}

type fakeASR struct {
	text    string
	lastPCM []byte
}

func (f *fakeASR) Transcribe(ctx context.Context, audioPCM []byte, lang string) (string, error) {
	f.lastPCM = audioPCM
	return f.text, nil
}

func (f *fakeASR) Name() string { return "fake-asr" }

type fakeLLMBackend struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (f *fakeLLMBackend) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, session *llm.Session) (llm.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return llm.Result{Text: f.text, Tokens: llm.EstimateTokens(f.text), FinishReason: "stop"}, nil
}

func (f *fakeLLMBackend) Name() string { return "fake-llm" }

type fakeTTSBackend struct{}

func (fakeTTSBackend) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	return make([]float32, 160), 22050, nil
}

func (fakeTTSBackend) Name() string { return "fake-tts" }

func TestBuildGoalSchemaFromDomain(t *testing.T) {
	cfg := loadGoldloan(t)
	schema := BuildGoalSchema(cfg)

	require.NotEmpty(t, schema.Goals)
	require.NotEmpty(t, schema.IntentToGoal)
	assert.NotEmpty(t, schema.DefaultGoalID)

	for intent, goalID := range schema.IntentToGoal {
		_, ok := schema.Goals[goalID]
		assert.True(t, ok, "intent %q maps to unknown goal %q", intent, goalID)
	}
}

func TestBuildToolDefinitionsShape(t *testing.T) {
	cfg := loadGoldloan(t)
	tools := BuildToolDefinitions(cfg)

	require.NotEmpty(t, tools)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Name)
		assert.Equal(t, "object", tool.Parameters["type"])
		_, ok := tool.Parameters["properties"].(map[string]interface{})
		assert.True(t, ok, "tool %q has no properties map", tool.Name)
	}
}

func TestBuildSystemPromptIncludesStageGuidance(t *testing.T) {
	cfg := loadGoldloan(t)
	prompt := BuildSystemPrompt(cfg, stage.Greeting, "")

	assert.Contains(t, prompt, "Current stage: Greeting")
}

func TestSTTStageBuffersOneUtterance(t *testing.T) {
	asr := &fakeASR{text: "hello world"}
	s := NewSTTStage(asr, "en")
	ctx := context.Background()

	out, err := s.Process(ctx, bus.NewVoiceStartFrame(0))
	require.NoError(t, err)
	assert.Empty(t, out)

	samples := make([]float32, 320)
	frame := audio.NewFrame(samples, audio.Rate16k, audio.Mono, 1, 0)
	out, err = s.Process(ctx, bus.NewAudioInFrame(frame))
	require.NoError(t, err)
	require.Len(t, out, 1) // audio passes through

	out, err = s.Process(ctx, bus.NewVoiceEndFrame(2))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, bus.KindFinalTranscript, out[0].Kind)
	assert.Equal(t, "hello world", out[0].Transcript)
	assert.Len(t, asr.lastPCM, 640) // 320 samples as PCM16
}

func TestSTTStageEmptyUtteranceEmitsNothing(t *testing.T) {
	s := NewSTTStage(&fakeASR{text: "ignored"}, "en")
	ctx := context.Background()

	_, err := s.Process(ctx, bus.NewVoiceStartFrame(0))
	require.NoError(t, err)
	out, err := s.Process(ctx, bus.NewVoiceEndFrame(1))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSentenceStageSplitsFinalChunk(t *testing.T) {
	s := NewSentenceStage(sentence.New(sentence.DefaultConfig()))

	out, err := s.Process(context.Background(), bus.NewLLMChunkFrame("Hello world. How are you?", true))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Hello world.", out[0].SentenceText)
	assert.Equal(t, "How are you?", out[1].SentenceText)
	assert.False(t, out[0].SentenceIsFinal)
	assert.True(t, out[1].SentenceIsFinal)
}

func TestTTSStageSynthesizesSentence(t *testing.T) {
	engine := tts.NewEngine(tts.DefaultChunkerConfig(), fakeTTSBackend{})
	s := NewTTSStage(engine)

	out, err := s.Process(context.Background(), bus.NewSentenceFrame("Hello there, caller.", "en", 0, true))
	require.NoError(t, err)
	require.NotEmpty(t, out)

	var audioFrames, complete int
	for _, f := range out {
		switch f.Kind {
		case bus.KindAudioOut:
			audioFrames++
			assert.NotEmpty(t, f.AudioOutSamples)
		case bus.KindAgentTurnComplete:
			complete++
		}
	}
	assert.Greater(t, audioFrames, 0)
	assert.Equal(t, 1, complete)
}

func newTestSession(t *testing.T, llmBackend llm.Backend, onAudio func([]float32, int)) *Session {
	t.Helper()
	return New(Config{
		Domain:   loadGoldloan(t),
		Language: "en",

		ASR:      &fakeASR{text: "I want a loan"},
		LLM:      llmBackend,
		TTS:      fakeTTSBackend{},
		Dense:    rag.NewInMemoryStore(),
		Sparse:   rag.NewNoopSparseStore(),
		Embedder: rag.NewNoopEmbedder(8),

		VADConfig:       vad.DefaultConfig(),
		VADBackend:      vad.NewEnergyThresholdBackend(-50),
		TurnConfig:      turn.DefaultConfig(),
		InterruptConfig: interrupt.Config{Mode: interrupt.Immediate, GracePeriodMs: 0},
		ContextConfig:   llmctx.DefaultConfig(),
		RAGConfig:       rag.DefaultConfig(),
		AgenticConfig:   rag.SmallModelPreset(),
		SentenceConfig:  sentence.DefaultConfig(),
		ChunkerConfig:   tts.DefaultChunkerConfig(),
		LLMConfig:       llm.DefaultConfig(),

		OnAudioOut: onAudio,
	})
}

func TestSessionTurnProducesAudio(t *testing.T) {
	audioOut := make(chan int, 64)
	backend := &fakeLLMBackend{text: "Namaste! I can help with that."}
	sess := newTestSession(t, backend, func(samples []float32, rate int) {
		audioOut <- len(samples)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	sess.InboundIn() <- bus.NewFinalTranscriptFrame("I am interested in a gold loan", "en", 0.95)

	select {
	case n := <-audioOut:
		assert.Greater(t, n, 0)
	case <-time.After(5 * time.Second):
		t.Fatal("no audio out within deadline")
	}

	backend.mu.Lock()
	assert.GreaterOrEqual(t, backend.calls, 1)
	backend.mu.Unlock()

	cancel()
	<-done
}
