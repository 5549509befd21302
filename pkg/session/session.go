package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	llmctx "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/context"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/domain"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/dst"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/interrupt"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/llm"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/metrics"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/rag"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/sentence"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/stage"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/tts"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/turn"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/vad"
)

// defaultStageIntentMap maps the domain's business intents onto the stage
// FSM's generic sales-call intents. A real deployment would derive
// this from an intent classifier trained per domain; absent one, Session
// applies this fixed heuristic and lets callers override it with
// SetStageIntentMapping.
var defaultStageIntentMap = map[string]string{
	"inquiry": "interested",
}

// Config bundles everything Session needs to wire the standalone pipeline
// packages into one running conversation.
type Config struct {
	Domain    *domain.MasterDomainConfig
	SegmentID string
	Language  string

	ASR      ASR
	LLM      llm.Backend
	TTS      tts.Backend
	Dense    rag.VectorStore
	Sparse   rag.SparseStore
	Embedder rag.Embedder
	Reranker rag.Reranker

	VADConfig       vad.Config
	VADBackend      vad.InferenceBackend
	TurnConfig      turn.Config
	TurnClassifier  turn.Classifier
	InterruptConfig interrupt.Config
	ContextConfig   llmctx.Config
	Summarizer      llmctx.Summarizer
	RAGConfig       rag.Config
	AgenticConfig   rag.AgenticConfig
	SentenceConfig  sentence.Config
	ChunkerConfig   tts.ChunkerConfig
	LLMConfig       llm.Config

	OnAudioOut func(samples []float32, sampleRate int)
}

// Session is one live conversation: the frame-bus chains carrying audio in
// and speech out, plus the dialogue-management stack (DST, goal schema,
// stage FSM, context compression, RAG, LLM) that bridges between them.
type Session struct {
	cfg Config
	id  string

	domainCfg *domain.MasterDomainConfig
	schema    *dst.Schema
	tracker   *dst.Tracker
	stageFSM  *stage.FSM
	tools     []llm.ToolDefinition

	compressor *llmctx.Compressor
	retriever  *rag.AgenticRetriever
	llmAdapter *llm.Adapter

	vadInstance      *vad.VAD
	turnDetector     *turn.Detector
	interruptHandler *interrupt.Handler
	sentenceDetector *sentence.Detector
	ttsEngine        *tts.Engine

	inbound  *bus.Chain
	outbound *bus.Chain

	mu              sync.Mutex
	history         []llmctx.Turn
	turnIndex       int
	language        string
	agentSpeaking   bool
	currentSentence uint64
	stageIntentMap  map[string]string
	turnStarted     time.Time
	awaitFirstAudio bool
}

// New constructs a Session wiring every standalone pipeline package over
// cfg's backends and domain configuration.
func New(cfg Config) *Session {
	schema := BuildGoalSchema(cfg.Domain)
	tracker := dst.New(dst.DefaultConfig(), schema)
	stageFSM := stage.New(stage.DefaultConfig())
	compressor := llmctx.New(cfg.ContextConfig, cfg.Summarizer)

	var rewriter rag.QueryRewriter
	llmAdapter := llm.New(cfg.LLMConfig, cfg.LLM)
	if cfg.LLM != nil {
		rewriter = &adapterRewriter{adapter: llmAdapter}
	}
	retriever := rag.NewAgenticRetriever(
		cfg.AgenticConfig,
		rag.New(cfg.RAGConfig, cfg.Dense, cfg.Sparse, cfg.Embedder, cfg.Reranker),
		rag.NewNormalizer(nil),
		rewriter,
		nil,
	)

	s := &Session{
		cfg:              cfg,
		id:               uuid.NewString(),
		domainCfg:        cfg.Domain,
		schema:           schema,
		tracker:          tracker,
		stageFSM:         stageFSM,
		tools:            BuildToolDefinitions(cfg.Domain),
		compressor:       compressor,
		retriever:        retriever,
		llmAdapter:       llmAdapter,
		vadInstance:      vad.New(cfg.VADConfig, cfg.VADBackend),
		turnDetector:     turn.New(cfg.TurnConfig, cfg.TurnClassifier),
		interruptHandler: interrupt.New(cfg.InterruptConfig),
		sentenceDetector: sentence.New(cfg.SentenceConfig),
		ttsEngine:        tts.NewEngine(cfg.ChunkerConfig, cfg.TTS),
		language:         cfg.Language,
		stageIntentMap:   defaultStageIntentMap,
	}

	s.inbound = bus.NewChain([]bus.Processor{
		NewVADStage(s.vadInstance),
		NewSTTStage(cfg.ASR, cfg.Language),
	})
	s.outbound = bus.NewChain([]bus.Processor{
		NewSentenceStage(s.sentenceDetector),
		NewTTSStage(s.ttsEngine),
	})

	return s
}

// SetStageIntentMapping overrides the domain-intent to stage-FSM-intent
// heuristic.
func (s *Session) SetStageIntentMapping(m map[string]string) { s.stageIntentMap = m }

// ID returns the session's unique identifier, generated once at
// construction. Used to correlate trace spans, metrics, and log lines
// for one call across the lifetime of the process.
func (s *Session) ID() string { return s.id }

// InboundIn returns the channel audio-in frames should be pushed into.
func (s *Session) InboundIn() chan<- *bus.Frame { return s.inbound.In() }

// Run drives both chains and the dialogue loop until ctx is cancelled or
// the inbound chain reaches end-of-stream.
func (s *Session) Run(ctx context.Context) error {
	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.inbound.Run(ctx) })
	g.Go(func() error { return s.outbound.Run(ctx) })
	g.Go(func() error { return s.consumeInbound(ctx) })
	g.Go(func() error { return s.consumeOutbound(ctx) })

	return g.Wait()
}

func (s *Session) consumeInbound(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-s.inbound.Out():
			if !ok {
				return nil
			}
			switch f.Kind {
			case bus.KindVoiceStart:
				s.turnDetector.OnVAD(turn.VADSpeechStart, time.Now().UnixMilli())
				s.onVoiceStart()
			case bus.KindVoiceEnd:
				s.turnDetector.OnVAD(turn.VADSilenceStart, time.Now().UnixMilli())
			case bus.KindFinalTranscript:
				if err := s.HandleUserTurn(ctx, f.Transcript); err != nil {
					return err
				}
			}
			if f.Kind == bus.KindEndOfStream {
				return nil
			}
		}
	}
}

func (s *Session) consumeOutbound(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-s.outbound.Out():
			if !ok {
				return nil
			}
			switch f.Kind {
			case bus.KindAudioOut:
				s.mu.Lock()
				if s.awaitFirstAudio {
					s.awaitFirstAudio = false
					metrics.TurnLatencySeconds.Observe(time.Since(s.turnStarted).Seconds())
				}
				s.mu.Unlock()
				frameCounter := f.Seq
				s.interruptHandler.OnAudioOut(frameCounter, time.Now().UnixMilli())
				if s.interruptHandler.AllowAudioOut() && s.cfg.OnAudioOut != nil {
					s.cfg.OnAudioOut(f.AudioOutSamples, int(f.AudioOutSampleRate))
				}
			case bus.KindSentence:
				if s.interruptHandler.OnSentence(f.SentenceIndex) {
					continue
				}
				s.mu.Lock()
				s.currentSentence = f.SentenceIndex
				s.mu.Unlock()
			}
		}
	}
}

// onVoiceStart is called whenever the VAD confirms the user began speaking
// (barge-in): if the agent is mid-speech, it resolves the interrupt
// policy and, when the decision calls for it, interrupts the TTS engine
// directly — bypassing the bounded outbound channel so the cut is not
// delayed behind already-queued audio.
func (s *Session) onVoiceStart() {
	s.mu.Lock()
	speaking := s.agentSpeaking
	sentenceIdx := s.currentSentence
	s.mu.Unlock()
	if !speaking {
		return
	}
	decision := s.interruptHandler.OnBargeIn(time.Now().UnixMilli(), sentenceIdx)
	metrics.BargeInsTotal.WithLabelValues(bargeInDecisionLabel(decision)).Inc()
	switch decision {
	case interrupt.DecisionInterruptNow, interrupt.DecisionPendingWordBoundary:
		s.ttsEngine.BargeIn()
	case interrupt.DecisionPendingSentenceBoundary:
		// Committed once a later Sentence frame exceeds the recorded
		// target; consumeOutbound's OnSentence check drops it then.
	}
}

func bargeInDecisionLabel(d interrupt.BargeInDecision) string {
	switch d {
	case interrupt.DecisionDrop:
		return "dropped_grace_period"
	case interrupt.DecisionInterruptNow:
		return "immediate"
	case interrupt.DecisionPendingWordBoundary:
		return "pending_word_boundary"
	case interrupt.DecisionPendingSentenceBoundary:
		return "pending_sentence_boundary"
	default:
		return "unknown"
	}
}

// adapterRewriter implements rag.QueryRewriter over the session's own LLM
// adapter, so the agentic retriever's query-rewriting step reuses the same
// retry/backoff machinery as dialogue generation.
type adapterRewriter struct {
	adapter *llm.Adapter
}

func (r *adapterRewriter) Rewrite(ctx context.Context, query string, conversationContext string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: "Rewrite the user's query to be self-contained and specific, given the conversation so far. Respond with only the rewritten query."},
		{Role: "user", Content: fmt.Sprintf("Conversation so far:\n%s\n\nQuery: %s", conversationContext, query)},
	}
	result, err := r.adapter.Generate(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// HandleUserTurn runs one full dialogue-management cycle over a finalized
// user transcript: objection detection, context compression, hybrid RAG
// retrieval, LLM generation with tool offers, DST/goal updates, stage
// transition, and handing the response text to the outbound TTS chain.
func (s *Session) HandleUserTurn(ctx context.Context, transcript string) error {
	ctx, span := metrics.StartSpan(ctx, "session.HandleUserTurn")
	span.SetAttributes(attribute.String("session.id", s.id))
	defer span.End()

	nowMs := time.Now().UnixMilli()

	s.mu.Lock()
	s.turnIndex++
	turnIndex := s.turnIndex
	span.SetAttributes(attribute.Int("turn.index", turnIndex))
	s.history = append(s.history, llmctx.Turn{Role: "user", Content: transcript, Timestamp: fmt.Sprint(nowMs)})
	history := append([]llmctx.Turn(nil), s.history...)
	currentStage := s.stageFSM.Stage()
	s.mu.Unlock()

	s.turnDetector.UpdateTranscript(transcript)

	var extraGuidance string
	if obj, ok := s.domainCfg.DetectObjection(transcript, s.language); ok {
		// The transition may be rejected (e.g. already in objection
		// handling); the ACRE guidance still applies either way.
		s.applyStageEvent(stage.Event{Kind: stage.EventUserObjection})
		extraGuidance = BuildObjectionGuidance(obj)
		currentStage = s.stageFSM.Stage()
	}

	budget := 1000
	if st, ok := s.domainCfg.Stage(string(currentStage)); ok && st.ContextBudgetTokens > 0 {
		budget = st.ContextBudgetTokens
	}
	compressed, err := s.compressor.Compress(ctx, history, budget)
	if err != nil {
		return err
	}

	ragStart := time.Now()
	agRes, err := s.retriever.Search(ctx, transcript, compressed.Text, nil)
	metrics.RAGRetrievalSeconds.Observe(time.Since(ragStart).Seconds())
	if err != nil {
		metrics.StageErrorsTotal.WithLabelValues("rag", "transient").Inc()
		return err
	}
	metrics.RAGRefinementIterations.Observe(float64(agRes.Iterations))

	systemPrompt := BuildSystemPrompt(s.domainCfg, currentStage, s.cfg.SegmentID)
	if len(agRes.Results) > 0 {
		systemPrompt += "\nRelevant information:\n" + joinResultTexts(agRes.Results)
	}
	if extraGuidance != "" {
		systemPrompt += "\n" + extraGuidance
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: transcript},
	}

	result, err := s.llmAdapter.GenerateWithSession(ctx, messages, s.tools)
	if err != nil {
		metrics.StageErrorsTotal.WithLabelValues("llm", "transient").Inc()
		return err
	}
	if result.TokensPerSec > 0 {
		metrics.LLMTokensPerSecond.Observe(result.TokensPerSec)
	}

	assistantText := result.Text
	if len(result.ToolCalls) > 0 {
		tc := result.ToolCalls[0]
		for key, val := range tc.Arguments {
			s.tracker.SetSlot(key, fmt.Sprint(val), 0.95, turnIndex, nowMs)
			metrics.DSTSlotUpdatesTotal.WithLabelValues("tool_call").Inc()
		}
		if assistantText == "" {
			assistantText = fmt.Sprintf("Got it, let me take care of that (%s) for you.", tc.Name)
		}
		if mapped, ok := s.intentForTool(tc.Name); ok {
			if stageIntent, ok := s.stageIntentMap[mapped]; ok {
				s.applyStageEvent(stage.Event{Kind: stage.EventUserIntent, Intent: stageIntent, Confidence: 0.8})
			}
		}
	}

	s.mu.Lock()
	s.history = append(s.history, llmctx.Turn{Role: "assistant", Content: assistantText, Timestamp: fmt.Sprint(time.Now().UnixMilli())})
	s.agentSpeaking = true
	s.turnStarted = time.UnixMilli(nowMs)
	s.awaitFirstAudio = true
	s.mu.Unlock()

	// A prior turn may have ended via barge-in (interruptHandler left in
	// PendingInterrupt/Interrupted) rather than a clean AgentTurnComplete;
	// every new turn starts output gating fresh: Reset returns the
	// handler to Idle.
	s.interruptHandler.Reset()
	s.turnDetector.EnterAgentSpeaking()

	select {
	case s.outbound.In() <- bus.NewLLMChunkFrame(assistantText, true):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// applyStageEvent wraps stageFSM.Apply to additionally record the
// transition in the stage-transitions counter (the process-wide metrics
// registry), labeling by from/to stage regardless of whether the event
// was accepted or rejected as invalid.
func (s *Session) applyStageEvent(ev stage.Event) ([]stage.Action, error) {
	from := s.stageFSM.Stage()
	actions, err := s.stageFSM.Apply(ev)
	to := s.stageFSM.Stage()
	metrics.StageTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	return actions, err
}

func (s *Session) intentForTool(toolName string) (string, bool) {
	for _, m := range s.domainCfg.Tools.Mappings {
		if m.Tool == toolName {
			return m.Intent, true
		}
	}
	return "", false
}

func joinResultTexts(results []rag.Result) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(r.Text)
	}
	return sb.String()
}
