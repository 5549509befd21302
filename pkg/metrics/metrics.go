// Package metrics holds the process-wide Prometheus collectors and the
// OpenTelemetry tracer. Both are global, monotonically accumulating
// state; pipeline stages obtain them via package-level functions rather
// than threading a registry handle through every constructor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_agent_sessions_active",
		Help: "Currently active conversation sessions.",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_agent_sessions_total",
		Help: "Total conversation sessions started.",
	})

	StageLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_agent_stage_latency_seconds",
		Help:    "Per-pipeline-stage processing latency.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"stage"})

	TurnLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_agent_turn_latency_seconds",
		Help:    "End-to-end latency from end-of-user-turn to first audio-out frame.",
		Buckets: []float64{0.1, 0.2, 0.3, 0.5, 0.8, 1, 1.5, 2, 3, 5},
	})

	StageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_agent_stage_errors_total",
		Help: "Recoverable and fatal errors by stage and kind.",
	}, []string{"stage", "kind"})

	VADSpeechSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_agent_vad_speech_segments_total",
		Help: "Speech segments confirmed by the VAD state machine.",
	})

	BargeInsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_agent_barge_ins_total",
		Help: "Barge-in events by interrupt-handler decision.",
	}, []string{"decision"})

	RAGRetrievalSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_agent_rag_retrieval_seconds",
		Help:    "Hybrid retrieval latency, embed+search+rerank.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1},
	})

	RAGRefinementIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_agent_rag_refinement_iterations",
		Help:    "Agentic RAG query-rewrite iterations consumed per search.",
		Buckets: []float64{0, 1, 2, 3, 4},
	})

	LLMTokensPerSecond = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_agent_llm_tokens_per_second",
		Help:    "Observed LLM generation throughput.",
		Buckets: []float64{5, 10, 20, 40, 80, 160},
	})

	LLMRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_agent_llm_retries_total",
		Help: "LLM adapter retry attempts after transient I/O errors.",
	})

	DSTSlotUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_agent_dst_slot_updates_total",
		Help: "Dialogue-state slot writes by change source.",
	}, []string{"source"})

	StageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_agent_stage_transitions_total",
		Help: "Conversation-stage FSM transitions.",
	}, []string{"from", "to"})
)
