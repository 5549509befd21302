package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	llmctx "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/context"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/bus"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/domain"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/interrupt"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/llm"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/metrics"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers"
	llmProvider "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers/llm"
	sttProvider "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers/stt"
	ttsProvider "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/providers/tts"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/rag"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/sentence"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/session"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/tts"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/turn"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/vad"
)

// interruptMode maps the config vocabulary onto interrupt handler modes.
func interruptMode(name string) interrupt.Mode {
	switch name {
	case "disabled":
		return interrupt.Disabled
	case "immediate":
		return interrupt.Immediate
	case "word_boundary":
		return interrupt.WordBoundary
	default:
		return interrupt.SentenceBoundary
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	domainID := os.Getenv("DOMAIN_ID")
	if domainID == "" {
		log.Fatal("Error: DOMAIN_ID must be set")
	}

	configRoot := os.Getenv("VOICE_AGENT_CONFIG_ROOT")
	if configRoot == "" {
		configRoot = "config"
	}

	appCfg, err := domain.LoadApp(configRoot, os.Getenv("VOICE_AGENT_ENV"))
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	sampleRate := appCfg.Audio.SampleRate
	channels := appCfg.Audio.Channels

	domainCfg, report, err := domain.Load(configRoot, domainID)
	if err != nil {
		log.Fatalf("Error: failed to load domain %q: %v", domainID, err)
	}
	for _, w := range report.Warnings {
		log.Printf("domain config warning: %s", w.Message)
	}
	for _, e := range report.Errors {
		log.Printf("domain config error: %s", e.Message)
	}

	shutdownTracing, err := metrics.InitTracing(context.Background(), "voice-agent-"+domainID)
	if err != nil {
		log.Fatalf("Error: failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("metrics listening on %s/metrics", appCfg.MetricsAddr)
		if err := http.ListenAndServe(appCfg.MetricsAddr, nil); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	googleKey := os.Getenv("GOOGLE_API_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	assemblyKey := os.Getenv("ASSEMBLYAI_API_KEY")
	lokutorKey := os.Getenv("LOKUTOR_API_KEY")

	sttProviderName := os.Getenv("STT_PROVIDER")
	if sttProviderName == "" {
		sttProviderName = appCfg.STTProvider
	}
	llmProviderName := os.Getenv("LLM_PROVIDER")
	if llmProviderName == "" {
		llmProviderName = appCfg.LLMProvider
	}

	lang := os.Getenv("AGENT_LANGUAGE")
	if lang == "" {
		lang = appCfg.Language
	}

	segmentID := os.Getenv("DEFAULT_SEGMENT_ID")
	if segmentID == "" {
		segmentID = appCfg.SegmentID
	}

	if lokutorKey == "" {
		log.Fatal("Error: LOKUTOR_API_KEY must be set.")
	}

	var sttBackend providers.STTProvider
	switch sttProviderName {
	case "openai":
		if openaiKey == "" {
			log.Fatal("Error: OPENAI_API_KEY must be set for openai STT")
		}
		sttBackend = sttProvider.NewOpenAISTT(openaiKey, "whisper-1")
	case "deepgram":
		if deepgramKey == "" {
			log.Fatal("Error: DEEPGRAM_API_KEY must be set for deepgram STT")
		}
		sttBackend = sttProvider.NewDeepgramSTT(deepgramKey)
	case "assemblyai":
		if assemblyKey == "" {
			log.Fatal("Error: ASSEMBLYAI_API_KEY must be set for assemblyai STT")
		}
		sttBackend = sttProvider.NewAssemblyAISTT(assemblyKey)
	case "groq":
		fallthrough
	default:
		if groqKey == "" {
			log.Fatal("Error: GROQ_API_KEY must be set for groq STT")
		}
		groqModel := os.Getenv("GROQ_STT_MODEL")
		if groqModel == "" {
			groqModel = "whisper-large-v3-turbo"
		}
		sttBackend = sttProvider.NewGroqSTT(groqKey, groqModel)
	}
	if s, ok := sttBackend.(interface{ SetSampleRate(int) }); ok {
		s.SetSampleRate(sampleRate)
	}

	var llmBackend providers.LLMProvider
	switch llmProviderName {
	case "openai":
		if openaiKey == "" {
			log.Fatal("Error: OPENAI_API_KEY must be set for openai LLM")
		}
		llmBackend = llmProvider.NewOpenAILLM(openaiKey, "gpt-4o")
	case "anthropic":
		if anthropicKey == "" {
			log.Fatal("Error: ANTHROPIC_API_KEY must be set for anthropic LLM")
		}
		llmBackend = llmProvider.NewAnthropicLLM(anthropicKey, "claude-3-5-sonnet-20241022")
	case "google":
		if googleKey == "" {
			log.Fatal("Error: GOOGLE_API_KEY must be set for google LLM")
		}
		llmBackend = llmProvider.NewGoogleLLM(googleKey, "gemini-1.5-flash")
	case "groq":
		fallthrough
	default:
		if groqKey == "" {
			log.Fatal("Error: GROQ_API_KEY must be set for groq LLM")
		}
		llmBackend = llmProvider.NewGroqLLM(groqKey, "llama-3.3-70b-versatile")
	}

	fmt.Printf("Configured: domain=%s | STT=%s | LLM=%s | TTS=Lokutor\n", domainID, sttProviderName, llmProviderName)
	fmt.Println("Voice Agent Started! Listening to microphone...")
	fmt.Println("Press Ctrl+C to exit")

	ttsBackend := ttsProvider.NewLokutorTTS(lokutorKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var playbackMu sync.Mutex
	var playbackBytes []byte

	sess := session.New(session.Config{
		Domain:    domainCfg,
		SegmentID: segmentID,
		Language:  lang,

		ASR: session.NewProviderASR(sttBackend),
		LLM: &llm.ProviderBackend{Provider: llmBackend},
		TTS: adaptTTSBackend(ttsBackend, lang),

		Dense:    rag.NewInMemoryStore(),
		Sparse:   rag.NewNoopSparseStore(),
		Embedder: rag.NewNoopEmbedder(384),

		VADConfig:       vad.DefaultConfig(),
		VADBackend:      vad.NewEnergyThresholdBackend(-50),
		TurnConfig:      turn.DefaultConfig(),
		InterruptConfig: interrupt.Config{Mode: interruptMode(appCfg.Interrupt.Mode), GracePeriodMs: int64(appCfg.Interrupt.GracePeriodMs)},
		ContextConfig:   llmctx.DefaultConfig(),
		RAGConfig:       rag.DefaultConfig(),
		AgenticConfig:   rag.DefaultAgenticConfig(),
		SentenceConfig:  sentence.DefaultConfig(),
		ChunkerConfig:   tts.DefaultChunkerConfig(),
		LLMConfig:       llm.DefaultConfig(),

		OnAudioOut: func(samples []float32, ttsRate int) {
			// The synthesis rate rarely matches the playback device;
			// resample before queueing for the duplex callback.
			if ttsRate != sampleRate {
				samples = audio.Resample(samples, audio.SampleRate(ttsRate), audio.SampleRate(sampleRate))
			}
			frame := audio.NewFrame(samples, audio.SampleRate(sampleRate), audio.Mono, 0, 0)
			pcm := audio.FrameToPCM16(frame)
			playbackMu.Lock()
			playbackBytes = append(playbackBytes, pcm...)
			playbackMu.Unlock()
		},
	})

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- sess.Run(ctx) }()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	var rmsMu sync.Mutex
	lastRMS := 0.0
	var seq uint64

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput != nil {
			var sum float64
			for i := 0; i < len(pInput)-1; i += 2 {
				s := int16(pInput[i]) | (int16(pInput[i+1]) << 8)
				f := float64(s) / 32768.0
				sum += f * f
			}
			rms := math.Sqrt(sum / float64(len(pInput)/2))
			rmsMu.Lock()
			lastRMS = rms
			rmsMu.Unlock()

			// Barge-in gating against self-echo is handled downstream by
			// the interrupt handler, not by muting capture here;
			// every captured chunk is fed to the VAD regardless of
			// whether the agent is currently speaking.
			frame, err := audio.PCM16ToFrame(pInput, audio.SampleRate(sampleRate), audio.Channels(channels), seq, time.Now().UnixNano())
			seq++
			if err == nil {
				select {
				case sess.InboundIn() <- bus.NewAudioInFrame(frame):
				default:
				}
			}
		}
		if pOutput != nil {
			playbackMu.Lock()
			n := copy(pOutput, playbackBytes)
			playbackBytes = playbackBytes[n:]
			for i := n; i < len(pOutput); i++ {
				pOutput[i] = 0
			}
			playbackMu.Unlock()
		}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	go func() {
		for {
			rmsMu.Lock()
			level := lastRMS
			rmsMu.Unlock()
			meter := ""
			dots := int(level * 500)
			if dots > 40 {
				dots = 40
			}
			for i := 0; i < dots; i++ {
				meter += "|"
			}
			fmt.Printf("\r[MIC ENERGY: %-40s] RMS: %.5f", meter, level)
			time.Sleep(100 * time.Millisecond)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		fmt.Printf("\nShutting down...\n")
	case err := <-runErrCh:
		if err != nil && err != context.Canceled {
			log.Printf("session ended: %v", err)
		}
	}
}

// adaptTTSBackend adapts a providers.TTSProvider (here,
// Lokutor) to the tts.Backend interface the streaming chunker expects.
func adaptTTSBackend(p providers.TTSProvider, lang string) tts.Backend {
	return tts.NewProviderBackend(p, providers.VoiceF1, providers.Language(lang), ttsProvider.NativeSampleRate)
}
