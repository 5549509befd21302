// Package bus implements the frame-bus/processor-chain that carries audio,
// transcript, LLM and control messages between pipeline stages.
package bus

import "github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/audio"

// Kind tags the variant a Frame carries.
type Kind int

const (
	KindAudioIn Kind = iota
	KindVoiceStart
	KindVoiceEnd
	KindPartialTranscript
	KindFinalTranscript
	KindLLMChunk
	KindSentence
	KindAudioOut
	KindBargeIn
	KindEndOfStream
	KindError
	KindControl
	KindAgentTurnComplete
)

func (k Kind) String() string {
	switch k {
	case KindAudioIn:
		return "AudioIn"
	case KindVoiceStart:
		return "VoiceStart"
	case KindVoiceEnd:
		return "VoiceEnd"
	case KindPartialTranscript:
		return "PartialTranscript"
	case KindFinalTranscript:
		return "FinalTranscript"
	case KindLLMChunk:
		return "LLMChunk"
	case KindSentence:
		return "Sentence"
	case KindAudioOut:
		return "AudioOut"
	case KindBargeIn:
		return "BargeIn"
	case KindEndOfStream:
		return "EndOfStream"
	case KindError:
		return "Error"
	case KindControl:
		return "Control"
	case KindAgentTurnComplete:
		return "AgentTurnComplete"
	}
	return "Unknown"
}

// ControlOp is the operation carried by a Control frame.
type ControlOp int

const (
	ControlFlush ControlOp = iota
	ControlReset
)

// Frame is the tagged-union bus message connecting pipeline stages. Frames
// are immutable from the producer's perspective; processors may re-emit
// modified copies.
type Frame struct {
	Kind Kind
	Seq  uint64

	AudioIn *audio.Frame

	// Transcript carries partial/final STT output.
	Transcript    string
	Language      string
	Confidence    float64
	TranscriptEnd bool // true for final transcripts

	// LLMChunk carries one streamed LLM token/fragment.
	LLMChunkText  string
	LLMChunkFinal bool

	// Sentence carries one LLM-output sentence ready for TTS.
	SentenceText    string
	SentenceLang    string
	SentenceIndex   uint64
	SentenceIsFinal bool // true for the last sentence of the current assistant turn

	// AudioOut carries synthesized speech.
	AudioOutSamples     []float32
	AudioOutSampleRate  audio.SampleRate
	AudioOutWordIndices []int
	AudioOutIsFinal     bool

	// BargeIn carries the position in the current TTS output where the
	// user interrupted.
	BargeInAudioPosition int
	BargeInTranscript    string

	// Error carries a recoverable-or-not stage failure.
	ErrStage       string
	ErrMessage     string
	ErrRecoverable bool

	Control ControlOp
}

func NewAudioInFrame(f *audio.Frame) *Frame {
	return &Frame{Kind: KindAudioIn, Seq: f.Seq(), AudioIn: f}
}

func NewVoiceStartFrame(seq uint64) *Frame { return &Frame{Kind: KindVoiceStart, Seq: seq} }
func NewVoiceEndFrame(seq uint64) *Frame   { return &Frame{Kind: KindVoiceEnd, Seq: seq} }

func NewPartialTranscriptFrame(text, lang string) *Frame {
	return &Frame{Kind: KindPartialTranscript, Transcript: text, Language: lang}
}

func NewFinalTranscriptFrame(text, lang string, confidence float64) *Frame {
	return &Frame{
		Kind:          KindFinalTranscript,
		Transcript:    text,
		Language:      lang,
		Confidence:    confidence,
		TranscriptEnd: true,
	}
}

func NewLLMChunkFrame(text string, isFinal bool) *Frame {
	return &Frame{Kind: KindLLMChunk, LLMChunkText: text, LLMChunkFinal: isFinal}
}

func NewSentenceFrame(text, lang string, index uint64, isFinal bool) *Frame {
	return &Frame{Kind: KindSentence, SentenceText: text, SentenceLang: lang, SentenceIndex: index, SentenceIsFinal: isFinal}
}

func NewAudioOutFrame(samples []float32, rate audio.SampleRate, wordIndices []int, isFinal bool) *Frame {
	return &Frame{
		Kind:                KindAudioOut,
		AudioOutSamples:     samples,
		AudioOutSampleRate:  rate,
		AudioOutWordIndices: wordIndices,
		AudioOutIsFinal:     isFinal,
	}
}

func NewBargeInFrame(audioPosition int, transcript string) *Frame {
	return &Frame{Kind: KindBargeIn, BargeInAudioPosition: audioPosition, BargeInTranscript: transcript}
}

func NewEndOfStreamFrame() *Frame { return &Frame{Kind: KindEndOfStream} }

// NewAgentTurnCompleteFrame marks that the TTS engine has finished
// synthesizing the last sentence of the current assistant turn (the
// interrupt handler and turn detector must return to their listening state
// once the agent is done speaking).
func NewAgentTurnCompleteFrame() *Frame { return &Frame{Kind: KindAgentTurnComplete} }

func NewErrorFrame(stage, message string, recoverable bool) *Frame {
	return &Frame{Kind: KindError, ErrStage: stage, ErrMessage: message, ErrRecoverable: recoverable}
}

func NewControlFrame(op ControlOp) *Frame { return &Frame{Kind: KindControl, Control: op} }
