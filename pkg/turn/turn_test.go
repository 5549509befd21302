package turn

import "testing"

func TestIdleToUserSpeaking(t *testing.T) {
	d := New(DefaultConfig(), nil)
	r := d.OnVAD(VADSpeechStart, 0)
	if r.State != StateUserSpeaking {
		t.Fatalf("expected UserSpeaking, got %v", r.State)
	}
}

func TestUserSpeakingToEvaluatingOnSilence(t *testing.T) {
	d := New(DefaultConfig(), nil)
	d.OnVAD(VADSpeechStart, 0)
	r := d.OnVAD(VADSilenceStart, 400)
	if r.State != StateEvaluating {
		t.Fatalf("expected Evaluating, got %v", r.State)
	}
}

func TestEvaluatingCompletesWhenThresholdsMet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSpeechMs = 300
	cfg.MinSilenceMs = 500
	d := New(cfg, nil)
	d.OnVAD(VADSpeechStart, 0)
	d.OnVAD(VADSilenceStart, 400) // speech duration 400ms >= 300
	r := d.OnVAD(VADSilence, 1000) // silence duration 600ms >= 500
	if !r.Completed {
		t.Fatalf("expected turn completion, got %+v", r)
	}
	if r.State != StateTurnComplete {
		t.Errorf("expected TurnComplete state, got %v", r.State)
	}
}

func TestEvaluatingStaysWhenSilenceTooShort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSpeechMs = 300
	cfg.MinSilenceMs = 500
	d := New(cfg, nil)
	d.OnVAD(VADSpeechStart, 0)
	d.OnVAD(VADSilenceStart, 400)
	r := d.OnVAD(VADSilence, 600) // silence duration only 200ms
	if r.Completed {
		t.Fatalf("expected turn not yet complete, got %+v", r)
	}
	if r.State != StateEvaluating {
		t.Errorf("expected still Evaluating, got %v", r.State)
	}
}

func TestEvaluatingReturnsToUserSpeakingOnResumedSpeech(t *testing.T) {
	d := New(DefaultConfig(), nil)
	d.OnVAD(VADSpeechStart, 0)
	d.OnVAD(VADSilenceStart, 400)
	r := d.OnVAD(VADSpeechStart, 600)
	if r.State != StateUserSpeaking {
		t.Fatalf("expected back to UserSpeaking, got %v", r.State)
	}
}

func TestAgentSpeakingBargeIn(t *testing.T) {
	d := New(DefaultConfig(), nil)
	d.EnterAgentSpeaking()
	r := d.OnVAD(VADSpeechStart, 0)
	if r.State != StateUserSpeaking {
		t.Fatalf("expected barge-in to move to UserSpeaking, got %v", r.State)
	}
}

type stubClassifier struct {
	class       CompletenessClass
	conf        float64
	suggestedMs int
}

func (s stubClassifier) Classify(transcript string) (CompletenessClass, float64, int) {
	return s.class, s.conf, s.suggestedMs
}

func TestClassifierRetunesDynamicThreshold(t *testing.T) {
	cfg := DefaultConfig()
	d := New(cfg, stubClassifier{class: ClassComplete, conf: 0.9, suggestedMs: 800})
	d.UpdateTranscript("I am done")
	if d.dynamicSilenceMs != 800 {
		t.Fatalf("expected dynamic threshold 800, got %d", d.dynamicSilenceMs)
	}
}

func TestClassifierThresholdClampedToRange(t *testing.T) {
	cfg := DefaultConfig()
	d := New(cfg, stubClassifier{class: ClassComplete, conf: 0.9, suggestedMs: 10000})
	d.UpdateTranscript("done")
	if d.dynamicSilenceMs != cfg.MaxSilenceMs {
		t.Fatalf("expected clamp to max %d, got %d", cfg.MaxSilenceMs, d.dynamicSilenceMs)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	d := New(DefaultConfig(), nil)
	d.OnVAD(VADSpeechStart, 0)
	d.Reset()
	if d.State() != StateIdle {
		t.Fatalf("expected Idle after reset, got %v", d.State())
	}
}
