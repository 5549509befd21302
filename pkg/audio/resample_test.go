package audio

import "testing"

func TestResampleIdentity(t *testing.T) {
	samples := make([]float32, 80)
	for i := range samples {
		samples[i] = float32(i) / 80
	}
	out := Resample(samples, Rate16k, Rate16k)
	if len(out) != len(samples) {
		t.Fatalf("identity resample changed length: %d != %d", len(out), len(samples))
	}
	for i := range samples {
		if out[i] != samples[i] {
			t.Fatalf("identity resample changed sample %d: %v != %v", i, out[i], samples[i])
		}
	}
}

func TestResampleIdentityShortFrame(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3, -0.4}
	out := Resample(samples, Rate8k, Rate8k)
	if len(out) != len(samples) {
		t.Fatalf("identity resample changed length: %d != %d", len(out), len(samples))
	}
}

func TestResampleDownsampleSincPath(t *testing.T) {
	samples := make([]float32, 128)
	for i := range samples {
		samples[i] = float32(i) / 128
	}
	out := Resample(samples, Rate48k, Rate16k)
	wantLen := 128 / 3
	if len(out) != wantLen {
		t.Fatalf("expected length %d, got %d", wantLen, len(out))
	}
}

func TestResampleUpsampleSincPath(t *testing.T) {
	samples := make([]float32, 64)
	for i := range samples {
		samples[i] = 0.5
	}
	out := Resample(samples, Rate8k, Rate16k)
	if len(out) != 128 {
		t.Fatalf("expected length 128, got %d", len(out))
	}
	// a constant input should resample to a roughly constant output
	for i, v := range out {
		if v < 0.4 || v > 0.6 {
			t.Fatalf("sample %d out of expected range: %v", i, v)
		}
	}
}

func TestResampleLinearFallbackShortFrame(t *testing.T) {
	samples := []float32{0, 1, 0, -1, 0, -1, 0, 1}
	out := Resample(samples, Rate16k, Rate8k)
	if len(out) != 4 {
		t.Fatalf("expected length 4, got %d", len(out))
	}
}

func TestResampleEmpty(t *testing.T) {
	out := Resample(nil, Rate16k, Rate8k)
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
}
