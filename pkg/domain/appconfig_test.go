package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAppFixture(t *testing.T, name, content string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoadAppNoFilesFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadApp(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	if cfg.STTProvider != "groq" || cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadAppOverlayReplacesOnlySetKeys(t *testing.T) {
	root := writeAppFixture(t, "default.yaml", "llm_provider: groq\nlanguage: hi\nmetrics_addr: \":9191\"\n")
	if err := os.WriteFile(filepath.Join(root, "staging.yaml"), []byte("llm_provider: anthropic\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadApp(root, "staging")
	if err != nil {
		t.Fatalf("LoadApp: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Language != "hi" || cfg.MetricsAddr != ":9191" {
		t.Fatalf("overlay clobbered unset keys: %+v", cfg)
	}
}

func TestLoadAppUnknownEnvErrors(t *testing.T) {
	if _, err := LoadApp(t.TempDir(), "no-such-env"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestLoadAppRealConfigTree(t *testing.T) {
	for _, env := range []string{"", "development", "production"} {
		if _, err := LoadApp("../../config", env); err != nil {
			t.Fatalf("LoadApp(%q): %v", env, err)
		}
	}
}
