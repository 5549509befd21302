package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppConfig is the process-level (non-domain) configuration: which
// providers to run, audio device defaults, and interrupt tuning. It is
// assembled from config/default.yaml with an optional per-environment
// overlay config/{env}.yaml; only keys the overlay sets replace the
// defaults.
type AppConfig struct {
	STTProvider string `yaml:"stt_provider"`
	LLMProvider string `yaml:"llm_provider"`
	Language    string `yaml:"language"`
	SegmentID   string `yaml:"default_segment_id"`

	MetricsAddr string `yaml:"metrics_addr"`

	Audio struct {
		SampleRate int `yaml:"sample_rate"`
		Channels   int `yaml:"channels"`
	} `yaml:"audio"`

	Interrupt struct {
		Mode          string `yaml:"mode"` // disabled | immediate | word_boundary | sentence_boundary
		GracePeriodMs int    `yaml:"grace_period_ms"`
	} `yaml:"interrupt"`
}

// DefaultAppConfig is the fallback when no config/default.yaml exists.
func DefaultAppConfig() AppConfig {
	var cfg AppConfig
	cfg.STTProvider = "groq"
	cfg.LLMProvider = "groq"
	cfg.Language = "en"
	cfg.MetricsAddr = ":9090"
	cfg.Audio.SampleRate = 16000
	cfg.Audio.Channels = 1
	cfg.Interrupt.Mode = "sentence_boundary"
	cfg.Interrupt.GracePeriodMs = 300
	return cfg
}

// LoadApp reads config/default.yaml under root, then overlays
// config/{env}.yaml when env is non-empty. A missing default.yaml falls
// back to DefaultAppConfig; a missing overlay for an explicitly selected
// env is an error, since a typo in VOICE_AGENT_ENV should not silently
// run with defaults.
func LoadApp(root, env string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	defaultPath := filepath.Join(root, "default.yaml")
	if data, err := os.ReadFile(defaultPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse default.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: read default.yaml: %w", err)
	}

	if env == "" {
		return cfg, nil
	}
	overlayPath := filepath.Join(root, env+".yaml")
	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return cfg, fmt.Errorf("config: environment %q: %w", env, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s.yaml: %w", env, err)
	}
	return cfg, nil
}
