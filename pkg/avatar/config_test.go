package avatar

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", cfg.SampleRate, DefaultSampleRate)
	}
	if cfg.Format().Encoding != EncodingPCM16 {
		t.Errorf("default encoding = %v, want PCM16", cfg.Format().Encoding)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AVATAR_SAMPLE_RATE", "16000")
	t.Setenv("AVATAR_MULAW_INPUT", "true")
	t.Setenv("AVATAR_TICK_INTERVAL", "25ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.TickInterval != 25*time.Millisecond {
		t.Errorf("tick interval = %v, want 25ms", cfg.TickInterval)
	}
	if cfg.Format().Encoding != EncodingMuLaw {
		t.Errorf("encoding = %v, want mu-law", cfg.Format().Encoding)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative channels", func(c *Config) { c.Channels = -1 }},
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}
