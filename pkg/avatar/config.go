package avatar

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds engine configuration. Environment variables override
// the defaults; hosts may additionally layer a config file on top
// before constructing the orchestrator.
type Config struct {
	// SampleRate is the fixed session sample rate in Hz.
	SampleRate int `env:"AVATAR_SAMPLE_RATE" envDefault:"22050"`

	// Channels is the fixed channel count.
	Channels int `env:"AVATAR_CHANNELS" envDefault:"1"`

	// MuLawInput selects G.711 µ-law chunk decoding instead of PCM16.
	MuLawInput bool `env:"AVATAR_MULAW_INPUT" envDefault:"false"`

	// TickInterval is the render tick period for the monitor loop.
	TickInterval time.Duration `env:"AVATAR_TICK_INTERVAL" envDefault:"16ms"`

	// ChunkDuration is the submission unit for fetched payloads.
	ChunkDuration time.Duration `env:"AVATAR_CHUNK_DURATION" envDefault:"250ms"`

	// FetchTimeout bounds one audio reference fetch.
	FetchTimeout time.Duration `env:"AVATAR_FETCH_TIMEOUT" envDefault:"10s"`

	// CacheMaxEntries bounds the audio cache entry count.
	CacheMaxEntries int `env:"AVATAR_CACHE_MAX_ENTRIES" envDefault:"64"`

	// CacheMaxAge expires audio cache entries.
	CacheMaxAge time.Duration `env:"AVATAR_CACHE_MAX_AGE" envDefault:"30m"`

	// CacheDir enables the disk cache tier when non-empty.
	CacheDir string `env:"AVATAR_CACHE_DIR"`

	// Debug enables debug logging.
	Debug bool `env:"AVATAR_DEBUG" envDefault:"false"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:      DefaultSampleRate,
		Channels:        DefaultChannels,
		TickInterval:    DefaultTickInterval,
		ChunkDuration:   250 * time.Millisecond,
		FetchTimeout:    10 * time.Second,
		CacheMaxEntries: DefaultCacheMaxEntries,
		CacheMaxAge:     DefaultCacheMaxAge,
	}
}

// LoadConfig returns the defaults overridden by environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", c.Channels)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %s", c.TickInterval)
	}
	return nil
}

// Format returns the session PCM format described by the config.
func (c Config) Format() PCMFormat {
	enc := EncodingPCM16
	if c.MuLawInput {
		enc = EncodingMuLaw
	}
	return PCMFormat{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		Encoding:   enc,
	}
}
