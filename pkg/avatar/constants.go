package avatar

import "time"

// Audio format constants shared across the engine.
// The synthesized-speech producer and the player agree on this format
// up front; chunks never carry per-chunk format negotiation.
const (
	// DefaultSampleRate is the audio sample rate in Hz.
	DefaultSampleRate = 22050
	// DefaultChannels is the number of audio channels (1 = mono).
	DefaultChannels = 1
	// BitDepth is the bit depth per sample (16-bit signed).
	BitDepth = 16
	// BytesPerSample is the number of bytes per mono sample.
	BytesPerSample = BitDepth / 8
)

// Timing constants for the tick-driven loops.
const (
	// DefaultTickInterval is the render tick period (~60 Hz).
	DefaultTickInterval = 16 * time.Millisecond
	// DefaultSpeedRampWindow is the window over which timescale changes
	// are eased instead of applied as a step.
	DefaultSpeedRampWindow = 300 * time.Millisecond
	// DefaultTransitionDuration is the fade window used when an
	// animation request does not specify one.
	DefaultTransitionDuration = 350 * time.Millisecond
	// DefaultSecondsPerRune derives a fallback segment duration from
	// plain-text length when neither audio nor a declared duration is
	// available.
	DefaultSecondsPerRune = 0.065
)

// PlaybackState represents the state of audio playback.
type PlaybackState int

const (
	// PlaybackStopped indicates no audio is scheduled or playing.
	PlaybackStopped PlaybackState = iota
	// PlaybackPlaying indicates audio is scheduled or playing.
	PlaybackPlaying
)

// String returns a string representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case PlaybackStopped:
		return "stopped"
	case PlaybackPlaying:
		return "playing"
	default:
		return "unknown"
	}
}
