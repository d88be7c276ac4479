package avatar

// AudioContext abstracts the audio output device so the streaming
// player can run against real hardware (oto) or a mock in tests. The
// context is an explicitly owned resource: construct one per session
// host, close it deterministically, never share it through globals.
type AudioContext interface {
	// NewSink creates a push sink in the context's fixed format.
	NewSink() (AudioSink, error)

	// SampleRate returns the sample rate of the context.
	SampleRate() int

	// ChannelCount returns the number of channels.
	ChannelCount() int

	// IsReady returns whether the context is usable.
	IsReady() bool

	// Close releases the device handle. Safe to call once playback has
	// been stopped; repeated model switches must not leak handles.
	Close() error
}

// AudioSink consumes PCM16 bytes for immediate, in-order playback.
type AudioSink interface {
	// Write queues bytes on the device. It returns promptly; the
	// device drains the queue at the sample rate.
	Write(pcm []byte) error

	// Halt discards all queued audio immediately.
	Halt()

	// Close releases the sink.
	Close() error
}
