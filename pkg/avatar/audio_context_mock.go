package avatar

import (
	"errors"
	"sync"
)

// MockAudioContext implements AudioContext without touching real audio
// hardware. Tests and headless hosts use it; the sinks record what
// would have been played.
type MockAudioContext struct {
	mu     sync.Mutex
	format PCMFormat
	ready  bool
	sinks  []*MockAudioSink

	// Test helpers
	SinksCreated int
}

// NewMockAudioContext creates a ready mock context.
func NewMockAudioContext(format PCMFormat) *MockAudioContext {
	return &MockAudioContext{format: format, ready: true}
}

// NewSink creates a recording sink.
func (mc *MockAudioContext) NewSink() (AudioSink, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if !mc.ready {
		return nil, errors.New("mock audio context not ready")
	}
	s := &MockAudioSink{}
	mc.sinks = append(mc.sinks, s)
	mc.SinksCreated++
	return s, nil
}

// SampleRate returns the sample rate of the context.
func (mc *MockAudioContext) SampleRate() int { return mc.format.SampleRate }

// ChannelCount returns the number of channels.
func (mc *MockAudioContext) ChannelCount() int { return mc.format.Channels }

// IsReady returns whether the context is usable.
func (mc *MockAudioContext) IsReady() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.ready
}

// Close marks the context unusable.
func (mc *MockAudioContext) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, s := range mc.sinks {
		_ = s.Close()
	}
	mc.sinks = nil
	mc.ready = false
	return nil
}

// Sink returns the i-th created sink, or nil.
func (mc *MockAudioContext) Sink(i int) *MockAudioSink {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if i < 0 || i >= len(mc.sinks) {
		return nil
	}
	return mc.sinks[i]
}

// MockAudioSink records written audio for assertions.
type MockAudioSink struct {
	mu      sync.Mutex
	written []byte
	halts   int
	closed  bool
}

// Write records the bytes.
func (s *MockAudioSink) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink closed")
	}
	s.written = append(s.written, pcm...)
	return nil
}

// Halt counts halt calls and drops the recording.
func (s *MockAudioSink) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halts++
	s.written = nil
}

// Close marks the sink closed.
func (s *MockAudioSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// WrittenBytes returns the number of recorded bytes.
func (s *MockAudioSink) WrittenBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

// Halts returns how many times Halt was called.
func (s *MockAudioSink) Halts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halts
}
