//go:build !nocgo
// +build !nocgo

package avatar

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// otoFormat is the sample layout pushed to the device.
const otoFormat = oto.FormatSignedInt16LE

// OtoAudioContext is the production AudioContext over an oto device
// context.
type OtoAudioContext struct {
	mu      sync.Mutex
	context *oto.Context
	format  PCMFormat
	ready   bool
	sinks   []*otoSink
}

// NewOtoAudioContext opens the audio device for the given format and
// blocks until it is ready.
func NewOtoAudioContext(format PCMFormat) (*OtoAudioContext, error) {
	options := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       otoFormat,
		BufferSize:   50 * time.Millisecond,
	}

	context, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}
	<-readyChan

	log.Debug("audio context ready",
		"sampleRate", format.SampleRate,
		"channels", format.Channels)

	return &OtoAudioContext{
		context: context,
		format:  format,
		ready:   true,
	}, nil
}

// NewSink creates a device-backed sink.
func (ac *OtoAudioContext) NewSink() (AudioSink, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.ready {
		return nil, errors.New("audio context not ready")
	}

	s := &otoSink{}
	s.player = ac.context.NewPlayer(s)
	s.player.Play()
	ac.sinks = append(ac.sinks, s)
	return s, nil
}

// SampleRate returns the sample rate of the context.
func (ac *OtoAudioContext) SampleRate() int { return ac.format.SampleRate }

// ChannelCount returns the number of channels.
func (ac *OtoAudioContext) ChannelCount() int { return ac.format.Channels }

// IsReady returns whether the context is usable.
func (ac *OtoAudioContext) IsReady() bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.ready
}

// Close stops every sink and releases the device handle.
func (ac *OtoAudioContext) Close() error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.ready {
		return nil
	}
	for _, s := range ac.sinks {
		_ = s.Close()
	}
	ac.sinks = nil
	ac.ready = false
	return nil
}

// otoSink feeds an oto player from a mutex-guarded pending buffer. When
// the buffer runs dry the Read side supplies silence, which keeps the
// device stream open and gapless across irregular chunk arrival.
type otoSink struct {
	mu      sync.Mutex
	pending []byte
	closed  bool
	player  *oto.Player
}

// Write queues PCM16 bytes for the device.
func (s *otoSink) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink closed")
	}
	s.pending = append(s.pending, pcm...)
	return nil
}

// Read is called by the oto player. Starvation yields silence, not EOF.
func (s *otoSink) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("sink closed")
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Halt drops all queued audio.
func (s *otoSink) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Close releases the player.
func (s *otoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	player := s.player
	s.pending = nil
	s.mu.Unlock()

	if player != nil {
		return player.Close()
	}
	return nil
}
