//go:build nocgo
// +build nocgo

package avatar

import "errors"

// Stub implementations for static analysis and builds without CGO.

// OtoAudioContext stub for nocgo builds.
type OtoAudioContext struct {
	format PCMFormat
}

// NewOtoAudioContext always fails in nocgo builds; hosts fall back to
// the mock context.
func NewOtoAudioContext(format PCMFormat) (*OtoAudioContext, error) {
	return nil, errors.New("audio not available in nocgo build")
}

// NewSink always fails in nocgo builds.
func (ac *OtoAudioContext) NewSink() (AudioSink, error) {
	return nil, errors.New("audio not available in nocgo build")
}

// SampleRate returns the sample rate of the context.
func (ac *OtoAudioContext) SampleRate() int { return ac.format.SampleRate }

// ChannelCount returns the number of channels.
func (ac *OtoAudioContext) ChannelCount() int { return ac.format.Channels }

// IsReady returns whether the context is usable.
func (ac *OtoAudioContext) IsReady() bool { return false }

// Close does nothing.
func (ac *OtoAudioContext) Close() error { return nil }
