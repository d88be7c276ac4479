package avatar

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// Helpers shared by the package tests: fake collaborators and PCM
// generators.

// fakeAction records the calls the controller makes on it.
type fakeAction struct {
	mu        sync.Mutex
	clip      Clip
	playing   bool
	stopped   bool
	weight    float64
	timeScale float64
	loop      bool
	clamp     bool
}

func (a *fakeAction) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = true
}

func (a *fakeAction) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playing = false
	a.stopped = true
}

func (a *fakeAction) SetWeight(w float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.weight = w
}

func (a *fakeAction) SetTimeScale(s float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeScale = s
}

func (a *fakeAction) SetLoop(loop bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loop = loop
}

func (a *fakeAction) ClampWhenFinished(clamp bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clamp = clamp
}

func (a *fakeAction) Weight() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.weight
}

func (a *fakeAction) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// fakeMixer hands out fakeActions and remembers them per clip.
type fakeMixer struct {
	mu      sync.Mutex
	actions []*fakeAction
}

func (m *fakeMixer) Action(clip Clip) (AnimationAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &fakeAction{clip: clip, timeScale: 1}
	m.actions = append(m.actions, a)
	return a, nil
}

func (m *fakeMixer) action(i int) *fakeAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.actions) {
		return nil
	}
	return m.actions[i]
}

// fakeScene records expression writes.
type fakeScene struct {
	mu          sync.Mutex
	mixer       *fakeMixer
	expressions map[string]float64
}

func newFakeScene() *fakeScene {
	return &fakeScene{
		mixer:       &fakeMixer{},
		expressions: make(map[string]float64),
	}
}

func (s *fakeScene) Load(_ context.Context, uri string) (ModelHandle, error) {
	return uri, nil
}

func (s *fakeScene) Mixer(ModelHandle) Mixer { return s.mixer }

func (s *fakeScene) SetExpression(_ ModelHandle, channel string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expressions[channel] = value
}

func (s *fakeScene) Dispose(ModelHandle) error { return nil }

func (s *fakeScene) expression(channel string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expressions[channel]
}

// stubFetcher serves canned payloads keyed by ref.
type stubFetcher struct {
	mu       sync.Mutex
	payloads map[string][]byte
	fetches  int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{payloads: make(map[string][]byte)}
}

func (f *stubFetcher) set(ref string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[ref] = data
}

func (f *stubFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	data, ok := f.payloads[ref]
	if !ok {
		return nil, &FetchError{Ref: ref, Err: errors.New("not found")}
	}
	return data, nil
}

// sinePCM generates PCM16 sine-wave bytes for tests.
func sinePCM(freq float64, d float64, format PCMFormat) []byte {
	frames := int(d * float64(format.SampleRate))
	out := make([]byte, frames*format.frameSize())
	for i := 0; i < frames; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(format.SampleRate))
		s := int16(v * 0.8 * 32767)
		for c := 0; c < format.Channels; c++ {
			off := (i*format.Channels + c) * BytesPerSample
			binary.LittleEndian.PutUint16(out[off:], uint16(s))
		}
	}
	return out
}
