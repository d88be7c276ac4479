package avatar

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ChunkCompletion is the one-resolution future for a submitted chunk.
// It resolves with nil when the chunk's scheduled playback window ends,
// with a DecodeError if the chunk bytes were invalid, or with
// ErrStopped when playback is stopped while the chunk is pending.
type ChunkCompletion struct {
	id   string
	ch   chan error
	once sync.Once
}

func newChunkCompletion() *ChunkCompletion {
	return &ChunkCompletion{id: uuid.NewString(), ch: make(chan error, 1)}
}

// Done returns the completion channel. It delivers exactly one value.
func (c *ChunkCompletion) Done() <-chan error { return c.ch }

// ID returns the chunk instance identifier.
func (c *ChunkCompletion) ID() string { return c.id }

func (c *ChunkCompletion) resolve(err error) {
	c.once.Do(func() { c.ch <- err })
}

// scheduledChunk is one chunk on the playback timeline.
type scheduledChunk struct {
	samples    []float64
	start, end time.Duration
	completion *ChunkCompletion
	timer      *time.Timer
}

// StreamingPlayer schedules PCM chunks for gapless, non-overlapping
// playback. It maintains a monotonic non-decreasing nextStart cursor:
// each chunk starts at max(nextStart, now) and advances the cursor by
// its own duration, which yields FIFO ordering with zero audible gaps
// as long as production keeps up with consumption. No backpressure is
// applied; sustained overproduction grows the scheduled-ahead state.
type StreamingPlayer struct {
	mu        sync.Mutex
	actx      AudioContext
	sink      AudioSink
	format    PCMFormat
	baseline  time.Time
	nextStart time.Duration
	scheduled []*scheduledChunk
	state     PlaybackState
	closed    bool
}

// NewStreamingPlayer creates a player over the given audio context.
// The session's fixed chunk format must match the context's device
// format.
func NewStreamingPlayer(actx AudioContext, format PCMFormat) (*StreamingPlayer, error) {
	sink, err := actx.NewSink()
	if err != nil {
		return nil, err
	}
	return &StreamingPlayer{
		actx:     actx,
		sink:     sink,
		format:   format,
		baseline: time.Now(),
	}, nil
}

// Elapsed returns the monotonic playback clock since the baseline.
func (p *StreamingPlayer) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.baseline)
}

// State returns the playback state.
func (p *StreamingPlayer) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SubmitChunk decodes and schedules one chunk. The returned future is
// independent per chunk: a decode failure rejects only this chunk and
// never aborts the player.
func (p *StreamingPlayer) SubmitChunk(data []byte) *ChunkCompletion {
	completion := newChunkCompletion()

	samples, pcm, err := decodeSamples(data, p.format)
	if err != nil {
		log.Warn("chunk rejected", "chunk", completion.id, "error", err)
		completion.resolve(err)
		return completion
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		completion.resolve(ErrStopped)
		return completion
	}

	now := time.Since(p.baseline)
	start := p.nextStart
	if now > start {
		start = now
	}
	dur := chunkDuration(len(samples), p.format)
	end := start + dur
	p.nextStart = end

	sc := &scheduledChunk{
		samples:    samples,
		start:      start,
		end:        end,
		completion: completion,
	}
	p.scheduled = append(p.scheduled, sc)
	p.state = PlaybackPlaying

	if err := p.sink.Write(pcm); err != nil {
		// Device refused the bytes; treat like a chunk-scoped failure.
		p.unscheduleLocked(sc)
		completion.resolve(&DecodeError{Reason: "sink write failed", Err: err})
		return completion
	}

	sc.timer = time.AfterFunc(end-now, func() { p.finish(sc) })

	log.Debug("chunk scheduled",
		"chunk", completion.id,
		"start", start,
		"duration", dur,
		"ahead", end-now)
	return completion
}

// finish resolves a chunk whose playback window has ended.
func (p *StreamingPlayer) finish(sc *scheduledChunk) {
	p.mu.Lock()
	p.unscheduleLocked(sc)
	if len(p.scheduled) == 0 {
		p.state = PlaybackStopped
	}
	p.mu.Unlock()

	sc.completion.resolve(nil)
}

// unscheduleLocked removes a chunk from the timeline; caller holds the
// lock.
func (p *StreamingPlayer) unscheduleLocked(sc *scheduledChunk) {
	for i, s := range p.scheduled {
		if s == sc {
			p.scheduled = append(p.scheduled[:i], p.scheduled[i+1:]...)
			return
		}
	}
}

// Stop halts playback from any state, including before the first chunk:
// every scheduled-but-unfinished chunk is halted, every pending future
// resolves with ErrStopped, and the clock baseline resets. Idempotent.
func (p *StreamingPlayer) Stop() {
	p.mu.Lock()
	pending := p.scheduled
	p.scheduled = nil
	p.nextStart = 0
	p.baseline = time.Now()
	p.state = PlaybackStopped
	p.sink.Halt()
	p.mu.Unlock()

	for _, sc := range pending {
		if sc.timer != nil {
			sc.timer.Stop()
		}
		sc.completion.resolve(ErrStopped)
	}
}

// Close stops playback and releases the sink. The audio context itself
// stays open; its owner closes it.
func (p *StreamingPlayer) Close() error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sink.Close()
}

// ScheduledAhead returns how far the timeline extends past the current
// clock. It grows without bound under sustained overproduction.
func (p *StreamingPlayer) ScheduledAhead() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	ahead := p.nextStart - time.Since(p.baseline)
	if ahead < 0 {
		return 0
	}
	return ahead
}

// SampleWindow returns up to n normalized samples ending at the current
// playhead, for signal analysis. Returns nil when nothing is playing.
func (p *StreamingPlayer) SampleWindow(n int) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Since(p.baseline)
	for _, sc := range p.scheduled {
		if now < sc.start || now >= sc.end {
			continue
		}
		frames := int(float64(p.format.SampleRate) * (now - sc.start).Seconds())
		head := frames * p.format.Channels
		if head > len(sc.samples) {
			head = len(sc.samples)
		}
		lo := head - n
		if lo < 0 {
			lo = 0
		}
		window := make([]float64, head-lo)
		copy(window, sc.samples[lo:head])
		return window
	}
	return nil
}
