package avatar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// OrchestratorState represents the top-level sequencer state.
type OrchestratorState int

const (
	// OrchIdle indicates no active sequence.
	OrchIdle OrchestratorState = iota
	// OrchPlaying indicates an active sequence.
	OrchPlaying
)

// ClipResolver maps an Action markup value to a playable clip on the
// loaded model.
type ClipResolver func(value string) (Clip, bool)

// SubtitleFunc receives the current plain-text caption. It is invoked
// on every segment and with "" when the sequence completes.
type SubtitleFunc func(text string)

// Deps are the collaborators an orchestrator sequences against.
type Deps struct {
	AudioContext AudioContext
	Scene        SceneGraph
	Model        ModelHandle
	Fetcher      AudioFetcher
	Subtitle     SubtitleFunc
	Clips        ClipResolver
}

// Orchestrator drives queued segments through subtitle emission, audio
// playback, and the markup schedule. It owns one StreamingPlayer per
// session; starting a new session disposes the prior player before the
// session starts.
type Orchestrator struct {
	cfg   Config
	deps  Deps
	sched *Scheduler
	anim  *AnimationController
	expr  *ExpressionController
	lips  *LipSyncAnalyzer

	mu      sync.Mutex
	state   OrchestratorState
	player  *StreamingPlayer
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewOrchestrator wires the engine components over the collaborators.
func NewOrchestrator(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.AudioContext == nil || deps.Scene == nil {
		return nil, errors.New("avatar: audio context and scene graph are required")
	}
	if deps.Fetcher == nil {
		deps.Fetcher = NewHTTPFetcher(cfg.FetchTimeout)
	}
	if deps.Subtitle == nil {
		deps.Subtitle = func(string) {}
	}
	if deps.Clips == nil {
		deps.Clips = func(v string) (Clip, bool) {
			return Clip{ID: v, Tracks: 1}, true
		}
	}

	o := &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		anim:    NewAnimationController(deps.Scene.Mixer(deps.Model)),
		expr:    NewExpressionController(),
		lips:    NewLipSyncAnalyzer(),
		session: NewSession(),
	}
	o.sched = NewScheduler(o.onState, o.onAction)
	return o, nil
}

// onState routes a fired State markup to the expression presets.
func (o *Orchestrator) onState(value string) {
	o.expr.ApplyPreset(value)
}

// onAction routes a fired Action markup to the animation controller.
func (o *Orchestrator) onAction(value string) {
	clip, ok := o.deps.Clips(value)
	if !ok {
		log.Warn("no clip for action", "action", value)
		return
	}
	if err := o.anim.PlayWithTransition(clip, TransitionOpts{Loop: false}); err != nil {
		log.Warn("animation rejected", "action", value, "error", err)
	}
}

// State returns the sequencer state.
func (o *Orchestrator) State() OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns the current session.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// AppendSegment queues one streamed segment. If no sequence is active
// one starts immediately; an active sequence keeps playing and simply
// picks the segment up, never restarting segments already played.
func (o *Orchestrator) AppendSegment(seg Segment) error {
	o.mu.Lock()
	if err := o.session.Append(seg); err != nil {
		o.mu.Unlock()
		return err
	}
	idle := o.state == OrchIdle
	o.mu.Unlock()

	if idle {
		return o.Play(context.Background())
	}
	return nil
}

// SetSegments replaces the queue with a complete batch. Any active
// sequence is stopped first: batch replace resets fired-markup and
// playback state, unlike AppendSegment.
func (o *Orchestrator) SetSegments(segs []Segment) {
	o.Stop()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = NewSession()
	o.session.Replace(segs)
}

// EndOfStream marks the streamed session complete so the sequencer can
// finish after draining the queue.
func (o *Orchestrator) EndOfStream() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session.EndOfStream()
}

// Play starts sequencing the queued segments. It returns immediately;
// observe completion via Done. Calling Play while already playing is a
// no-op.
func (o *Orchestrator) Play(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == OrchPlaying {
		return nil
	}

	// One player per active session; any prior instance released its
	// sink in Stop.
	player, err := NewStreamingPlayer(o.deps.AudioContext, o.cfg.Format())
	if err != nil {
		return err
	}
	o.player = player

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	o.state = OrchPlaying
	o.session.begin()

	session := o.session
	done := o.done

	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.sequence(runCtx, session, done)
	}()
	go func() {
		defer o.wg.Done()
		o.monitor(runCtx, session)
	}()

	log.Debug("sequence started", "session", session.ID())
	return nil
}

// Done returns a channel closed when the current sequence finishes or
// is stopped. Returns a closed channel when idle.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return o.done
}

// Stop halts the monitoring loop and the audio player immediately. It
// is safe from any state, including mid-fetch, and idempotent. After
// Stop a fresh Play starts with zero residual scheduled audio or
// fired-markup state.
//
// Stop waits for the sequencing goroutines to exit, so it must not be
// called from the subtitle callback, a clip resolver, or a markup sink:
// those run on the goroutines being waited for and the call would
// deadlock. Hosts reacting to such a callback should stop from a
// separate goroutine.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	player := o.player
	o.cancel = nil
	o.player = nil
	o.state = OrchIdle
	session := o.session
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if player != nil {
		player.Stop()
		_ = player.Close()
	}

	o.wg.Wait()
	o.sched.Reset()
	o.anim.StopAll()
	o.expr.Reset()
	session.reset()
}

// sequence iterates segments in index order until the stream ends or
// the context is cancelled.
func (o *Orchestrator) sequence(ctx context.Context, session *Session, done chan struct{}) {
	defer close(done)

	cursor := 0
	for {
		seg, ok := session.Queue().Await(ctx, cursor)
		if !ok {
			break
		}
		o.playSegment(ctx, session, seg)
		if ctx.Err() != nil {
			return
		}
		cursor++
	}

	if ctx.Err() != nil {
		return
	}
	o.finish(session)
}

// playSegment emits the subtitle, plays the segment's audio when
// available, and otherwise waits out its duration so the markup
// schedule still advances. Fetch and decode failures are contained to
// this segment.
func (o *Orchestrator) playSegment(ctx context.Context, session *Session, seg Segment) {
	o.deps.Subtitle(seg.Plain)
	segStart := session.Elapsed()

	if seg.AudioRef == "" {
		d := seg.fallbackDuration()
		o.sched.Arm(seg.Index, segStart, d, seg.plainRunes(), seg.Markups)
		o.wait(ctx, d)
		return
	}

	data, err := o.deps.Fetcher.Fetch(ctx, seg.AudioRef)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("segment audio unavailable, falling back to timed wait",
				"segment", seg.Index, "error", err)
		}
		d := seg.fallbackDuration()
		o.sched.Arm(seg.Index, segStart, d, seg.plainRunes(), seg.Markups)
		o.wait(ctx, d)
		return
	}

	player := o.currentPlayer()
	if player == nil {
		return
	}

	// Validate the payload up front: a payload that cannot decode at
	// all degrades to the duration fallback like a failed fetch.
	samples, _, derr := decodeSamples(data, o.cfg.Format())
	if derr != nil {
		log.Warn("segment audio undecodable, falling back to timed wait",
			"segment", seg.Index, "error", derr)
		d := seg.fallbackDuration()
		o.sched.Arm(seg.Index, segStart, d, seg.plainRunes(), seg.Markups)
		o.wait(ctx, d)
		return
	}

	audioDur := chunkDuration(len(samples), o.cfg.Format()).Seconds()
	o.sched.Arm(seg.Index, segStart, audioDur, seg.plainRunes(), seg.Markups)

	completions := make([]*ChunkCompletion, 0)
	for _, chunk := range o.splitChunks(data) {
		completions = append(completions, player.SubmitChunk(chunk))
	}

	for _, c := range completions {
		select {
		case err := <-c.Done():
			switch {
			case err == nil:
			case errors.Is(err, ErrStopped):
				return
			default:
				// Chunk-scoped failure; the rest of the segment and
				// session continue.
				log.Warn("chunk failed", "segment", seg.Index, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// splitChunks slices a decoded payload into steady submission units so
// per-chunk completion signals stay fine-grained.
func (o *Orchestrator) splitChunks(data []byte) [][]byte {
	format := o.cfg.Format()
	frames := int(o.cfg.ChunkDuration.Seconds() * float64(format.SampleRate))
	size := frames * format.frameSize()
	if format.Encoding == EncodingMuLaw {
		size = frames * format.Channels
	}
	if size <= 0 || size >= len(data) {
		return [][]byte{data}
	}

	var chunks [][]byte
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// wait blocks for the duration fallback, honoring cancellation.
func (o *Orchestrator) wait(ctx context.Context, seconds float64) {
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// monitor is the render-tick loop: it polls the markup schedule
// against session-relative time and advances expression, animation,
// and lip-sync each tick, uninterrupted across segment boundaries.
func (o *Orchestrator) monitor(ctx context.Context, session *Session) {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			o.sched.Poll(session.Elapsed())

			mouth := 0.0
			if player := o.currentPlayer(); player != nil {
				mouth = o.lips.Analyze(player.SampleWindow(LipSyncWindowSize))
			}
			o.expr.SetMouth(mouth)

			o.anim.Update(dt)
			for ch, v := range o.expr.Update(dt) {
				o.deps.Scene.SetExpression(o.deps.Model, ch, v)
			}
		}
	}
}

// currentPlayer returns the active player, if any.
func (o *Orchestrator) currentPlayer() *StreamingPlayer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player
}

// finish completes a sequence that ran to its final segment: drains the
// markup schedule, renders the neutral expression, clears the subtitle,
// and releases the player.
func (o *Orchestrator) finish(session *Session) {
	o.mu.Lock()
	player := o.player
	cancel := o.cancel
	o.player = nil
	o.cancel = nil
	o.state = OrchIdle
	o.mu.Unlock()

	// The monitor stops with this call, so markups due at the very end
	// of the final segment fire here rather than dropping.
	o.sched.Poll(session.Elapsed())

	// Likewise the neutral reset cannot rely on further ticks: zero every
	// active channel directly into the scene.
	for ch := range o.expr.Update(0) {
		o.deps.Scene.SetExpression(o.deps.Model, ch, 0)
	}
	o.expr.Reset()
	o.deps.Subtitle("")

	if player != nil {
		_ = player.Close()
	}
	if cancel != nil {
		cancel()
	}
	session.reset()
	log.Debug("sequence finished", "session", session.ID())
}
