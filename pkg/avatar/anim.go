package avatar

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// Clip identifies one animation clip on a loaded model.
type Clip struct {
	ID       string
	Tracks   int
	Duration float64
}

// AnimationAction is a playable instance of a clip, owned by the
// hosting scene's mixer. The controller drives its weight and
// timescale; it never touches vertices or materials.
type AnimationAction interface {
	Play()
	Stop()
	SetWeight(w float64)
	SetTimeScale(s float64)
	SetLoop(loop bool)
	ClampWhenFinished(clamp bool)
}

// Mixer creates actions for clips. One mixer per loaded model.
type Mixer interface {
	Action(clip Clip) (AnimationAction, error)
}

// TransitionOpts configures PlayWithTransition.
type TransitionOpts struct {
	Duration  time.Duration
	Loop      bool
	TimeScale float64
}

// ControllerState represents the animation controller state.
type ControllerState int

const (
	// AnimIdle indicates no active animation.
	AnimIdle ControllerState = iota
	// AnimPlaying indicates an active animation.
	AnimPlaying
)

// fadingAction is an outgoing action fading toward zero on its own
// curve. It keeps playing until its fade completes; only then is it
// stopped, which avoids a visible pop.
type fadingAction struct {
	action  AnimationAction
	from    float64 // weight at the moment the action was displaced
	elapsed float64
	window  float64
}

// speedRamp eases timescale changes over a short window.
type speedRamp struct {
	from    float64
	to      float64
	elapsed float64
	window  float64
}

// AnimationController owns the single active animation on a model and
// performs fade and crossfade transitions between clips. All methods
// are safe for concurrent use, but Update must be driven from the same
// tick as the mixer update to keep firing order deterministic.
type AnimationController struct {
	mu    sync.Mutex
	mixer Mixer

	state     ControllerState
	current   AnimationAction
	clip      Clip
	weight    float64
	fadeIn    float64 // remaining seconds of the incoming fade
	fadeTotal float64

	// crossfade handoff: current and partner share one progress value
	cross        bool
	crossOut     AnimationAction
	crossElapsed float64
	crossWindow  float64

	outgoing  []fadingAction
	timeScale float64
	ramp      *speedRamp
}

// NewAnimationController creates a controller over the given mixer.
func NewAnimationController(mixer Mixer) *AnimationController {
	return &AnimationController{
		mixer:     mixer,
		state:     AnimIdle,
		timeScale: 1.0,
	}
}

// State returns the controller state.
func (c *AnimationController) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// validate rejects unplayable clips before any state mutation.
func (c *AnimationController) validate(clip Clip) error {
	if clip.Tracks <= 0 {
		return &ModelError{Clip: clip.ID, Reason: "clip has no animation tracks"}
	}
	return nil
}

// PlayWithTransition starts clip, fading it in while any prior action
// fades out concurrently on an independent curve. With no prior action
// this is a plain fade-in from silence.
func (c *AnimationController) PlayWithTransition(clip Clip, opts TransitionOpts) error {
	if err := c.validate(clip); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.Duration <= 0 {
		opts.Duration = DefaultTransitionDuration
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1.0
	}

	action, err := c.mixer.Action(clip)
	if err != nil {
		return &ModelError{Clip: clip.ID, Reason: err.Error()}
	}

	c.finishCrossfadeLocked()

	// The old action is not force-stopped: it joins the outgoing set and
	// keeps playing until its own fade completes. The fade starts from
	// its current weight so interrupting a transition never pops.
	if c.current != nil {
		c.outgoing = append(c.outgoing, fadingAction{
			action: c.current,
			from:   c.weight,
			window: opts.Duration.Seconds(),
		})
	}

	action.SetLoop(opts.Loop)
	action.ClampWhenFinished(!opts.Loop)
	action.SetWeight(0)
	action.SetTimeScale(opts.TimeScale * c.timeScale)
	action.Play()

	c.current = action
	c.clip = clip
	c.weight = 0
	c.fadeTotal = opts.Duration.Seconds()
	c.fadeIn = c.fadeTotal
	c.state = AnimPlaying

	log.Debug("animation transition",
		"clip", clip.ID,
		"duration", opts.Duration,
		"loop", opts.Loop)
	return nil
}

// CrossFade replaces the current clip with a synchronized weight
// handoff: outgoing and incoming weights are complementary for the
// whole window and exactly one action is dominant at the end.
func (c *AnimationController) CrossFade(clip Clip, duration time.Duration) error {
	if err := c.validate(clip); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if duration <= 0 {
		duration = DefaultTransitionDuration
	}

	action, err := c.mixer.Action(clip)
	if err != nil {
		return &ModelError{Clip: clip.ID, Reason: err.Error()}
	}

	c.finishCrossfadeLocked()

	action.SetLoop(true)
	action.SetWeight(0)
	action.SetTimeScale(c.timeScale)
	action.Play()

	if c.current != nil {
		c.cross = true
		c.crossOut = c.current
		c.crossElapsed = 0
		c.crossWindow = duration.Seconds()
		c.fadeIn = 0
	} else {
		// Nothing to hand off from: degenerate to a fade-in.
		c.fadeTotal = duration.Seconds()
		c.fadeIn = c.fadeTotal
	}

	c.current = action
	c.clip = clip
	c.weight = 0
	c.state = AnimPlaying
	return nil
}

// SetSpeed ramps the playback timescale to s with a cubic ease-in-out
// over a short window instead of jumping instantaneously.
func (c *AnimationController) SetSpeed(s float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s = mgl64.Clamp(s, 0.1, 4.0)
	c.ramp = &speedRamp{
		from:   c.timeScale,
		to:     s,
		window: DefaultSpeedRampWindow.Seconds(),
	}
}

// Speed returns the effective timescale.
func (c *AnimationController) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeScale
}

// CurrentClip returns the active clip ID, or "" when idle.
func (c *AnimationController) CurrentClip() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != AnimPlaying {
		return ""
	}
	return c.clip.ID
}

// Update advances fades, crossfades and speed ramps by dt seconds.
func (c *AnimationController) Update(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ramp != nil {
		c.ramp.elapsed += dt
		t := mgl64.Clamp(c.ramp.elapsed/c.ramp.window, 0, 1)
		c.timeScale = c.ramp.from + (c.ramp.to-c.ramp.from)*easeInOutCubic(t)
		if c.current != nil {
			c.current.SetTimeScale(c.timeScale)
		}
		if t >= 1 {
			c.ramp = nil
		}
	}

	if c.current != nil && c.fadeIn > 0 {
		c.fadeIn -= dt
		t := 1.0
		if c.fadeTotal > 0 {
			t = mgl64.Clamp(1-c.fadeIn/c.fadeTotal, 0, 1)
		}
		c.weight = easeOutCubic(t)
		c.current.SetWeight(c.weight)
	}

	if c.cross {
		c.crossElapsed += dt
		t := mgl64.Clamp(c.crossElapsed/c.crossWindow, 0, 1)
		w := easeInOutCubic(t)
		c.weight = w
		c.current.SetWeight(w)
		c.crossOut.SetWeight(1 - w)
		if t >= 1 {
			c.finishCrossfadeLocked()
		}
	}

	// Outgoing fades run on independent curves.
	remaining := c.outgoing[:0]
	for _, f := range c.outgoing {
		f.elapsed += dt
		t := mgl64.Clamp(f.elapsed/f.window, 0, 1)
		f.action.SetWeight(f.from * (1 - easeInCubic(t)))
		if t >= 1 {
			f.action.Stop()
			continue
		}
		remaining = append(remaining, f)
	}
	c.outgoing = remaining
}

// StopAll halts the active and all fading actions immediately.
func (c *AnimationController) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.Stop()
		c.current = nil
	}
	if c.cross {
		c.crossOut.Stop()
		c.cross = false
		c.crossOut = nil
	}
	for _, f := range c.outgoing {
		f.action.Stop()
	}
	c.outgoing = nil
	c.ramp = nil
	c.weight = 0
	c.state = AnimIdle
}

// finishCrossfadeLocked completes any pending handoff; caller holds the
// lock.
func (c *AnimationController) finishCrossfadeLocked() {
	if !c.cross {
		return
	}
	c.current.SetWeight(1)
	c.crossOut.Stop()
	c.cross = false
	c.crossOut = nil
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func easeInCubic(t float64) float64 {
	return t * t * t
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}
