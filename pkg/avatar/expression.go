package avatar

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// MouthChannel is the expression channel driven by the lip-sync
// analyzer. It is deliberately separate from the semantic presets so a
// discrete expression and mouth motion can be active in one frame.
const MouthChannel = "mouthOpen"

// NeutralExpression is the preset applied when a sequence completes.
const NeutralExpression = "neutral"

// ExpressionPreset maps channel names to target weights.
type ExpressionPreset map[string]float64

// defaultPresets covers the expression vocabulary the markup grammar
// commonly emits. Unknown preset names resolve to neutral.
var defaultPresets = map[string]ExpressionPreset{
	NeutralExpression: {},
	"happy":           {"mouthSmile": 0.6, "cheekSquint": 0.25, "eyeSquint": 0.15},
	"sad":             {"browInnerUp": 0.4, "mouthFrown": 0.3},
	"surprised":       {"browInnerUp": 0.4, "eyeWide": 0.4, "jawDrop": 0.2},
	"angry":           {"browDown": 0.5, "mouthPress": 0.3, "noseSneer": 0.2},
	"thinking":        {"browInnerUp": 0.25, "eyeLookUp": 0.3, "mouthPress": 0.1},
}

// channelTransition eases one channel toward a target weight.
type channelTransition struct {
	from    float64
	to      float64
	elapsed float64
	window  float64
}

// ExpressionController blends named expression channels and pushes the
// result into the scene graph each tick. Semantic presets transition
// with easing; the mouth channel is written directly by the lip-sync
// analyzer every tick and bypasses transitions.
type ExpressionController struct {
	mu          sync.Mutex
	presets     map[string]ExpressionPreset
	channels    map[string]float64
	transitions map[string]*channelTransition
	mouth       float64
	window      time.Duration
}

// NewExpressionController creates a controller with the default preset
// vocabulary.
func NewExpressionController() *ExpressionController {
	return &ExpressionController{
		presets:     defaultPresets,
		channels:    make(map[string]float64),
		transitions: make(map[string]*channelTransition),
		window:      DefaultTransitionDuration,
	}
}

// ApplyPreset transitions all channels toward the named preset.
// Channels absent from the preset ease back to zero.
func (ec *ExpressionController) ApplyPreset(name string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	preset, ok := ec.presets[name]
	if !ok {
		preset = ec.presets[NeutralExpression]
	}

	targets := make(map[string]float64, len(preset))
	for ch, w := range preset {
		targets[ch] = w
	}
	for ch := range ec.channels {
		if _, ok := targets[ch]; !ok {
			targets[ch] = 0
		}
	}

	for ch, w := range targets {
		ec.transitions[ch] = &channelTransition{
			from:   ec.channels[ch],
			to:     mgl64.Clamp(w, 0, 1),
			window: ec.window.Seconds(),
		}
	}
}

// SetMouth writes the lip-sync channel for the current frame.
func (ec *ExpressionController) SetMouth(v float64) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.mouth = mgl64.Clamp(v, 0, 1)
}

// Update advances transitions by dt seconds and returns the full
// channel snapshot for this frame, mouth channel included.
func (ec *ExpressionController) Update(dt float64) map[string]float64 {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	for ch, tr := range ec.transitions {
		tr.elapsed += dt
		t := mgl64.Clamp(tr.elapsed/tr.window, 0, 1)
		ec.channels[ch] = tr.from + (tr.to-tr.from)*easeInOutCubic(t)
		if t >= 1 {
			if ec.channels[ch] == 0 {
				delete(ec.channels, ch)
			}
			delete(ec.transitions, ch)
		}
	}

	out := make(map[string]float64, len(ec.channels)+1)
	for ch, w := range ec.channels {
		out[ch] = w
	}
	out[MouthChannel] = ec.mouth
	return out
}

// Reset snaps every channel to zero with no transition.
func (ec *ExpressionController) Reset() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.channels = make(map[string]float64)
	ec.transitions = make(map[string]*channelTransition)
	ec.mouth = 0
}
