package avatar

import "context"

// ModelHandle is an opaque reference to a loaded model owned by the
// scene-graph collaborator.
type ModelHandle any

// SceneGraph is the rendering collaborator. The engine sequences
// expression and animation against it and never touches vertices or
// materials directly.
type SceneGraph interface {
	// Load resolves a model URI into a handle.
	Load(ctx context.Context, modelURI string) (ModelHandle, error)

	// Mixer returns the animation mixer for a loaded model.
	Mixer(h ModelHandle) Mixer

	// SetExpression writes one expression channel for the frame.
	SetExpression(h ModelHandle, channel string, value float64)

	// Dispose frees the model's native resources deterministically.
	Dispose(h ModelHandle) error
}

// NopSceneGraph discards everything. Headless hosts and the demo CLI
// run the full sequencing path against it.
type NopSceneGraph struct{}

// Load returns a placeholder handle.
func (NopSceneGraph) Load(_ context.Context, modelURI string) (ModelHandle, error) {
	return modelURI, nil
}

// Mixer returns a mixer whose actions accept and ignore all input.
func (NopSceneGraph) Mixer(ModelHandle) Mixer { return nopMixer{} }

// SetExpression discards the value.
func (NopSceneGraph) SetExpression(ModelHandle, string, float64) {}

// Dispose does nothing.
func (NopSceneGraph) Dispose(ModelHandle) error { return nil }

type nopMixer struct{}

func (nopMixer) Action(Clip) (AnimationAction, error) { return nopAction{}, nil }

type nopAction struct{}

func (nopAction) Play()                  {}
func (nopAction) Stop()                  {}
func (nopAction) SetWeight(float64)      {}
func (nopAction) SetTimeScale(float64)   {}
func (nopAction) SetLoop(bool)           {}
func (nopAction) ClampWhenFinished(bool) {}
