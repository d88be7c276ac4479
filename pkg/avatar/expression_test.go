package avatar

import (
	"math"
	"testing"
)

func TestApplyPresetEasesToTargets(t *testing.T) {
	ec := NewExpressionController()
	window := DefaultTransitionDuration.Seconds()

	ec.ApplyPreset("happy")

	snap := ec.Update(window / 2)
	mid := snap["mouthSmile"]
	if mid <= 0 || mid >= 0.6 {
		t.Fatalf("mid-transition mouthSmile = %v, want in (0, 0.6)", mid)
	}

	snap = ec.Update(window)
	if got := snap["mouthSmile"]; math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("mouthSmile = %v, want 0.6", got)
	}
	if got := snap["cheekSquint"]; math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("cheekSquint = %v, want 0.25", got)
	}
}

func TestApplyPresetFadesAbsentChannels(t *testing.T) {
	ec := NewExpressionController()
	window := DefaultTransitionDuration.Seconds()

	ec.ApplyPreset("happy")
	ec.Update(window * 2)

	ec.ApplyPreset("sad")
	snap := ec.Update(window / 2)
	if got := snap["mouthSmile"]; got <= 0 || got >= 0.6 {
		t.Fatalf("mouthSmile mid-fade = %v, want in (0, 0.6)", got)
	}

	snap = ec.Update(window)
	if _, ok := snap["mouthSmile"]; ok {
		t.Fatalf("mouthSmile still present after fade out: %v", snap["mouthSmile"])
	}
	if got := snap["mouthFrown"]; math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("mouthFrown = %v, want 0.3", got)
	}
}

func TestUnknownPresetResolvesToNeutral(t *testing.T) {
	ec := NewExpressionController()
	window := DefaultTransitionDuration.Seconds()

	ec.ApplyPreset("happy")
	ec.Update(window * 2)

	ec.ApplyPreset("no-such-preset")
	snap := ec.Update(window * 2)
	for ch, w := range snap {
		if ch == MouthChannel {
			continue
		}
		if w != 0 {
			t.Errorf("channel %s = %v after unknown preset, want faded to 0", ch, w)
		}
	}
}

func TestSetMouthBypassesTransitions(t *testing.T) {
	ec := NewExpressionController()

	ec.SetMouth(0.7)
	snap := ec.Update(0.001)
	if got := snap[MouthChannel]; math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("mouth = %v, want 0.7 immediately", got)
	}

	ec.SetMouth(2.5)
	snap = ec.Update(0.001)
	if got := snap[MouthChannel]; got != 1 {
		t.Fatalf("mouth = %v, want clamp at 1", got)
	}

	ec.SetMouth(-0.4)
	snap = ec.Update(0.001)
	if got := snap[MouthChannel]; got != 0 {
		t.Fatalf("mouth = %v, want clamp at 0", got)
	}
}

func TestMouthCoexistsWithPreset(t *testing.T) {
	ec := NewExpressionController()
	window := DefaultTransitionDuration.Seconds()

	ec.ApplyPreset("happy")
	ec.SetMouth(0.5)
	snap := ec.Update(window * 2)

	if got := snap[MouthChannel]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("mouth = %v, want 0.5", got)
	}
	if got := snap["mouthSmile"]; math.Abs(got-0.6) > 1e-9 {
		t.Errorf("mouthSmile = %v, want 0.6 alongside mouth", got)
	}
}

func TestExpressionReset(t *testing.T) {
	ec := NewExpressionController()
	ec.ApplyPreset("angry")
	ec.SetMouth(0.9)
	ec.Update(DefaultTransitionDuration.Seconds() * 2)

	ec.Reset()
	snap := ec.Update(0.001)
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d channels after reset, want mouth only: %v", len(snap), snap)
	}
	if snap[MouthChannel] != 0 {
		t.Fatalf("mouth = %v after reset, want 0", snap[MouthChannel])
	}
}
