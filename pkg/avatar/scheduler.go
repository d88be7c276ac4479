package avatar

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// StateSink receives fired State markups (expression presets).
type StateSink func(value string)

// ActionSink receives fired Action markups (animation triggers).
type ActionSink func(value string)

// armedMarkup is one scheduled markup instance. Identity is the armed
// occurrence, not the markup value: the same Action armed twice fires
// twice.
type armedMarkup struct {
	id      string
	kind    MarkupKind
	value   string
	at      float64 // seconds, session-relative
	segment int
	seq     int
	fired   bool
}

// Scheduler polls a session's elapsed time against armed markups and
// fires each exactly once. The firing predicate is elapsed >= at, never
// an equality check: a stalled frame fires late rather than dropping
// the trigger.
type Scheduler struct {
	mu       sync.Mutex
	armed    []*armedMarkup
	onState  StateSink
	onAction ActionSink
}

// NewScheduler creates a scheduler routing to the given sinks. Nil
// sinks are allowed and simply swallow their kind.
func NewScheduler(onState StateSink, onAction ActionSink) *Scheduler {
	return &Scheduler{onState: onState, onAction: onAction}
}

// Arm schedules a segment's markups against the session clock.
// segStart is the session-relative time the segment began, duration
// the segment's playback length, and plainRunes the plain-text length
// used to map character offsets onto the timeline.
func (s *Scheduler) Arm(segment int, segStart, duration float64, plainRunes int, markups []Markup) {
	if len(markups) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range markups {
		s.armed = append(s.armed, &armedMarkup{
			id:      uuid.NewString(),
			kind:    m.Kind,
			value:   m.Value,
			at:      segStart + m.At(plainRunes, duration),
			segment: segment,
			seq:     m.Seq,
		})
	}

	// Non-decreasing firing order: by time, ties by parse order.
	sort.SliceStable(s.armed, func(i, j int) bool {
		a, b := s.armed[i], s.armed[j]
		if a.at != b.at {
			return a.at < b.at
		}
		if a.segment != b.segment {
			return a.segment < b.segment
		}
		return a.seq < b.seq
	})
}

// Poll fires every armed markup whose time has elapsed and that has not
// fired yet, in order.
func (s *Scheduler) Poll(elapsed float64) {
	s.mu.Lock()
	var due []*armedMarkup
	for _, m := range s.armed {
		if !m.fired && elapsed >= m.at {
			m.fired = true
			due = append(due, m)
		}
	}
	s.mu.Unlock()

	// Sinks run outside the lock so a sink may re-enter the scheduler.
	for _, m := range due {
		log.Debug("markup fired",
			"kind", m.kind.String(),
			"value", m.value,
			"at", m.at,
			"elapsed", elapsed,
			"instance", m.id)
		switch m.kind {
		case MarkupState:
			if s.onState != nil {
				s.onState(m.value)
			}
		case MarkupAction:
			if s.onAction != nil {
				s.onAction(m.value)
			}
		}
	}
}

// Pending returns the number of armed, unfired markups.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.armed {
		if !m.fired {
			n++
		}
	}
	return n
}

// Reset clears all armed and fired state so a fresh session starts with
// an empty schedule.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = nil
}
