package avatar

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/echotree/avatarkit/internal/segqueue"
)

// Segment is one indexed unit of assistant text plus optional audio.
// Segments arrive in ascending index order, possibly incrementally.
type Segment struct {
	Index    int
	Marked   string
	Plain    string
	Markups  []Markup
	AudioRef string
	Duration float64 // declared seconds; 0 derives from text length
}

// parsed returns the segment with plain text and markups populated
// from the marked text when the producer sent only the marked form.
func (s Segment) parsed() Segment {
	if s.Plain == "" && s.Marked != "" {
		s.Plain, s.Markups = ParseMarkup(s.Marked)
	}
	return s
}

// plainRunes returns the plain-text length in the markup coordinate
// space.
func (s Segment) plainRunes() int {
	return utf8.RuneCountInString(s.Plain)
}

// fallbackDuration is the wait used when no audio can be played: the
// declared duration, or one derived from text length.
func (s Segment) fallbackDuration() float64 {
	if s.Duration > 0 {
		return s.Duration
	}
	d := float64(s.plainRunes()) * DefaultSecondsPerRune
	if d < 0.5 {
		d = 0.5
	}
	return d
}

// Session owns one assistant response worth of playback state: the
// ordered segment queue, the session clock, and the cursor. A session
// is created per response and reset on stop or supersession.
type Session struct {
	id    string
	queue *segqueue.Queue[Segment]

	mu      sync.Mutex
	started bool
	startAt time.Time
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		id:    uuid.NewString(),
		queue: segqueue.New[Segment](),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append adds one segment to the tail of the queue.
func (s *Session) Append(seg Segment) error {
	return s.queue.Append(seg.parsed())
}

// Replace swaps the whole queue for a batch of segments and marks the
// stream complete.
func (s *Session) Replace(segs []Segment) {
	parsed := make([]Segment, len(segs))
	for i, seg := range segs {
		parsed[i] = seg.parsed()
	}
	s.queue.Replace(parsed)
	s.queue.Close()
}

// EndOfStream marks that no further segments will arrive.
func (s *Session) EndOfStream() { s.queue.Close() }

// Len returns the number of queued segments.
func (s *Session) Len() int { return s.queue.Len() }

// Queue exposes the underlying queue to the sequencer.
func (s *Session) Queue() *segqueue.Queue[Segment] { return s.queue }

// begin starts the session clock once.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.started = true
		s.startAt = time.Now()
	}
}

// reset rewinds the session clock so a fresh play starts from zero.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// Elapsed returns session-relative elapsed seconds. It advances
// continuously across segment boundaries, audio or not.
func (s *Session) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0
	}
	return time.Since(s.startAt).Seconds()
}
