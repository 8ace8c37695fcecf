package tasklist

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/taskdeck/internal/query"
)

// DefaultQuietPeriod is how long typing must pause before a debounced fetch fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// Trigger classifies how quickly a mutation should reach the network.
type Trigger int

// TriggerImmediate and TriggerDebounced are the two fetch timings.
const (
	TriggerImmediate Trigger = iota
	TriggerDebounced
)

// String names the trigger for logs.
func (t Trigger) String() string {
	if t == TriggerDebounced {
		return "debounced"
	}
	return "immediate"
}

// ClassifyField returns the trigger for an edit of one filter slot. Free-text
// fields edited per keystroke are debounced; everything else fires at once.
func ClassifyField(field query.Field) Trigger {
	switch field {
	case query.FieldSearch, query.FieldTags:
		return TriggerDebounced
	default:
		return TriggerImmediate
	}
}

// debounceFiredMsg is posted when a quiet period elapses.
type debounceFiredMsg struct {
	owner *Controller
	seq   uint64
}

// tickFunc matches tea.Tick so tests can fire timers without sleeping.
type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// scheduler keeps at most one live debounce timer. Timers are cancelled by token:
// every schedule or cancel bumps seq, and a fired timer only counts when its seq
// is still current.
type scheduler struct {
	quiet   time.Duration
	tick    tickFunc
	seq     uint64
	pending bool
}

// newScheduler constructs a scheduler with the given quiet period.
func newScheduler(quiet time.Duration) scheduler {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return scheduler{quiet: quiet, tick: tea.Tick}
}

// debounce (re)starts the quiet period, superseding any pending timer.
func (s *scheduler) debounce(owner *Controller) tea.Cmd {
	s.seq++
	s.pending = true
	seq := s.seq
	return s.tick(s.quiet, func(time.Time) tea.Msg {
		return debounceFiredMsg{owner: owner, seq: seq}
	})
}

// cancel drops the pending timer, if any.
func (s *scheduler) cancel() {
	if !s.pending {
		return
	}
	s.seq++
	s.pending = false
}

// fire reports whether msg belongs to the live timer and consumes it.
func (s *scheduler) fire(msg debounceFiredMsg) bool {
	if !s.pending || msg.seq != s.seq {
		return false
	}
	s.pending = false
	return true
}
