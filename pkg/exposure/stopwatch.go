package exposure

import "time"

// Stopwatch times an exposure across one or more start/stop laps, the way
// the field form's timer does. It is not safe for concurrent use.
type Stopwatch struct {
	now     func() time.Time
	started time.Time
	running bool
	total   time.Duration
}

// NewStopwatch returns a stopped stopwatch. now may be nil for time.Now.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start begins a lap; starting a running stopwatch does nothing.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.started = s.now()
	s.running = true
}

// Stop ends the current lap and returns the accumulated time.
func (s *Stopwatch) Stop() time.Duration {
	if s.running {
		s.total += s.now().Sub(s.started)
		s.running = false
	}
	return s.total
}

// Elapsed returns the accumulated time including a running lap.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.total + s.now().Sub(s.started)
	}
	return s.total
}

// Running reports whether a lap is in progress.
func (s *Stopwatch) Running() bool { return s.running }

// Reset stops the stopwatch and clears the total.
func (s *Stopwatch) Reset() {
	s.running = false
	s.total = 0
}
