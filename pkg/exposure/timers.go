package exposure

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotRunning is returned when stopping a user's timer that was never
	// started.
	ErrNotRunning = errors.New("exposure timer not running")
	errStopped    = errors.New("timers stopped")
)

type timerOp int

const (
	opStart timerOp = iota
	opStop
	opElapsed
)

type timerRequest struct {
	op     timerOp
	userID string
	reply  chan timerResponse
}

type timerResponse struct {
	elapsed time.Duration
	running bool
	err     error
}

// Timers keeps one stopwatch per user. All stopwatches live inside a single
// goroutine, so the map needs no locking.
type Timers struct {
	now      func() time.Time
	requests chan timerRequest
	quit     chan struct{}
}

// NewTimers starts the owning goroutine. now may be nil for time.Now.
func NewTimers(now func() time.Time) *Timers {
	if now == nil {
		now = time.Now
	}
	t := &Timers{now: now, requests: make(chan timerRequest), quit: make(chan struct{})}
	go t.loop()
	return t
}

// Close stops the goroutine. Safe to call more than once.
func (t *Timers) Close() {
	select {
	case <-t.quit:
	default:
		close(t.quit)
	}
}

// Start begins or resumes the user's exposure timer.
func (t *Timers) Start(ctx context.Context, userID string) (time.Duration, error) {
	resp, err := t.do(ctx, opStart, userID)
	return resp.elapsed, err
}

// Stop ends the user's exposure and returns the total time; the timer is
// cleared for the next exposure.
func (t *Timers) Stop(ctx context.Context, userID string) (time.Duration, error) {
	resp, err := t.do(ctx, opStop, userID)
	return resp.elapsed, err
}

// Elapsed reports the running total without stopping.
func (t *Timers) Elapsed(ctx context.Context, userID string) (time.Duration, bool, error) {
	resp, err := t.do(ctx, opElapsed, userID)
	return resp.elapsed, resp.running, err
}

func (t *Timers) do(ctx context.Context, op timerOp, userID string) (timerResponse, error) {
	select {
	case <-t.quit:
		return timerResponse{}, errStopped
	default:
	}
	req := timerRequest{op: op, userID: userID, reply: make(chan timerResponse, 1)}
	select {
	case <-ctx.Done():
		return timerResponse{}, ctx.Err()
	case <-t.quit:
		return timerResponse{}, errStopped
	case t.requests <- req:
	}
	select {
	case <-ctx.Done():
		return timerResponse{}, ctx.Err()
	case <-t.quit:
		return timerResponse{}, errStopped
	case resp := <-req.reply:
		return resp, resp.err
	}
}

func (t *Timers) loop() {
	watches := make(map[string]*Stopwatch)
	for {
		select {
		case <-t.quit:
			return
		case req := <-t.requests:
			sw := watches[req.userID]
			switch req.op {
			case opStart:
				if sw == nil {
					sw = NewStopwatch(t.now)
					watches[req.userID] = sw
				}
				sw.Start()
				req.reply <- timerResponse{elapsed: sw.Elapsed(), running: true}
			case opStop:
				if sw == nil {
					req.reply <- timerResponse{err: ErrNotRunning}
					continue
				}
				total := sw.Stop()
				delete(watches, req.userID)
				req.reply <- timerResponse{elapsed: total}
			case opElapsed:
				if sw == nil {
					req.reply <- timerResponse{}
					continue
				}
				req.reply <- timerResponse{elapsed: sw.Elapsed(), running: sw.Running()}
			}
		}
	}
}
