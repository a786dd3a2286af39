package exposure

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"radiography-shield/pkg/shielding"
)

func TestComputeDose(t *testing.T) {
	t.Parallel()

	c := shielding.Constants{Gamma: shielding.Ir192.Gamma(), Mu: 1.444}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rec, err := Compute(Input{
		UserID:      "u1",
		Isotope:     shielding.Ir192,
		ActivityCi:  10,
		Constants:   c,
		DistanceM:   20,
		ThicknessMM: 10,
		Duration:    90 * time.Second,
	}, now)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	wantRate := 370 * 0.13 / 400 * math.Exp(-1.444)
	if math.Abs(rec.DoseRate-wantRate) > 1e-12 {
		t.Fatalf("DoseRate=%v want %v", rec.DoseRate, wantRate)
	}
	if math.Abs(rec.Dose-wantRate*0.025) > 1e-12 {
		t.Fatalf("Dose=%v want %v", rec.Dose, wantRate*0.025)
	}
	if rec.ID == "" || rec.Isotope != "Ir-192" || !rec.CreatedAt.Equal(now) {
		t.Fatalf("record=%+v", rec)
	}
}

func TestComputeRejects(t *testing.T) {
	t.Parallel()

	base := Input{Isotope: shielding.Se75, ActivityCi: 5, Constants: shielding.Constants{Gamma: 0.054}, DistanceM: 3, Duration: time.Minute}
	tests := []struct {
		name   string
		mutate func(*Input)
		want   error
	}{
		{name: "zero distance", mutate: func(in *Input) { in.DistanceM = 0 }, want: shielding.ErrInvalidInput},
		{name: "negative thickness", mutate: func(in *Input) { in.ThicknessMM = -1 }, want: shielding.ErrInvalidInput},
		{name: "negative duration", mutate: func(in *Input) { in.Duration = -time.Second }, want: shielding.ErrInvalidInput},
		{name: "no activity", mutate: func(in *Input) { in.ActivityCi = 0 }, want: shielding.ErrInvalidInput},
		{name: "no gamma", mutate: func(in *Input) { in.Constants.Gamma = 0 }, want: shielding.ErrUnresolvedCoefficient},
	}
	for _, tc := range tests {
		in := base
		tc.mutate(&in)
		if _, err := Compute(in, time.Now()); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v want %v", tc.name, err, tc.want)
		}
	}
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestStopwatchLaps(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Unix(1000, 0)}
	sw := NewStopwatch(clk.now)
	sw.Start()
	clk.advance(30 * time.Second)
	if got := sw.Stop(); got != 30*time.Second {
		t.Fatalf("first lap=%v", got)
	}
	clk.advance(time.Hour)
	sw.Start()
	sw.Start()
	clk.advance(15 * time.Second)
	if got := sw.Elapsed(); got != 45*time.Second || !sw.Running() {
		t.Fatalf("running elapsed=%v running=%t", got, sw.Running())
	}
	if got := sw.Stop(); got != 45*time.Second {
		t.Fatalf("total=%v", got)
	}
	sw.Reset()
	if sw.Elapsed() != 0 || sw.Running() {
		t.Fatalf("reset left %v", sw.Elapsed())
	}
}

func TestTimersPerUser(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Unix(1000, 0)}
	timers := NewTimers(clk.now)
	defer timers.Close()
	ctx := context.Background()

	if _, err := timers.Start(ctx, "u1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.advance(2 * time.Minute)
	if _, err := timers.Start(ctx, "u2"); err != nil {
		t.Fatalf("Start u2: %v", err)
	}
	clk.advance(time.Minute)

	elapsed, running, err := timers.Elapsed(ctx, "u1")
	if err != nil || !running || elapsed != 3*time.Minute {
		t.Fatalf("Elapsed=%v running=%t err=%v", elapsed, running, err)
	}
	got, err := timers.Stop(ctx, "u2")
	if err != nil || got != time.Minute {
		t.Fatalf("Stop u2=%v err=%v", got, err)
	}
	if _, err := timers.Stop(ctx, "u2"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Stop err=%v", err)
	}

	timers.Close()
	if _, err := timers.Start(ctx, "u1"); err == nil {
		t.Fatalf("Start after Close succeeded")
	}
}

func TestDurationFromSeconds(t *testing.T) {
	t.Parallel()

	got, err := DurationFromSeconds(90.5)
	if err != nil || got != 90500*time.Millisecond {
		t.Fatalf("DurationFromSeconds(90.5)=%v, %v", got, err)
	}
	for _, s := range []float64{-1, 1e300, maxSeconds, math.Inf(1), math.NaN()} {
		if _, err := DurationFromSeconds(s); !errors.Is(err, shielding.ErrInvalidInput) {
			t.Fatalf("DurationFromSeconds(%v) err=%v want invalid input", s, err)
		}
	}
}
