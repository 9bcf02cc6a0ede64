package progress

import (
	"math"
	"testing"
)

func TestTracker_ReportsTrueDeltas(t *testing.T) {
	var tr Tracker
	steps := []struct {
		in      float64
		ok      bool
		percent int
		inc     int
	}{
		{in: 0.2, ok: false},
		{in: 10.4, ok: true, percent: 10, inc: 10},
		{in: 10.49, ok: false},
		{in: 24.5, ok: true, percent: 25, inc: 15},
		{in: 20, ok: false},
		{in: math.NaN(), ok: false},
		{in: 99.6, ok: true, percent: 100, inc: 75},
		{in: 140, ok: false},
	}
	for i, s := range steps {
		p, ok := tr.Observe(s.in)
		if ok != s.ok {
			t.Fatalf("step %d: Observe(%v) ok=%v, want %v", i, s.in, ok, s.ok)
		}
		if !ok {
			continue
		}
		if p.Percent != s.percent || p.Increment != s.inc {
			t.Fatalf("step %d: got percent=%d inc=%d, want %d/%d", i, p.Percent, p.Increment, s.percent, s.inc)
		}
	}
}

func TestTracker_CompleteSumsTo100(t *testing.T) {
	var tr Tracker
	sum := 0
	for _, v := range []float64{3, 17.7, 55, 54, 81.2} {
		if p, ok := tr.Observe(v); ok {
			sum += p.Increment
		}
	}
	done := tr.Complete()
	sum += done.Increment
	if sum != 100 {
		t.Fatalf("expected increments to sum to 100, got %d", sum)
	}
	if done.Percent != 100 || done.Message != MsgCompleted {
		t.Fatalf("unexpected completion report: %+v", done)
	}
}

func TestTracker_StartIsZeroIncrement(t *testing.T) {
	var tr Tracker
	p := tr.Start()
	if p.Increment != 0 || p.Message != MsgStarting {
		t.Fatalf("unexpected start report: %+v", p)
	}
}
