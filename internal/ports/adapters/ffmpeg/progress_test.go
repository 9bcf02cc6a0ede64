package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/audioconv/internal/ports"
)

func TestReadProgress(t *testing.T) {
	in := strings.Join([]string{
		"frame=0",
		"out_time_us=N/A",
		"progress=continue",
		"out_time_us=2500000",
		"out_time=00:00:02.500000",
		"progress=continue",
		"out_time_ms=7500000",
		"progress=continue",
		"out_time_us=12000000",
		"progress=end",
	}, "\n")

	var got []ports.Event
	if err := readProgress(strings.NewReader(in), 10*time.Second, func(ev ports.Event) {
		got = append(got, ev)
	}); err != nil {
		t.Fatalf("readProgress: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 progress events, got %d: %+v", len(got), got)
	}
	if got[0].HasPercent {
		t.Fatalf("expected no percent before out_time is known, got %+v", got[0])
	}
	want := []float64{25, 75, 100}
	for i, w := range want {
		ev := got[i+1]
		if ev.Kind != ports.EventProgress || !ev.HasPercent || ev.Percent != w {
			t.Fatalf("event %d: got %+v, want percent %v", i+1, ev, w)
		}
	}
}

func TestReadProgress_UnknownDuration(t *testing.T) {
	in := "out_time_us=1000000\nprogress=continue\n"
	var got []ports.Event
	_ = readProgress(strings.NewReader(in), 0, func(ev ports.Event) { got = append(got, ev) })
	if len(got) != 1 || got[0].HasPercent {
		t.Fatalf("expected one event without percent, got %+v", got)
	}
}

func TestTailBuffer_KeepsLastLines(t *testing.T) {
	b := &tailBuffer{max: 2}
	_, _ = b.Write([]byte("one\ntwo\n\nthr"))
	_, _ = b.Write([]byte("ee\nfour"))
	if got := b.String(); got != "three\nfour" {
		t.Fatalf("unexpected tail: %q", got)
	}
}
