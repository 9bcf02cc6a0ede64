package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/audioconv/internal/ports"
)

// readProgress consumes ffmpeg's "-progress" key=value stream. Every block
// is terminated by a progress=continue|end line; one event is emitted per
// block. Percent is only set when total is known.
func readProgress(r io.Reader, total time.Duration, emit func(ports.Event)) error {
	sc := bufio.NewScanner(r)
	var outUS int64
	var haveOut bool
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			if n, err := strconv.ParseInt(val, 10, 64); err == nil && n >= 0 {
				outUS = n
				haveOut = true
			}
		case "progress":
			ev := ports.Event{Kind: ports.EventProgress}
			if haveOut && total > 0 {
				ev.Percent = percentOf(time.Duration(outUS)*time.Microsecond, total)
				ev.HasPercent = true
			}
			emit(ev)
		}
	}
	return sc.Err()
}

func percentOf(done, total time.Duration) float64 {
	p := float64(done) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
