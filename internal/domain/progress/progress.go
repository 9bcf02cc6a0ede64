package progress

import (
	"fmt"
	"math"

	"github.com/forPelevin/audioconv/internal/types"
)

const (
	MsgStarting  = "Starting conversion..."
	MsgCompleted = "Conversion completed!"
)

// Tracker turns the engine's absolute percent estimates into reports with a
// true increment. The reported percent never goes backwards and never
// exceeds 100, so increments over a job sum to at most 100.
type Tracker struct {
	last int
}

// Last returns the most recently reported percent.
func (t *Tracker) Last() int { return t.last }

// Observe rounds percent to the nearest integer and returns a report when it
// moves past the last reported value.
func (t *Tracker) Observe(percent float64) (types.Progress, bool) {
	if math.IsNaN(percent) {
		return types.Progress{}, false
	}
	p := int(math.Round(percent))
	if p > 100 {
		p = 100
	}
	if p <= t.last {
		return types.Progress{}, false
	}
	inc := p - t.last
	t.last = p
	return types.Progress{
		Percent:   p,
		Increment: inc,
		Message:   fmt.Sprintf("Converting... %d%%", p),
	}, true
}

// Start is the zero-increment report emitted when the engine starts.
func (t *Tracker) Start() types.Progress {
	return types.Progress{Percent: t.last, Message: MsgStarting}
}

// Complete returns the final 100% report.
func (t *Tracker) Complete() types.Progress {
	inc := 100 - t.last
	t.last = 100
	return types.Progress{Percent: 100, Increment: inc, Message: MsgCompleted}
}
