package ports

import (
	"context"
)

type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventEnd
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from a running engine process. A process emits
// one start event, zero or more progress events, then exactly one of end or
// error, after which its event channel is closed.
type Event struct {
	Kind EventKind

	// CommandLine is set on start events.
	CommandLine string

	// Percent is set on progress events when HasPercent is true.
	Percent    float64
	HasPercent bool

	// Message is set on error events.
	Message string
}

// Invocation is everything the engine needs to run one conversion. Args are
// the output-side codec/format arguments.
type Invocation struct {
	InputPath  string
	OutputPath string
	Args       []string
}

type Process interface {
	Events() <-chan Event
	// Kill terminates the process without a grace period. The event channel
	// still closes once the process has exited.
	Kill() error
}

type Engine interface {
	// Version runs the engine's version query and returns its first line.
	Version(ctx context.Context) (string, error)
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// Notifier surfaces advisory messages to whoever drives the controller.
type Notifier interface {
	Advise(message, actionLabel, actionURL string)
}
