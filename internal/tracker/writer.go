package tracker

import "indoortrack/internal/telemetry"

// PositionWriter is an interface to support different output writers.
type PositionWriter interface {
	Write(telemetry.PositionRow) error
}

// Optional: writers can also support batch mode.
type batchPositionWriter interface {
	WriteBatch([]telemetry.PositionRow) error
}

// TransitionWriter handles zone transition events.
type TransitionWriter interface {
	WriteTransition(telemetry.TransitionRow) error
}

// Optional: transition writers may support batch mode.
type batchTransitionWriter interface {
	WriteTransitions([]telemetry.TransitionRow) error
}
