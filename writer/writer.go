// Package writer defines the event sink contract of spec §4.5 and its
// composition primitives: Tee, FailOnSkipped, Summarize, Repeat, and
// Normalize. A composed writer pipeline is itself a Writer, so CLI
// wiring builds one by nesting constructors.
package writer

import "github.com/anuragh27crony/gobdd/internal/event"

// Writer consumes one event at a time, in whatever order its capability
// flags require, and performs I/O, aggregation, or forwarding. Close
// flushes and releases any resources; it is called exactly once, after the
// final event.
type Writer interface {
	Write(e event.Event)
	Close() error

	// Normalized reports whether this writer only works correctly on an
	// already-ordered stream - if true, the pipeline must put a Normalize
	// stage above it.
	Normalized() bool
	// NonTransforming reports whether this writer forwards every event
	// unchanged - required of whatever sits directly below a Repeat stage.
	NonTransforming() bool
	// Summarizable reports whether this writer, or a writer it wraps, keeps
	// run statistics; only Summarize itself exposes them via Stats().
	Summarizable() bool
}

// Stats is implemented by writers that expose running statistics, notably
// Summarize.
type Stats interface {
	Stats() event.Stats
}
