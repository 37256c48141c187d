package writer

import "github.com/anuragh27crony/gobdd/internal/event"

// Summarize maintains the running Stats counters and, on
// Cucumber::Finished, emits one SummaryEvent downstream carrying the final
// tally right after forwarding Cucumber::Finished itself. Every other event
// passes through unchanged (spec §4.5).
type Summarize struct {
	Next  Writer
	stats event.Stats
}

// NewSummarize wraps next.
func NewSummarize(next Writer) *Summarize {
	return &Summarize{Next: next}
}

func (w *Summarize) Write(e event.Event) {
	w.stats.Apply(e)
	w.Next.Write(e)

	if e.Kind == event.CucumberFinished {
		w.Next.Write(event.Event{Kind: event.SummaryEvent, Stats: w.stats})
	}
}

// Stats returns the running tally; implements the writer.Stats interface.
func (w *Summarize) Stats() event.Stats { return w.stats }

func (w *Summarize) Close() error { return w.Next.Close() }

func (w *Summarize) Normalized() bool      { return w.Next.Normalized() }
func (w *Summarize) NonTransforming() bool { return false }
func (w *Summarize) Summarizable() bool    { return true }
