package writer

import "github.com/anuragh27crony/gobdd/internal/event"

// Predicate decides whether an event should be remembered for replay.
type Predicate func(e event.Event) bool

// FailedOrSkippedStep is the Predicate used to duplicate failed/skipped
// steps at the bottom of a terminal report, so they are easy to spot
// without scrolling back.
func FailedOrSkippedStep(e event.Event) bool {
	return e.Kind == event.StepFinished && (e.Outcome == event.Failed || e.Outcome == event.Skipped)
}

// Repeat remembers every event matching its predicate and replays them
// after Cucumber::Finished, once the whole run's events have already been
// forwarded once (spec §4.5). Next must be NonTransforming, since Repeat
// relies on seeing the exact same events it is about to resend.
type Repeat struct {
	Next      Writer
	Predicate Predicate

	remembered []event.Event
}

// NewRepeat wraps next, which must report NonTransforming() == true.
func NewRepeat(next Writer, predicate Predicate) *Repeat {
	return &Repeat{Next: next, Predicate: predicate}
}

func (w *Repeat) Write(e event.Event) {
	if w.Predicate(e) {
		w.remembered = append(w.remembered, e)
	}
	w.Next.Write(e)

	if e.Kind == event.CucumberFinished {
		for _, r := range w.remembered {
			w.Next.Write(r)
		}
	}
}

func (w *Repeat) Close() error { return w.Next.Close() }

func (w *Repeat) Normalized() bool      { return w.Next.Normalized() }
func (w *Repeat) NonTransforming() bool { return false }
func (w *Repeat) Summarizable() bool    { return w.Next.Summarizable() }
