package writer

import (
	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/tags"
)

// FailOnSkipped transforms inbound Step::Skipped events into Step::Failed
// unless the owning scenario carries the reserved @allow.skipped tag (spec
// §4.5, §8 invariant 5).
type FailOnSkipped struct {
	Next Writer

	currentScenario *ast.Scenario
	allowSkipped    bool
}

// NewFailOnSkipped wraps next.
func NewFailOnSkipped(next Writer) *FailOnSkipped {
	return &FailOnSkipped{Next: next}
}

func (w *FailOnSkipped) Write(e event.Event) {
	switch e.Kind {
	case event.ScenarioStarted:
		w.currentScenario = e.Scenario
		w.allowSkipped = tags.Contains(ast.EffectiveTags(e.Feature, e.Rule, e.Scenario), tags.AllowSkipped)
	case event.StepFinished:
		if e.Outcome == event.Skipped && !w.allowSkipped {
			e.Outcome = event.Failed
			if e.Err == nil {
				e.Err = &event.NoMatchError{Text: stepText(e)}
			}
		}
	}
	w.Next.Write(e)
}

func stepText(e event.Event) string {
	if e.Step == nil {
		return ""
	}
	return e.Step.Text
}

func (w *FailOnSkipped) Close() error { return w.Next.Close() }

// Normalized: this writer needs to see a scenario's Started before its
// steps to know whether @allow.skipped applies, so it requires an ordered
// stream.
func (w *FailOnSkipped) Normalized() bool      { return true }
func (w *FailOnSkipped) NonTransforming() bool { return false }
func (w *FailOnSkipped) Summarizable() bool    { return w.Next.Summarizable() }
