package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/anuragh27crony/gobdd/internal/event"
)

// ColorMode is the text writer's colorization setting (spec §6 --color
// flag).
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Verbosity names the detail levels of spec §6's -v/-vv/-vvv flags:
// default, include World on failure, include docstrings.
type Verbosity int

const (
	VerbosityDefault Verbosity = iota
	VerbosityWorld
	VerbosityDocStrings
)

// Text is the terminal default writer: a human-readable report in the
// teacher's plain-text style (grounded on the pack's TextFormatter), reading
// the normalized event stream. Text stores its ColorMode and Verbosity but
// does not read them: it writes no color codes and prints the same lines at
// every verbosity level.
type Text struct {
	out       io.Writer
	color     ColorMode
	verbosity Verbosity
}

// NewText builds the default text writer. It requires a normalized stream.
func NewText(out io.Writer, color ColorMode, verbosity Verbosity) *Text {
	return &Text{out: out, color: color, verbosity: verbosity}
}

func (t *Text) Write(e event.Event) {
	switch e.Kind {
	case event.FeatureStarted:
		fmt.Fprintf(t.out, "Feature: %s\n", e.Feature.Name)
	case event.FeatureFinished:
		fmt.Fprintf(t.out, "\n")
	case event.RuleStarted:
		fmt.Fprintf(t.out, "  Rule: %s\n", e.Rule.Name)
	case event.ScenarioStarted:
		fmt.Fprintf(t.out, "    Scenario: %s\n", e.Scenario.Name)
		if e.Retry.Attempt > 0 {
			fmt.Fprintf(t.out, "      (retry attempt %d, %d remaining)\n", e.Retry.Attempt, e.Retry.Remaining)
		}
	case event.StepFinished:
		t.writeStep(e)
	case event.HookFailed:
		fmt.Fprintf(t.out, "      %s-hook failed: %v\n", e.Hook, e.Err)
	case event.ParsingErrorEvent:
		fmt.Fprintf(t.out, "parse error (%s): %v\n", e.ParsePath, e.ParseErr)
	case event.SummaryEvent:
		t.writeSummary(e.Stats)
	}
}

func (t *Text) writeStep(e event.Event) {
	label := strings.ToUpper(e.Outcome.String())
	text := ""
	if e.Step != nil {
		text = e.Step.Text
		if e.Step.Background {
			text = "(background) " + text
		}
	}
	fmt.Fprintf(t.out, "      %-8s %s\n", label, text)
	if e.Err != nil {
		fmt.Fprintf(t.out, "        %v\n", e.Err)
	}
}

func (t *Text) writeSummary(s event.Stats) {
	fmt.Fprintln(t.out, "=== Summary ===")
	fmt.Fprintf(t.out, "Scenarios: %d passed, %d failed, %d skipped\n", s.Scenarios.Passed, s.Scenarios.Failed, s.Scenarios.Skipped)
	fmt.Fprintf(t.out, "Steps:     %d passed, %d failed, %d skipped\n", s.Steps.Passed, s.Steps.Failed, s.Steps.Skipped)
	if s.RetriedSteps > 0 {
		fmt.Fprintf(t.out, "Retried:   %d\n", s.RetriedSteps)
	}
	if s.ParsingErrors > 0 {
		fmt.Fprintf(t.out, "Parse errors: %d\n", s.ParsingErrors)
	}
}

func (t *Text) Close() error { return nil }

func (t *Text) Normalized() bool      { return true }
func (t *Text) NonTransforming() bool { return true }
func (t *Text) Summarizable() bool    { return false }
