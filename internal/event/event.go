// Package event defines the typed, timestamped lifecycle event stream that
// flows Scheduler -> Normalizer -> Writer. Events carry shared, immutable
// references to the ast nodes that produced them, never to each other - the
// event graph is strictly a tree's worth of leaves, never a cycle (design
// note: "Avoiding cycles").
package event

import (
	"time"

	"github.com/anuragh27crony/gobdd/internal/ast"
)

// Kind enumerates the event variants.
type Kind int

const (
	ParsingErrorEvent Kind = iota
	FeatureStarted
	FeatureFinished
	RuleStarted
	RuleFinished
	ScenarioStarted
	ScenarioFinished
	StepStarted
	StepFinished
	HookFailed
	CucumberFinished
	SummaryEvent
)

func (k Kind) String() string {
	switch k {
	case ParsingErrorEvent:
		return "ParsingError"
	case FeatureStarted:
		return "Feature::Started"
	case FeatureFinished:
		return "Feature::Finished"
	case RuleStarted:
		return "Rule::Started"
	case RuleFinished:
		return "Rule::Finished"
	case ScenarioStarted:
		return "Scenario::Started"
	case ScenarioFinished:
		return "Scenario::Finished"
	case StepStarted:
		return "Step::Started"
	case StepFinished:
		return "Step::Finished"
	case HookFailed:
		return "Hook::Failed"
	case CucumberFinished:
		return "Cucumber::Finished"
	case SummaryEvent:
		return "Summary"
	default:
		return "Unknown"
	}
}

// Outcome is the terminal state of a step, scenario, feature or rule.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// HookPhase distinguishes before- from after-scenario hooks.
type HookPhase int

const (
	Before HookPhase = iota
	After
)

func (p HookPhase) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// RetryState is the retry accounting carried by a Scenario::Finished event
// (spec §3, §8 invariant 6). Remaining is the retry budget left after this
// attempt, reported for display only; Final is the authoritative signal
// that no further attempt will be made for this scenario identity
// regardless of Remaining (it is true exactly on the (count+1)th attempt,
// whereas Remaining can already read 0 one attempt earlier).
type RetryState struct {
	Attempt   uint32
	Remaining uint32
	Final     bool
}

// Event is the sum type flowing through the pipeline. Only the fields
// relevant to Kind are populated; the rest are zero values.
type Event struct {
	Kind      Kind
	Timestamp time.Time

	Feature  *ast.Feature
	Rule     *ast.Rule
	Scenario *ast.Scenario
	Step     *ast.Step

	Outcome Outcome
	Err     error

	Hook HookPhase

	Retry RetryState

	// ParsePath/ParseErr are populated for ParsingErrorEvent, where no
	// Feature could be constructed at all.
	ParsePath string
	ParseErr  error

	// Captures/Named are populated for StepFinished when a step ran (as
	// opposed to being skipped without a match).
	Captures []string
	Named    map[string]string

	// Stats is populated only on SummaryEvent.
	Stats Stats
}
