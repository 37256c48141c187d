// Package executor runs one scenario end to end: World construction,
// before-hook, background + scenario steps, after-hook, panic capture
// (spec §4.2).
package executor

import (
	"time"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/registry"
)

// WorldFactory constructs the per-scenario mutable World value. A fresh
// instance is created for every attempt, including retries.
type WorldFactory func() (interface{}, error)

// Hook is a before/after-scenario callback receiving the World.
type Hook func(world interface{}) error

// AfterHook additionally receives the scenario's aggregate outcome so far.
type AfterHook func(world interface{}, outcome event.Outcome) error

// StepHook is a before/after-step callback; it cannot fail the scenario
// (spec does not model step hook errors as part of the taxonomy), so it
// simply receives the World for side effects like timers.
type StepHook func(world interface{})

// Dependencies are the collaborators shared across every scenario run.
type Dependencies struct {
	Registry       *registry.Registry
	WorldFactory   WorldFactory
	BeforeScenario []Hook
	AfterScenario  []AfterHook
	BeforeStep     []StepHook
	AfterStep      []StepHook
}

// Run describes one scenario attempt to execute.
type Run struct {
	Feature  *ast.Feature
	Rule     *ast.Rule
	Scenario *ast.Scenario
	Retry    event.RetryState
}

// Emit publishes one event; implementations must not block indefinitely.
// It is called directly on the scenario's goroutine (in a Suite run, it is
// the Normalize writer's Write).
type Emit func(event.Event)

// Execute runs the 8-step protocol of spec §4.2 and returns the scenario's
// final outcome, which the scheduler uses to decide whether to retry.
func Execute(deps Dependencies, run Run, emit Emit) event.Outcome {
	now := func() time.Time { return time.Now() }

	emit(event.Event{
		Kind:      event.ScenarioStarted,
		Timestamp: now(),
		Feature:   run.Feature,
		Rule:      run.Rule,
		Scenario:  run.Scenario,
		Retry:     run.Retry,
	})

	var world interface{}
	var worldOK bool
	outcome := event.Passed

	w, err := deps.WorldFactory()
	if err != nil {
		emit(event.Event{
			Kind:      event.HookFailed,
			Timestamp: now(),
			Feature:   run.Feature,
			Rule:      run.Rule,
			Scenario:  run.Scenario,
			Hook:      event.Before,
			Err:       &event.WorldInitError{Cause: err},
			Retry:     run.Retry,
		})
		outcome = event.Failed
	} else {
		world = w
		worldOK = true

		if berr := runHooksBefore(deps.BeforeScenario, world); berr != nil {
			emit(event.Event{
				Kind:      event.HookFailed,
				Timestamp: now(),
				Feature:   run.Feature,
				Rule:      run.Rule,
				Scenario:  run.Scenario,
				Hook:      event.Before,
				Err:       berr,
				Retry:     run.Retry,
			})
			outcome = event.Failed
		} else {
			outcome = runSteps(deps, run, world, emit, now)
		}
	}

	if worldOK {
		if aerr := runHookAfter(deps.AfterScenario, world, outcome); aerr != nil {
			emit(event.Event{
				Kind:      event.HookFailed,
				Timestamp: now(),
				Feature:   run.Feature,
				Rule:      run.Rule,
				Scenario:  run.Scenario,
				Hook:      event.After,
				Err:       &event.AfterHookFailedError{Cause: aerr},
				Retry:     run.Retry,
			})
			outcome = event.Failed
		}
	}

	emit(event.Event{
		Kind:      event.ScenarioFinished,
		Timestamp: now(),
		Feature:   run.Feature,
		Rule:      run.Rule,
		Scenario:  run.Scenario,
		Outcome:   outcome,
		Retry:     run.Retry,
	})

	return outcome
}

func collectSteps(run Run) []ast.Step {
	var steps []ast.Step

	if run.Feature != nil && run.Feature.Background != nil {
		steps = append(steps, tagBackground(run.Feature.Background.Steps)...)
	}
	if run.Rule != nil && run.Rule.Background != nil {
		steps = append(steps, tagBackground(run.Rule.Background.Steps)...)
	}
	steps = append(steps, run.Scenario.Steps...)

	return steps
}

func tagBackground(steps []ast.Step) []ast.Step {
	out := make([]ast.Step, len(steps))
	for i, s := range steps {
		s.Background = true
		out[i] = s
	}
	return out
}

func runSteps(deps Dependencies, run Run, world interface{}, emit Emit, now func() time.Time) event.Outcome {
	steps := collectSteps(run)
	halted := false
	final := event.Passed

	for i := range steps {
		step := steps[i]

		emit(event.Event{
			Kind:      event.StepStarted,
			Timestamp: now(),
			Feature:   run.Feature,
			Rule:      run.Rule,
			Scenario:  run.Scenario,
			Step:      &step,
			Retry:     run.Retry,
		})

		if halted {
			emit(event.Event{
				Kind:      event.StepFinished,
				Timestamp: now(),
				Feature:   run.Feature,
				Rule:      run.Rule,
				Scenario:  run.Scenario,
				Step:      &step,
				Outcome:   event.Skipped,
				Retry:     run.Retry,
			})
			if final == event.Passed {
				final = event.Skipped
			}
			continue
		}

		outcome, stepErr, captures, named := runOneStep(deps, world, step)

		emit(event.Event{
			Kind:      event.StepFinished,
			Timestamp: now(),
			Feature:   run.Feature,
			Rule:      run.Rule,
			Scenario:  run.Scenario,
			Step:      &step,
			Outcome:   outcome,
			Err:       stepErr,
			Captures:  captures,
			Named:     named,
			Retry:     run.Retry,
		})

		switch outcome {
		case event.Failed:
			halted = true
			final = event.Failed
		case event.Skipped:
			halted = true
			if final == event.Passed {
				final = event.Skipped
			}
		}
	}

	return final
}

func runOneStep(deps Dependencies, world interface{}, step ast.Step) (event.Outcome, error, []string, map[string]string) {
	kind := toRegistryKind(step.Kind)

	result := deps.Registry.Find(kind, step.Text)

	switch result.Status {
	case registry.NoMatch:
		return event.Skipped, &event.NoMatchError{Text: step.Text}, nil, nil
	case registry.Ambiguous:
		patterns := make([]string, len(result.Conflicting))
		for i, c := range result.Conflicting {
			patterns[i] = c.Source
		}
		return event.Failed, &event.AmbiguousMatchError{Text: step.Text, Patterns: patterns}, nil, nil
	}

	for _, h := range deps.BeforeStep {
		h(world)
	}
	defer func() {
		for _, h := range deps.AfterStep {
			h(world)
		}
	}()

	err := invokeStep(result.Registration.Callback, world, result.Captures, result.Named)
	if err != nil {
		return event.Failed, err, result.Captures, result.Named
	}
	return event.Passed, nil, result.Captures, result.Named
}

func toRegistryKind(k ast.Kind) registry.Kind {
	switch k {
	case ast.Given:
		return registry.Given
	case ast.When:
		return registry.When
	default:
		return registry.Then
	}
}

func runHooksBefore(hooks []Hook, world interface{}) (err error) {
	for _, h := range hooks {
		if herr := invokeGuarded(func() error { return h(world) }); herr != nil {
			return herr
		}
	}
	return nil
}

func runHookAfter(hooks []AfterHook, world interface{}, outcome event.Outcome) error {
	for _, h := range hooks {
		if herr := invokeGuarded(func() error { return h(world, outcome) }); herr != nil {
			return herr
		}
	}
	return nil
}
