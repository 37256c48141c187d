package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/registry"
)

type testWorld struct {
	calls []string
}

func scenarioWith(steps ...ast.Step) Run {
	return Run{
		Feature:  &ast.Feature{Name: "f"},
		Scenario: &ast.Scenario{Name: "s", Steps: steps},
	}
}

func collect() (Emit, *[]event.Event) {
	events := &[]event.Event{}
	return func(e event.Event) { *events = append(*events, e) }, events
}

func TestExecute_AllStepsPass(t *testing.T) {
	reg := registry.New()
	w := &testWorld{}

	require.NoError(t, reg.RegisterExpression(registry.Given, "a user named {string}", func(world interface{}, name string) error {
		world.(*testWorld).calls = append(world.(*testWorld).calls, "given:"+name)
		return nil
	}))
	require.NoError(t, reg.RegisterExpression(registry.Then, "they are greeted", func(world interface{}) error {
		world.(*testWorld).calls = append(world.(*testWorld).calls, "then")
		return nil
	}))

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return w, nil },
	}

	run := scenarioWith(
		ast.Step{Kind: ast.Given, Text: `a user named "Ada"`},
		ast.Step{Kind: ast.Then, Text: "they are greeted"},
	)

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Passed, outcome)
	assert.Equal(t, []string{`given:Ada`, "then"}, w.calls)

	assert.Equal(t, event.ScenarioStarted, (*events)[0].Kind)
	assert.Equal(t, event.ScenarioFinished, (*events)[len(*events)-1].Kind)
	assert.Equal(t, event.Passed, (*events)[len(*events)-1].Outcome)
}

func TestExecute_FailureSkipsRemainingSteps(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterExpression(registry.Given, "it fails", func(world interface{}) error {
		return errors.New("boom")
	}))
	require.NoError(t, reg.RegisterExpression(registry.Then, "never runs", func(world interface{}) error {
		t.Fatal("should not be invoked")
		return nil
	}))

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return &testWorld{}, nil },
	}
	run := scenarioWith(
		ast.Step{Kind: ast.Given, Text: "it fails"},
		ast.Step{Kind: ast.Then, Text: "never runs"},
	)

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Failed, outcome)

	var finishedKinds []event.Outcome
	for _, e := range *events {
		if e.Kind == event.StepFinished {
			finishedKinds = append(finishedKinds, e.Outcome)
		}
	}
	assert.Equal(t, []event.Outcome{event.Failed, event.Skipped}, finishedKinds)
}

func TestExecute_NoMatchSkipsStep(t *testing.T) {
	reg := registry.New()
	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return &testWorld{}, nil },
	}
	run := scenarioWith(ast.Step{Kind: ast.Given, Text: "an undefined step"})

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Skipped, outcome)
	last := (*events)[len(*events)-1]
	assert.Equal(t, event.ScenarioFinished, last.Kind)
	assert.Equal(t, event.Skipped, last.Outcome)
}

func TestExecute_AmbiguousMatchFailsScenario(t *testing.T) {
	reg := registry.New()
	noop := func(world interface{}) error { return nil }
	require.NoError(t, reg.RegisterExpression(registry.Given, "a {word} thing", noop))
	require.NoError(t, reg.RegisterExpression(registry.Given, "a red thing", noop))

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return &testWorld{}, nil },
	}
	run := scenarioWith(ast.Step{Kind: ast.Given, Text: "a red thing"})

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Failed, outcome)
	var sawAmbiguous bool
	for _, e := range *events {
		if e.Kind == event.StepFinished {
			var ambErr *event.AmbiguousMatchError
			sawAmbiguous = errors.As(e.Err, &ambErr)
		}
	}
	assert.True(t, sawAmbiguous)
}

func TestExecute_PanicInStepBecomesFailure(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterExpression(registry.When, "it panics", func(world interface{}) error {
		panic("kaboom")
	}))

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return &testWorld{}, nil },
	}
	run := scenarioWith(ast.Step{Kind: ast.When, Text: "it panics"})

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Failed, outcome)
	var sawPanic bool
	for _, e := range *events {
		if e.Kind == event.StepFinished {
			var pErr *event.PanicError
			sawPanic = errors.As(e.Err, &pErr)
		}
	}
	assert.True(t, sawPanic)
}

func TestExecute_WorldInitErrorSkipsHooksAndSteps(t *testing.T) {
	reg := registry.New()
	afterCalled := false

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return nil, errors.New("db unreachable") },
		AfterScenario: []AfterHook{
			func(world interface{}, outcome event.Outcome) error {
				afterCalled = true
				return nil
			},
		},
	}
	run := scenarioWith(ast.Step{Kind: ast.Given, Text: "anything"})

	emit, events := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Failed, outcome)
	assert.False(t, afterCalled, "after-hook must not run when World was never constructed")

	var sawHookFailed bool
	for _, e := range *events {
		if e.Kind == event.HookFailed {
			sawHookFailed = true
			var wErr *event.WorldInitError
			assert.True(t, errors.As(e.Err, &wErr))
		}
	}
	assert.True(t, sawHookFailed)
}

func TestExecute_AfterHookAlwaysRunsWhenWorldConstructed(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterExpression(registry.Given, "it fails", func(world interface{}) error {
		return errors.New("boom")
	}))

	afterCalledWith := event.Passed
	afterCalled := false

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return &testWorld{}, nil },
		AfterScenario: []AfterHook{
			func(world interface{}, outcome event.Outcome) error {
				afterCalled = true
				afterCalledWith = outcome
				return nil
			},
		},
	}
	run := scenarioWith(ast.Step{Kind: ast.Given, Text: "it fails"})

	emit, _ := collect()
	Execute(deps, run, emit)

	assert.True(t, afterCalled)
	assert.Equal(t, event.Failed, afterCalledWith)
}

func TestExecute_BackgroundStepsRunBeforeScenarioSteps(t *testing.T) {
	reg := registry.New()
	w := &testWorld{}
	require.NoError(t, reg.RegisterExpression(registry.Given, "background runs", func(world interface{}) error {
		world.(*testWorld).calls = append(world.(*testWorld).calls, "background")
		return nil
	}))
	require.NoError(t, reg.RegisterExpression(registry.When, "scenario runs", func(world interface{}) error {
		world.(*testWorld).calls = append(world.(*testWorld).calls, "scenario")
		return nil
	}))

	deps := Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return w, nil },
	}
	run := Run{
		Feature: &ast.Feature{
			Name:       "f",
			Background: &ast.Background{Steps: []ast.Step{{Kind: ast.Given, Text: "background runs"}}},
		},
		Scenario: &ast.Scenario{Name: "s", Steps: []ast.Step{{Kind: ast.When, Text: "scenario runs"}}},
	}

	emit, _ := collect()
	outcome := Execute(deps, run, emit)

	assert.Equal(t, event.Passed, outcome)
	assert.Equal(t, []string{"background", "scenario"}, w.calls)
}
