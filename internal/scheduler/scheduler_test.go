package scheduler

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/executor"
	"github.com/anuragh27crony/gobdd/internal/registry"
	"github.com/anuragh27crony/gobdd/internal/tags"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func collectingEmit() (func(event.Event), func() []event.Event) {
	var mu sync.Mutex
	var events []event.Event
	return func(e event.Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}, func() []event.Event {
			mu.Lock()
			defer mu.Unlock()
			out := make([]event.Event, len(events))
			copy(out, events)
			return out
		}
}

func featureWithScenarios(names ...string) *ast.Feature {
	f := &ast.Feature{Name: "f"}
	for _, n := range names {
		f.Scenarios = append(f.Scenarios, &ast.Scenario{
			Name:  n,
			Steps: []ast.Step{{Kind: ast.Given, Text: "it passes"}},
		})
	}
	return f
}

func passingDeps(t *testing.T) executor.Dependencies {
	reg := registry.New()
	require.NoError(t, reg.RegisterExpression(registry.Given, "it passes", func(world interface{}) error { return nil }))
	require.NoError(t, reg.RegisterExpression(registry.Given, "it fails", func(world interface{}) error { return errors.New("boom") }))
	return executor.Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return struct{}{}, nil },
	}
}

func TestSchedulerRun_AllScenariosPass(t *testing.T) {
	deps := passingDeps(t)
	s := New(Config{Concurrency: 4}, deps)

	emit, events := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{featureWithScenarios("a", "b", "c")}, emit)

	var finished int
	for _, e := range events() {
		if e.Kind == event.ScenarioFinished {
			assert.Equal(t, event.Passed, e.Outcome)
			finished++
		}
	}
	assert.Equal(t, 3, finished)
}

func TestSchedulerRun_NameFilterDropsScenariosSilently(t *testing.T) {
	deps := passingDeps(t)
	nameFilter := regexp.MustCompile("^a$")
	s := New(Config{Concurrency: 4, Name: nameFilter}, deps)

	emit, events := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{featureWithScenarios("a", "b")}, emit)

	var started int
	for _, e := range events() {
		if e.Kind == event.ScenarioStarted {
			started++
		}
	}
	assert.Equal(t, 1, started)
}

func TestSchedulerRun_TagFilter(t *testing.T) {
	deps := passingDeps(t)
	expr, err := tags.Parse("@keep")
	require.NoError(t, err)
	s := New(Config{Concurrency: 4, TagFilter: expr}, deps)

	f := &ast.Feature{
		Name: "f",
		Scenarios: []*ast.Scenario{
			{Name: "kept", Tags: []ast.Tag{{Name: "@keep"}}, Steps: []ast.Step{{Kind: ast.Given, Text: "it passes"}}},
			{Name: "dropped", Steps: []ast.Step{{Kind: ast.Given, Text: "it passes"}}},
		},
	}

	emit, events := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{f}, emit)

	var names []string
	for _, e := range events() {
		if e.Kind == event.ScenarioStarted {
			names = append(names, e.Scenario.Name)
		}
	}
	assert.Equal(t, []string{"kept"}, names)
}

func TestSchedulerRun_RetryEventuallyPasses(t *testing.T) {
	reg := registry.New()
	var attempts int
	var mu sync.Mutex
	require.NoError(t, reg.RegisterExpression(registry.Given, "it is flaky", func(world interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts <= 2 {
			return errors.New("boom")
		}
		return nil
	}))
	deps := executor.Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return struct{}{}, nil },
	}

	s := New(Config{Concurrency: 1}, deps)
	f := &ast.Feature{
		Name: "f",
		Scenarios: []*ast.Scenario{{
			Name:  "flaky",
			Tags:  []ast.Tag{{Name: "@retry(2).after(0s)"}},
			Steps: []ast.Step{{Kind: ast.Given, Text: "it is flaky"}},
		}},
	}

	emit, events := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{f}, emit)

	var finishes []event.Event
	for _, e := range events() {
		if e.Kind == event.ScenarioFinished {
			finishes = append(finishes, e)
		}
	}
	require.Len(t, finishes, 3)
	assert.Equal(t, event.Failed, finishes[0].Outcome)
	assert.Equal(t, uint32(1), finishes[0].Retry.Remaining)
	assert.Equal(t, event.Failed, finishes[1].Outcome)
	assert.Equal(t, uint32(0), finishes[1].Retry.Remaining)
	assert.Equal(t, event.Passed, finishes[2].Outcome)
}

func TestSchedulerRun_FeatureAndRuleLifecycle(t *testing.T) {
	deps := passingDeps(t)
	s := New(Config{Concurrency: 4}, deps)

	f := &ast.Feature{
		Name: "f",
		Rules: []*ast.Rule{{
			Name: "r",
			Scenarios: []*ast.Scenario{
				{Name: "a", Steps: []ast.Step{{Kind: ast.Given, Text: "it passes"}}},
				{Name: "b", Steps: []ast.Step{{Kind: ast.Given, Text: "it passes"}}},
			},
		}},
	}

	emit, events := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{f}, emit)

	kinds := make([]event.Kind, 0)
	for _, e := range events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, event.FeatureStarted)
	assert.Contains(t, kinds, event.FeatureFinished)
	assert.Contains(t, kinds, event.RuleStarted)
	assert.Contains(t, kinds, event.RuleFinished)
	assert.Contains(t, kinds, event.CucumberFinished)
}

func TestSchedulerRun_SerialScenarioExcludesOthers(t *testing.T) {
	reg := registry.New()
	var mu sync.Mutex
	concurrentRunning := 0
	serialRunning := false
	violation := false

	require.NoError(t, reg.RegisterExpression(registry.Given, "a concurrent step runs", func(world interface{}) error {
		mu.Lock()
		concurrentRunning++
		if serialRunning {
			violation = true
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		concurrentRunning--
		mu.Unlock()
		return nil
	}))
	require.NoError(t, reg.RegisterExpression(registry.Given, "a serial step runs", func(world interface{}) error {
		mu.Lock()
		serialRunning = true
		if concurrentRunning != 0 {
			violation = true
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		serialRunning = false
		mu.Unlock()
		return nil
	}))

	deps := executor.Dependencies{
		Registry:     reg,
		WorldFactory: func() (interface{}, error) { return struct{}{}, nil },
	}

	s := New(Config{Concurrency: 8}, deps)

	f := &ast.Feature{Name: "f"}
	for i := 0; i < 6; i++ {
		f.Scenarios = append(f.Scenarios, &ast.Scenario{
			Name:  "concurrent",
			Steps: []ast.Step{{Kind: ast.Given, Text: "a concurrent step runs"}},
		})
	}
	f.Scenarios = append(f.Scenarios, &ast.Scenario{
		Name:  "serial",
		Tags:  []ast.Tag{{Name: tags.Serial}},
		Steps: []ast.Step{{Kind: ast.Given, Text: "a serial step runs"}},
	})

	emit, _ := collectingEmit()
	s.Run(context.Background(), []*ast.Feature{f}, emit)

	assert.False(t, violation, "a serial scenario must never overlap a concurrent one")
}
