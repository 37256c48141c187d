package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
)

func collect() (Sink, *[]event.Event) {
	events := &[]event.Event{}
	return func(e event.Event) { *events = append(*events, e) }, events
}

func TestNormalizer_PassthroughSingleScenario(t *testing.T) {
	f := &ast.Feature{Name: "f"}
	sc := &ast.Scenario{Name: "s"}

	out, events := collect()
	n := New(out)

	n.Handle(event.Event{Kind: event.FeatureStarted, Feature: f})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Scenario: sc})
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Scenario: sc, Outcome: event.Passed})
	n.Handle(event.Event{Kind: event.FeatureFinished, Feature: f, Outcome: event.Passed})

	kinds := kindsOf(*events)
	assert.Equal(t, []event.Kind{
		event.FeatureStarted, event.ScenarioStarted, event.ScenarioFinished, event.FeatureFinished,
	}, kinds)
}

func TestNormalizer_ReordersOutOfFirstSeenOrderCompletions(t *testing.T) {
	f := &ast.Feature{Name: "f"}
	a := &ast.Scenario{Name: "a"}
	b := &ast.Scenario{Name: "b"}

	out, events := collect()
	n := New(out)

	n.Handle(event.Event{Kind: event.FeatureStarted, Feature: f})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Scenario: a})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Scenario: b})
	// b finishes first, but a was first-seen, so b must wait.
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Scenario: b, Outcome: event.Passed})

	assert.Empty(t, *events, "b must not be released before a, which was first-seen")

	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Scenario: a, Outcome: event.Passed})
	n.Handle(event.Event{Kind: event.FeatureFinished, Feature: f, Outcome: event.Passed})

	var scenarioOrder []*ast.Scenario
	for _, e := range *events {
		if e.Kind == event.ScenarioStarted {
			scenarioOrder = append(scenarioOrder, e.Scenario)
		}
	}
	assert.Equal(t, []*ast.Scenario{a, b}, scenarioOrder)
}

func TestNormalizer_RuleBlockFlushesAsAtomicUnit(t *testing.T) {
	f := &ast.Feature{Name: "f"}
	r := &ast.Rule{Name: "r"}
	a := &ast.Scenario{Name: "a"}
	b := &ast.Scenario{Name: "b"}

	out, events := collect()
	n := New(out)

	n.Handle(event.Event{Kind: event.FeatureStarted, Feature: f})
	n.Handle(event.Event{Kind: event.RuleStarted, Feature: f, Rule: r})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Rule: r, Scenario: a})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Rule: r, Scenario: b})
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Rule: r, Scenario: a, Outcome: event.Passed})
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Rule: r, Scenario: b, Outcome: event.Passed})

	assert.Equal(t, []event.Kind{event.FeatureStarted}, kindsOf(*events), "rule block withheld until RuleFinished arrives")

	n.Handle(event.Event{Kind: event.RuleFinished, Feature: f, Rule: r, Outcome: event.Passed})
	n.Handle(event.Event{Kind: event.FeatureFinished, Feature: f, Outcome: event.Passed})

	assert.Equal(t, []event.Kind{
		event.FeatureStarted,
		event.RuleStarted,
		event.ScenarioStarted, event.ScenarioFinished,
		event.ScenarioStarted, event.ScenarioFinished,
		event.RuleFinished,
		event.FeatureFinished,
	}, kindsOf(*events))
}

func TestNormalizer_RetryAttemptsStayBufferedUntilFinalOutcome(t *testing.T) {
	f := &ast.Feature{Name: "f"}
	sc := &ast.Scenario{Name: "flaky"}

	out, events := collect()
	n := New(out)

	n.Handle(event.Event{Kind: event.FeatureStarted, Feature: f})
	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Scenario: sc, Retry: event.RetryState{Attempt: 0, Remaining: 1}})
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Scenario: sc, Outcome: event.Failed, Retry: event.RetryState{Attempt: 0, Remaining: 1}})

	assert.Empty(t, *events, "a retried (non-final) Finished must not release the scenario block")

	n.Handle(event.Event{Kind: event.ScenarioStarted, Feature: f, Scenario: sc, Retry: event.RetryState{Attempt: 1, Remaining: 0}})
	n.Handle(event.Event{Kind: event.ScenarioFinished, Feature: f, Scenario: sc, Outcome: event.Passed, Retry: event.RetryState{Attempt: 1, Remaining: 0}})
	n.Handle(event.Event{Kind: event.FeatureFinished, Feature: f, Outcome: event.Passed})

	var finishes int
	for _, e := range *events {
		if e.Kind == event.ScenarioFinished {
			finishes++
		}
	}
	assert.Equal(t, 2, finishes)
}

func kindsOf(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
