package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
)

// recordingWriter collects every event it receives, for assertions. Its
// capability flags are fixed by the test that constructs it.
type recordingWriter struct {
	events          []event.Event
	normalized      bool
	nonTransforming bool
	summarizable    bool
	closed          bool
}

func (w *recordingWriter) Write(e event.Event) { w.events = append(w.events, e) }
func (w *recordingWriter) Close() error        { w.closed = true; return nil }
func (w *recordingWriter) Normalized() bool    { return w.normalized }
func (w *recordingWriter) NonTransforming() bool {
	return w.nonTransforming
}
func (w *recordingWriter) Summarizable() bool { return w.summarizable }

func TestFailOnSkipped_ConvertsSkippedToFailed(t *testing.T) {
	rec := &recordingWriter{}
	w := NewFailOnSkipped(rec)

	scenario := &ast.Scenario{Name: "s"}
	w.Write(event.Event{Kind: event.ScenarioStarted, Scenario: scenario})
	w.Write(event.Event{Kind: event.StepFinished, Outcome: event.Skipped, Step: &ast.Step{Text: "a step"}})

	require.Len(t, rec.events, 2)
	assert.Equal(t, event.Failed, rec.events[1].Outcome)
	assert.Error(t, rec.events[1].Err)
}

func TestFailOnSkipped_AllowSkippedTagLeavesSkippedAlone(t *testing.T) {
	rec := &recordingWriter{}
	w := NewFailOnSkipped(rec)

	scenario := &ast.Scenario{Name: "s", Tags: []ast.Tag{{Name: "@allow.skipped"}}}
	w.Write(event.Event{Kind: event.ScenarioStarted, Scenario: scenario})
	w.Write(event.Event{Kind: event.StepFinished, Outcome: event.Skipped})

	require.Len(t, rec.events, 2)
	assert.Equal(t, event.Skipped, rec.events[1].Outcome)
}

func TestFailOnSkipped_PassingStepsUnaffected(t *testing.T) {
	rec := &recordingWriter{}
	w := NewFailOnSkipped(rec)

	w.Write(event.Event{Kind: event.ScenarioStarted, Scenario: &ast.Scenario{}})
	w.Write(event.Event{Kind: event.StepFinished, Outcome: event.Passed})

	require.Len(t, rec.events, 2)
	assert.Equal(t, event.Passed, rec.events[1].Outcome)
	assert.NoError(t, rec.events[1].Err)
}

func TestRepeat_ReplaysMatchingEventsAfterFinished(t *testing.T) {
	rec := &recordingWriter{nonTransforming: true}
	w := NewRepeat(rec, FailedOrSkippedStep)

	failedStep := event.Event{Kind: event.StepFinished, Outcome: event.Failed}
	passedStep := event.Event{Kind: event.StepFinished, Outcome: event.Passed}

	w.Write(failedStep)
	w.Write(passedStep)
	w.Write(event.Event{Kind: event.CucumberFinished})

	// First pass: failedStep, passedStep, CucumberFinished; then the
	// replay of failedStep only.
	require.Len(t, rec.events, 4)
	assert.Equal(t, event.StepFinished, rec.events[0].Kind)
	assert.Equal(t, event.Failed, rec.events[0].Outcome)
	assert.Equal(t, event.Passed, rec.events[1].Outcome)
	assert.Equal(t, event.CucumberFinished, rec.events[2].Kind)
	assert.Equal(t, event.StepFinished, rec.events[3].Kind)
	assert.Equal(t, event.Failed, rec.events[3].Outcome)
}

func TestRepeat_NoMatchesMeansNoReplay(t *testing.T) {
	rec := &recordingWriter{nonTransforming: true}
	w := NewRepeat(rec, FailedOrSkippedStep)

	w.Write(event.Event{Kind: event.StepFinished, Outcome: event.Passed})
	w.Write(event.Event{Kind: event.CucumberFinished})

	require.Len(t, rec.events, 2)
}

func TestSummarize_EmitsSummaryEventAfterFinished(t *testing.T) {
	rec := &recordingWriter{}
	w := NewSummarize(rec)

	w.Write(event.Event{Kind: event.ScenarioFinished, Outcome: event.Passed})
	w.Write(event.Event{Kind: event.ScenarioFinished, Outcome: event.Failed, Retry: event.RetryState{Final: true}})
	w.Write(event.Event{Kind: event.StepFinished, Outcome: event.Passed})
	w.Write(event.Event{Kind: event.CucumberFinished})

	require.Len(t, rec.events, 5)
	last := rec.events[len(rec.events)-1]
	require.Equal(t, event.SummaryEvent, last.Kind)
	assert.Equal(t, uint64(1), last.Stats.Scenarios.Passed)
	assert.Equal(t, uint64(1), last.Stats.Scenarios.Failed)
	assert.Equal(t, uint64(1), last.Stats.Steps.Passed)
}

func TestSummarize_NonFinalRetryAttemptNotDoubleCounted(t *testing.T) {
	rec := &recordingWriter{}
	w := NewSummarize(rec)

	// attempt 0: failed, retry pending (not Final)
	w.Write(event.Event{Kind: event.ScenarioFinished, Outcome: event.Failed, Retry: event.RetryState{Attempt: 0, Remaining: 1}})
	// attempt 1: passed, resolves the scenario
	w.Write(event.Event{Kind: event.ScenarioFinished, Outcome: event.Passed, Retry: event.RetryState{Attempt: 1, Remaining: 0}})
	w.Write(event.Event{Kind: event.CucumberFinished})

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.Scenarios.Passed)
	assert.Equal(t, uint64(0), stats.Scenarios.Failed)
}

func TestSummarize_Stats(t *testing.T) {
	rec := &recordingWriter{}
	w := NewSummarize(rec)
	assert.True(t, w.Summarizable())

	var _ Stats = w
}
