package scheduler

import (
	"sync"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
)

// featureState tracks one feature's lazy Started/Finished lifecycle
// (spec §4.3: "emitted_features ... used to emit Feature::Started exactly
// once, lazily on the first scenario that belongs to them; matching
// Finished events are emitted when their last scenario completes").
type featureState struct {
	feature *ast.Feature

	started bool // touched only by the single dispatch-loop goroutine

	mu      sync.Mutex
	pending int           // surviving scenario count not yet finally resolved
	worst   event.Outcome // rolling worst-of aggregate across resolved children
}

// ensureStarted emits Feature::Started exactly once. Only ever called from
// the dispatch loop, which is single-threaded, so no lock is needed here.
func (fs *featureState) ensureStarted(emit func(event.Event)) {
	if fs.started {
		return
	}
	fs.started = true
	emit(event.Event{Kind: event.FeatureStarted, Feature: fs.feature})
}

// resolve decrements the pending count and emits Feature::Finished once it
// reaches zero. May be called concurrently from several scenario goroutines.
func (fs *featureState) resolve(emit func(event.Event), outcome event.Outcome) {
	fs.mu.Lock()
	fs.pending--
	fs.worst = worstOutcome(fs.worst, outcome)
	done := fs.pending == 0
	final := fs.worst
	fs.mu.Unlock()
	if done {
		emit(event.Event{Kind: event.FeatureFinished, Feature: fs.feature, Outcome: final})
	}
}

// ruleState is the same bookkeeping for a Rule nested under a feature.
type ruleState struct {
	rule    *ast.Rule
	feature *ast.Feature

	started bool

	mu      sync.Mutex
	pending int
	worst   event.Outcome
}

func (rs *ruleState) ensureStarted(emit func(event.Event)) {
	if rs.started {
		return
	}
	rs.started = true
	emit(event.Event{Kind: event.RuleStarted, Feature: rs.feature, Rule: rs.rule})
}

func (rs *ruleState) resolve(emit func(event.Event), outcome event.Outcome) {
	rs.mu.Lock()
	rs.pending--
	rs.worst = worstOutcome(rs.worst, outcome)
	done := rs.pending == 0
	final := rs.worst
	rs.mu.Unlock()
	if done {
		emit(event.Event{Kind: event.RuleFinished, Feature: rs.feature, Rule: rs.rule, Outcome: final})
	}
}

// worstOutcome ranks Failed worse than Skipped worse than Passed.
func worstOutcome(a, b event.Outcome) event.Outcome {
	rank := func(o event.Outcome) int {
		switch o {
		case event.Failed:
			return 2
		case event.Skipped:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
