// Package normalizer implements the reordering stage of spec §4.4: it
// turns an arbitrary interleaving of concurrently-produced events into,
// for each feature, a deterministic pre-order traversal of its
// rule/scenario/step tree.
//
// Feature::Started is passed through immediately on arrival - features run
// independently of one another (there is no ordering guarantee, or
// requirement, between two different features' substreams), so there are
// no siblings to wait on at the root. Every other entity (a feature's
// direct rules and scenarios, and a rule's scenarios) is buffered and
// released only once it is both complete and next in first-seen order
// among its siblings, exactly as spec §4.4 describes.
package normalizer

import (
	"sync"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
)

// Sink receives the normalized, ordered event stream.
type Sink func(event.Event)

// Normalizer buffers and reorders one run's event stream. It is driven by
// repeated calls to Handle from whichever goroutine owns event production;
// Handle itself is safe to call concurrently - the normalizer is the single
// place where concurrently-produced events are serialized. Scenario
// goroutines call Handle directly, with no event channel in between; its
// buffers are only touched while holding mu.
type Normalizer struct {
	mu       sync.Mutex
	out      Sink
	features map[*ast.Feature]*featureBuf
}

// New creates a Normalizer that emits its ordered output to out.
func New(out Sink) *Normalizer {
	return &Normalizer{
		out:      out,
		features: make(map[*ast.Feature]*featureBuf),
	}
}

// Handle processes one inbound event. It is the normalizer's entire public
// surface: callers funnel every scheduler-produced event through this
// method, in whatever order they were produced.
func (n *Normalizer) Handle(e event.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch e.Kind {
	case event.ParsingErrorEvent, event.SummaryEvent, event.CucumberFinished:
		// These carry no feature/rule/scenario identity; they are not part
		// of any tree and are never reordered relative to it.
		n.out(e)
		return
	}

	fb := n.featureBufFor(e.Feature)

	switch e.Kind {
	case event.FeatureStarted:
		n.out(e)
		return
	case event.FeatureFinished:
		fb.finishedEvent = &e
	case event.RuleStarted:
		rb := fb.ruleBufFor(e.Rule)
		rb.startedEvent = &e
	case event.RuleFinished:
		rb := fb.ruleBufFor(e.Rule)
		rb.finishedEvent = &e
	case event.ScenarioStarted, event.StepStarted, event.StepFinished, event.HookFailed, event.ScenarioFinished:
		var sb *scenarioBuf
		if e.Rule != nil {
			rb := fb.ruleBufFor(e.Rule)
			sb = rb.scenarioBufFor(e.Scenario)
		} else {
			sb = fb.scenarioBufFor(e.Scenario)
		}
		sb.events = append(sb.events, e)
		if e.Kind == event.ScenarioFinished && isFinal(e) {
			sb.complete = true
		}
	}

	n.drainFeature(fb)
}

// isFinal reports whether a Scenario::Finished event is the last one this
// scenario identity will ever produce: either it passed/was skipped
// outright, or the scheduler has marked it Final - Retry.Remaining can
// already read 0 one attempt before the actual last attempt, so it cannot
// be used as the stopping signal here (mirrors the scheduler's own
// attempt-vs-budget comparison in internal/scheduler.runAttempts).
func isFinal(e event.Event) bool {
	return e.Outcome != event.Failed || e.Retry.Final
}

type child struct {
	rule     *ast.Rule     // non-nil for a rule child
	scenario *ast.Scenario // non-nil for a direct scenario child
}

type featureBuf struct {
	feature *ast.Feature

	finishedEvent *event.Event

	order   []child
	index   map[interface{}]int // *ast.Rule or *ast.Scenario -> position in order
	cursor  int
	flushed bool

	rules     map[*ast.Rule]*ruleBuf
	scenarios map[*ast.Scenario]*scenarioBuf
}

func newFeatureBuf(f *ast.Feature) *featureBuf {
	return &featureBuf{
		feature:   f,
		index:     make(map[interface{}]int),
		rules:     make(map[*ast.Rule]*ruleBuf),
		scenarios: make(map[*ast.Scenario]*scenarioBuf),
	}
}

func (n *Normalizer) featureBufFor(f *ast.Feature) *featureBuf {
	fb, ok := n.features[f]
	if !ok {
		fb = newFeatureBuf(f)
		n.features[f] = fb
	}
	return fb
}

func (fb *featureBuf) ruleBufFor(r *ast.Rule) *ruleBuf {
	rb, ok := fb.rules[r]
	if !ok {
		rb = newRuleBuf(r)
		fb.rules[r] = rb
		fb.recordChild(child{rule: r})
	}
	return rb
}

func (fb *featureBuf) scenarioBufFor(s *ast.Scenario) *scenarioBuf {
	sb, ok := fb.scenarios[s]
	if !ok {
		sb = &scenarioBuf{}
		fb.scenarios[s] = sb
		fb.recordChild(child{scenario: s})
	}
	return sb
}

func (fb *featureBuf) recordChild(c child) {
	key := childKey(c)
	if _, ok := fb.index[key]; ok {
		return
	}
	fb.index[key] = len(fb.order)
	fb.order = append(fb.order, c)
}

func childKey(c child) interface{} {
	if c.rule != nil {
		return c.rule
	}
	return c.scenario
}

func (c child) ready(fb *featureBuf) bool {
	if c.rule != nil {
		return fb.rules[c.rule].ready()
	}
	return fb.scenarios[c.scenario].complete
}

func (c child) flush(fb *featureBuf, out Sink) {
	if c.rule != nil {
		fb.rules[c.rule].flush(out)
		return
	}
	sb := fb.scenarios[c.scenario]
	for _, e := range sb.events {
		out(e)
	}
}

type ruleBuf struct {
	rule *ast.Rule

	startedEvent  *event.Event
	finishedEvent *event.Event

	order     []*ast.Scenario
	index     map[*ast.Scenario]int
	cursor    int
	scenarios map[*ast.Scenario]*scenarioBuf
}

func newRuleBuf(r *ast.Rule) *ruleBuf {
	return &ruleBuf{
		rule:      r,
		index:     make(map[*ast.Scenario]int),
		scenarios: make(map[*ast.Scenario]*scenarioBuf),
	}
}

func (rb *ruleBuf) scenarioBufFor(s *ast.Scenario) *scenarioBuf {
	sb, ok := rb.scenarios[s]
	if !ok {
		sb = &scenarioBuf{}
		rb.scenarios[s] = sb
		if _, seen := rb.index[s]; !seen {
			rb.index[s] = len(rb.order)
			rb.order = append(rb.order, s)
		}
	}
	return sb
}

// ready reports whether this rule's Started has arrived, every one of its
// scenario children has been drained in order, and its Finished has
// arrived - i.e. the rule's entire block can be flushed as one unit.
func (rb *ruleBuf) ready() bool {
	if rb.startedEvent == nil || rb.finishedEvent == nil {
		return false
	}
	for _, s := range rb.order {
		if !rb.scenarios[s].complete {
			return false
		}
	}
	return rb.cursor >= len(rb.order)
}

func (rb *ruleBuf) flush(out Sink) {
	out(*rb.startedEvent)
	for _, s := range rb.order {
		for _, e := range rb.scenarios[s].events {
			out(e)
		}
	}
	out(*rb.finishedEvent)
}

type scenarioBuf struct {
	events   []event.Event
	complete bool
}

// drainFeature advances a rule's internal cursor (so a rule becomes ready
// once its own children are all drained) and then the feature's own
// cursor, releasing each child in first-seen order as it becomes ready,
// and finally the feature itself once every child has been released and
// Feature::Finished has arrived.
func (n *Normalizer) drainFeature(fb *featureBuf) {
	for _, rb := range fb.rules {
		for rb.cursor < len(rb.order) && rb.scenarios[rb.order[rb.cursor]].complete {
			rb.cursor++
		}
	}

	for fb.cursor < len(fb.order) {
		c := fb.order[fb.cursor]
		if !c.ready(fb) {
			break
		}
		c.flush(fb, n.out)
		fb.cursor++
	}

	if !fb.flushed && fb.finishedEvent != nil && fb.cursor >= len(fb.order) {
		fb.flushed = true
		n.out(*fb.finishedEvent)
		delete(n.features, fb.feature)
	}
}
