package scheduler

import (
	"regexp"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/tags"
)

// Classifier decides whether a scenario runs Serial or Concurrent given its
// effective tag set. The default classifier checks the reserved @serial tag
// (spec §3 ScenarioType).
type Classifier func(effectiveTags []string) bool

// DefaultClassifier implements spec's default: Serial iff tagged @serial.
func DefaultClassifier(effectiveTags []string) bool {
	return tags.Contains(effectiveTags, tags.Serial)
}

// item is one scenario queued for dispatch, already filtered and classified.
type item struct {
	feature  *ast.Feature
	rule     *ast.Rule
	scenario *ast.Scenario
	tagSet   []string
	serial   bool
	fs       *featureState
	rs       *ruleState
}

// buildItems walks every feature, expands Scenario Outlines, applies the
// --name and --tags filters, and classifies the survivors (spec §4.3 steps
// 1-4). Features and rules with zero surviving scenarios never get a
// featureState/ruleState and so never emit Started/Finished events.
func buildItems(features []*ast.Feature, name *regexp.Regexp, tagExpr tags.Expr, classify Classifier) ([]*item, map[*ast.Feature]*featureState, map[*ast.Rule]*ruleState) {
	var items []*item
	fStates := make(map[*ast.Feature]*featureState)
	rStates := make(map[*ast.Rule]*ruleState)

	addScenario := func(f *ast.Feature, r *ast.Rule, sc *ast.Scenario) {
		effective := ast.EffectiveTags(f, r, sc)

		if name != nil && !name.MatchString(sc.Name) {
			return
		}
		if tagExpr != nil && !tagExpr.Matches(effective) {
			return
		}

		fs, ok := fStates[f]
		if !ok {
			fs = &featureState{feature: f}
			fStates[f] = fs
		}
		fs.pending++

		var rs *ruleState
		if r != nil {
			rs, ok = rStates[r]
			if !ok {
				rs = &ruleState{rule: r, feature: f}
				rStates[r] = rs
			}
			rs.pending++
		}

		items = append(items, &item{
			feature:  f,
			rule:     r,
			scenario: sc,
			tagSet:   effective,
			serial:   classify(effective),
			fs:       fs,
			rs:       rs,
		})
	}

	expandAndAdd := func(f *ast.Feature, r *ast.Rule, sc *ast.Scenario) {
		if !sc.IsOutline {
			addScenario(f, r, sc)
			return
		}
		for ei, ex := range sc.Examples {
			for ri := range ex.Rows {
				addScenario(f, r, ast.MaterializeOutline(sc, ei, ri))
			}
		}
	}

	for _, f := range features {
		for _, sc := range f.Scenarios {
			expandAndAdd(f, nil, sc)
		}
		for _, r := range f.Rules {
			for _, sc := range r.Scenarios {
				expandAndAdd(f, r, sc)
			}
		}
	}

	return items, fStates, rStates
}
