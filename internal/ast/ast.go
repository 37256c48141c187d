// Package ast defines the stable, immutable value tree the rest of the
// engine operates on: Feature/Rule/Scenario/Step/Examples nodes carrying a
// source Location, decoupled from whichever Gherkin AST library produced
// them. The default parser (package parser) builds this tree from a
// github.com/cucumber/messages-go/v12 document; the scheduler, executor,
// normalizer and writers never see the upstream library's types directly.
package ast

// Location is a stable source position, used for diagnostics and as part of
// a node's identity in reports.
type Location struct {
	Path   string
	Line   int
	Column int
}

// Tag is an `@name` annotation attached to a Feature, Rule, Scenario, or
// Examples block.
type Tag struct {
	Name     string
	Location Location
}

// TagNames extracts the bare names from a tag slice, in order.
func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// Step is one Given/When/Then/And/But line. Kind is resolved at parse time
// (see ResolveKinds); And/But do not survive past that point.
type Step struct {
	Location   Location
	Keyword    string
	Kind       Kind
	Text       string
	Background bool

	// DocString/Table carry a step's attached argument, when the parser's
	// pinned AST version exposes it. The default FileParser does not
	// currently populate these (see DESIGN.md); they exist so a Writer or
	// a future parser can make use of them under -vvv verbosity.
	HasDocString bool
	DocString    string
	Table        [][]string
}

// Kind identifies which of Given/When/Then a step belongs to once And/But
// have been resolved against the preceding step.
type Kind int

const (
	// KindUnresolved marks a step whose keyword has not been resolved yet.
	KindUnresolved Kind = iota
	Given
	When
	Then
)

func (k Kind) String() string {
	switch k {
	case Given:
		return "Given"
	case When:
		return "When"
	case Then:
		return "Then"
	default:
		return "Unresolved"
	}
}

// Examples is one `Examples:` table attached to a Scenario Outline.
type Examples struct {
	Location Location
	Tags     []Tag
	Header   []string
	Rows     [][]string
}

// Scenario is one ordered list of steps. For a materialized Scenario
// Outline row, Examples holds exactly the one row that produced it (per the
// "only the currently executing row is retained" design note) and
// SourceOutline/ExampleIndex/RowIndex identify where it came from.
type Scenario struct {
	Location    Location
	Keyword     string
	Name        string
	Description string
	Tags        []Tag
	Steps       []Step

	IsOutline bool
	Examples  []Examples // full table when IsOutline && not yet materialized; exactly one 1-row Examples once materialized

	SourceOutline *Scenario
	ExampleIndex  int
	RowIndex      int
}

// Background is the ordered list of steps implicitly prefixed to every
// scenario of the enclosing Feature or Rule.
type Background struct {
	Location Location
	Steps    []Step
}

// Rule is an optional grouping of related scenarios inside a Feature.
type Rule struct {
	Location   Location
	Name       string
	Tags       []Tag
	Background *Background
	Scenarios  []*Scenario
}

// Feature is the top-level parsed document.
type Feature struct {
	Location    Location
	Path        string
	Keyword     string
	Name        string
	Description string
	Tags        []Tag
	Background  *Background
	Rules       []*Rule
	Scenarios   []*Scenario // scenarios declared directly under the feature, outside any Rule
}

// EffectiveTags computes the inherited tag set of a scenario: its own tags,
// union the enclosing rule's tags (if any), union the feature's tags. The
// Examples block's tags (for an outline row) must already have been merged
// into scenario.Tags by MaterializeOutline.
func EffectiveTags(feature *Feature, rule *Rule, scenario *Scenario) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tags []Tag) {
		for _, t := range tags {
			if !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		}
	}
	if feature != nil {
		add(feature.Tags)
	}
	if rule != nil {
		add(rule.Tags)
	}
	if scenario != nil {
		add(scenario.Tags)
	}
	return out
}
