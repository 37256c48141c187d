package cucumber

import (
	"encoding/json"
	"io"
	"time"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/writer"
)

var _ writer.Writer = (*Writer)(nil)

// Writer builds the classic cucumber-json report incrementally from the
// normalized event stream and marshals it on Close. It replaces the
// teacher's FormatFeature/FormatScenario, which built the same shape
// directly from a parsed gherkin document; here the source is the
// lifecycle event stream instead, since events (not the raw AST) carry the
// step outcomes this report exists to capture.
type Writer struct {
	out io.Writer

	features    []*Feature
	byFeature   map[*ast.Feature]*Feature
	curScenario *Scenario
	stepStarted time.Time
}

// NewWriter builds a JSON report writer over out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:       out,
		byFeature: make(map[*ast.Feature]*Feature),
	}
}

func (w *Writer) Write(e event.Event) {
	switch e.Kind {
	case event.FeatureStarted:
		ft := GenerateFeature(e.Feature.Name, e.Feature.Path, e.Feature.Description, e.Feature.Location.Line)
		w.byFeature[e.Feature] = &ft
		w.features = append(w.features, &ft)
	case event.ScenarioStarted:
		sc := Scenario{
			Tags:        formatTags(ast.EffectiveTags(e.Feature, e.Rule, e.Scenario), e.Scenario.Tags),
			Id:          e.Scenario.Name,
			Keyword:     e.Scenario.Keyword,
			Name:        e.Scenario.Name,
			Description: e.Scenario.Description,
			Type:        "scenario",
		}
		w.curScenario = &sc
	case event.StepStarted:
		w.stepStarted = time.Now()
	case event.StepFinished:
		if w.curScenario == nil || e.Step == nil {
			return
		}
		step := GenerateStep(e.Step.Keyword, e.Step.Text, e.Step.Location.Line, "")
		errMsg := ""
		if e.Err != nil {
			errMsg = e.Err.Error()
		}
		step.UpdateResult(e.Outcome.String(), errMsg, time.Since(w.stepStarted).Nanoseconds())
		w.curScenario.AddStepObj(step)
	case event.ScenarioFinished:
		if w.curScenario == nil {
			return
		}
		if ft, ok := w.byFeature[e.Feature]; ok {
			ft.AddScenario(*w.curScenario)
		}
		w.curScenario = nil
	}
}

func formatTags(effective []string, own []ast.Tag) []Tag {
	lines := make(map[string]int, len(own))
	for _, t := range own {
		lines[t.Name] = t.Location.Line
	}
	out := make([]Tag, len(effective))
	for i, name := range effective {
		out[i] = Tag{Name: name, Linenumber: lines[name]}
	}
	return out
}

func (w *Writer) Close() error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(w.features)
}

func (w *Writer) Normalized() bool      { return true }
func (w *Writer) NonTransforming() bool { return false }
func (w *Writer) Summarizable() bool    { return false }
