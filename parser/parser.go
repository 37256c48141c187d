// Package parser turns .feature files on disk into the engine's own
// internal/ast tree, replacing the teacher's own executeFeature/runFeature
// (gobdd.go), which parsed straight into its *testing.T-driven walk. Here
// parsing is a standalone stage that feeds the scheduler, so it produces
// plain ast.Feature values instead of immediately executing anything.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cucumber/gherkin-go/v13"
	msgs "github.com/cucumber/messages-go/v12"

	"github.com/anuragh27crony/gobdd/internal/ast"
)

// Parser turns a features directory into parsed Feature trees. A
// file that fails to parse is reported through onError rather than
// aborting the whole run, so one bad .feature file does not prevent the
// rest of the suite from executing (spec §7: a parse error becomes a
// ParsingErrorEvent, not a fatal abort).
type Parser interface {
	Parse(path string, onError func(file string, err error)) ([]*ast.Feature, error)
}

// FileParser is the default Parser: it globs "*.feature" files in a
// directory and in its immediate subdirectories (filepath.Glob's "**"
// matches a single path element, so deeper directories are not searched)
// and converts each via gherkin-go/messages-go v12,
// mirroring the teacher's own filepath.Glob + gherkin.ParseGherkinDocument
// pair (gobdd.go's loadFeatures/executeFeature).
//
// This pinned AST version predates Gherkin's Rule keyword and does not
// expose step DocString/Table arguments through a stable accessor, so
// FileParser never populates ast.Rule, ast.Step.DocString, or
// ast.Step.Table - every scenario it produces is parented directly on the
// Feature (DESIGN.md's parser entry records this limitation).
type FileParser struct{}

// NewFileParser builds the default filesystem Parser.
func NewFileParser() *FileParser { return &FileParser{} }

func (p *FileParser) Parse(dir string, onError func(file string, err error)) ([]*ast.Feature, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.feature"))
	if err != nil {
		return nil, fmt.Errorf("parser: glob %s: %w", dir, err)
	}
	nested, err := filepath.Glob(filepath.Join(dir, "**", "*.feature"))
	if err == nil {
		files = append(files, nested...)
	}
	sort.Strings(files)

	var features []*ast.Feature
	for _, file := range files {
		ft, err := p.parseFile(file)
		if err != nil {
			if onError != nil {
				onError(file, err)
			}
			continue
		}
		if ft != nil {
			features = append(features, ft)
		}
	}
	return features, nil
}

func (p *FileParser) parseFile(file string) (*ast.Feature, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", file, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	doc, err := gherkin.ParseGherkinDocument(reader, (&msgs.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("error while loading document: %w", err)
	}
	if doc.Feature == nil {
		return nil, nil
	}

	return convertFeature(doc.Feature, file)
}

func convertFeature(f *msgs.GherkinDocument_Feature, path string) (*ast.Feature, error) {
	out := &ast.Feature{
		Location:    convertLocation(f.Location, path),
		Path:        path,
		Keyword:     f.Keyword,
		Name:        f.Name,
		Description: f.Description,
		Tags:        convertTags(f.GetTags(), path),
	}

	var bkg *msgs.GherkinDocument_Feature_Background
	for _, child := range f.Children {
		if b := child.GetBackground(); b != nil {
			bkg = b
			steps, err := convertSteps(bkg.Steps, path)
			if err != nil {
				return nil, fmt.Errorf("%s: background: %w", path, err)
			}
			out.Background = &ast.Background{
				Location: convertLocation(bkg.Location, path),
				Steps:    steps,
			}
			continue
		}

		sc := child.GetScenario()
		if sc == nil {
			continue
		}
		scenario, err := convertScenario(sc, path)
		if err != nil {
			return nil, fmt.Errorf("%s: scenario %q: %w", path, sc.GetName(), err)
		}
		out.Scenarios = append(out.Scenarios, scenario)
	}

	return out, nil
}

func convertScenario(sc *msgs.GherkinDocument_Feature_Scenario, path string) (*ast.Scenario, error) {
	steps, err := convertSteps(sc.GetSteps(), path)
	if err != nil {
		return nil, err
	}

	scenario := &ast.Scenario{
		Location:    convertLocation(sc.Location, path),
		Keyword:     sc.Keyword,
		Name:        sc.Name,
		Description: sc.Description,
		Tags:        convertTags(sc.GetTags(), path),
		Steps:       steps,
	}

	if examples := sc.GetExamples(); len(examples) > 0 {
		scenario.IsOutline = true
		scenario.Examples = make([]ast.Examples, len(examples))
		for i, ex := range examples {
			scenario.Examples[i] = convertExamples(ex, path)
		}
	}

	return scenario, nil
}

func convertExamples(ex *msgs.GherkinDocument_Feature_Scenario_Examples, path string) ast.Examples {
	header := ex.GetTableHeader().GetCells()
	names := make([]string, len(header))
	for i, cell := range header {
		names[i] = cell.GetValue()
	}

	body := ex.GetTableBody()
	rows := make([][]string, len(body))
	for i, row := range body {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.Value
		}
		rows[i] = cells
	}

	return ast.Examples{
		Location: convertLocation(ex.Location, path),
		Tags:     convertTags(ex.GetTags(), path),
		Header:   names,
		Rows:     rows,
	}
}

func convertSteps(steps []*msgs.GherkinDocument_Feature_Step, path string) ([]ast.Step, error) {
	out := make([]ast.Step, len(steps))
	for i, s := range steps {
		out[i] = ast.Step{
			Location: convertLocation(s.Location, path),
			Keyword:  s.GetKeyword(),
			Text:     s.GetText(),
		}
	}
	if err := ast.ResolveKinds(out); err != nil {
		return nil, err
	}
	return out, nil
}

func convertTags(tags []*msgs.GherkinDocument_Feature_Tag, path string) []ast.Tag {
	out := make([]ast.Tag, len(tags))
	for i, t := range tags {
		out[i] = ast.Tag{Name: t.Name, Location: convertLocation(t.Location, path)}
	}
	return out
}

func convertLocation(loc *msgs.Location, path string) ast.Location {
	if loc == nil {
		return ast.Location{Path: path}
	}
	return ast.Location{Path: path, Line: int(loc.GetLine()), Column: int(loc.GetColumn())}
}
