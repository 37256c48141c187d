package ast

import "strings"

// MaterializeOutline expands one row of one Examples block of a Scenario
// Outline into a concrete, independent *Scenario. The placeholders <name>
// are substituted inside step text (docstrings and table cells are left to
// the caller, since the default parser does not currently populate those -
// see DESIGN.md). Only the single row that produced it is retained on the
// returned scenario's Examples field, bounding memory for large tables
// (design note: "Outline row materialization").
func MaterializeOutline(outline *Scenario, exampleIdx int, rowIdx int) *Scenario {
	example := outline.Examples[exampleIdx]
	row := example.Rows[rowIdx]

	steps := make([]Step, len(outline.Steps))
	for i, step := range outline.Steps {
		steps[i] = step
		steps[i].Text = substitute(step.Text, example.Header, row)
	}

	tags := make([]Tag, 0, len(outline.Tags)+len(example.Tags))
	tags = append(tags, outline.Tags...)
	tags = append(tags, example.Tags...)

	return &Scenario{
		Location:    outline.Location,
		Keyword:     outline.Keyword,
		Name:        substitute(outline.Name, example.Header, row),
		Description: outline.Description,
		Tags:        tags,
		Steps:       steps,
		IsOutline:   false,
		Examples: []Examples{{
			Location: example.Location,
			Tags:     example.Tags,
			Header:   example.Header,
			Rows:     [][]string{row},
		}},
		SourceOutline: outline,
		ExampleIndex:  exampleIdx,
		RowIndex:      rowIdx,
	}
}

func substitute(text string, header []string, row []string) string {
	for i, name := range header {
		if i >= len(row) {
			break
		}
		text = strings.ReplaceAll(text, "<"+name+">", row[i])
	}
	return text
}
