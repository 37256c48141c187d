// Package cli implements the CLI surface of spec.md §6 as a reusable,
// Cobra-based flag set: BindFlags registers every flag the core scheduler
// and default parser/writer recognize onto a caller-supplied
// *cobra.Command, and Flags.SuiteOptions() translates the parsed result
// into gobdd.SuiteOptions functional options. The root gobdd package stays
// CLI-framework agnostic (spec.md §6: "the root package itself stays
// CLI-framework agnostic (functional options only)"); this package is the
// thin bridge a cmd/gobdd-style binary uses to wire flags to it.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anuragh27crony/gobdd"
	"github.com/anuragh27crony/gobdd/internal/tags"
	"github.com/anuragh27crony/gobdd/writer"
)

// Flags holds the parsed value of every flag BindFlags registers.
type Flags struct {
	Concurrency int
	Input       string
	Name        string
	Tags        string
	FailFast    bool

	Retry          uint32
	RetryAfter     time.Duration
	RetryTagFilter string

	Color     string
	Verbosity int

	JSONReportPath string
}

// BindFlags registers spec.md §6's flag table onto cmd and returns the
// struct its values land in once cmd.Execute() parses args. The returned
// pointer is only valid for reading after the command has run.
func BindFlags(cmd *cobra.Command) *Flags {
	f := &Flags{}

	cmd.Flags().IntVarP(&f.Concurrency, "concurrency", "c", 64, "Max concurrent scenarios")
	cmd.Flags().StringVarP(&f.Input, "input", "i", "features/*.feature", "Feature file glob override")
	cmd.Flags().StringVarP(&f.Name, "name", "n", "", "Filter scenarios by name (regex)")
	cmd.Flags().StringVarP(&f.Tags, "tags", "t", "", "Tag expression filter")
	cmd.Flags().BoolVar(&f.FailFast, "fail-fast", false, "Enable the fail-fast policy")

	cmd.Flags().Uint32Var(&f.Retry, "retry", 0, "Default retry count for scenarios matching --retry-tag-filter")
	cmd.Flags().DurationVar(&f.RetryAfter, "retry-after", 0, "Default retry delay (e.g. 500ms, 2s, 1m30s)")
	cmd.Flags().StringVar(&f.RetryTagFilter, "retry-tag-filter", "", "Tag expression restricting which scenarios receive the CLI retry defaults")

	cmd.Flags().StringVar(&f.Color, "color", "auto", "Colorization policy: auto|always|never")
	cmd.Flags().CountVarP(&f.Verbosity, "verbose", "v", "Increase verbosity (-v, -vv, -vvv)")

	cmd.Flags().StringVar(&f.JSONReportPath, "json-report", "", "Write a cucumber-json report to this path")

	return f
}

// SuiteOptions translates the parsed flags into gobdd.SuiteOptions
// functional options, ready to pass to gobdd.NewSuite alongside any
// in-code options (e.g. WithBeforeScenario) - CLI values win because they
// are applied last by convention (see cmd/gobdd/main.go).
func (f *Flags) SuiteOptions() []func(*gobdd.SuiteOptions) {
	opts := []func(*gobdd.SuiteOptions){
		gobdd.WithFeaturesPath(f.Input),
		gobdd.WithConcurrency(f.Concurrency),
	}
	if f.Name != "" {
		opts = append(opts, gobdd.WithNameFilter(f.Name))
	}
	if f.Tags != "" {
		opts = append(opts, gobdd.WithTagExpression(f.Tags))
	}
	if f.FailFast {
		opts = append(opts, gobdd.WithFailFast())
	}
	if f.Retry > 0 || f.RetryAfter > 0 || f.RetryTagFilter != "" {
		opts = append(opts, gobdd.WithRetryDefaults(f.Retry, f.RetryAfter, f.RetryTagFilter))
	}
	if f.JSONReportPath != "" {
		opts = append(opts, gobdd.WithJSONReportOption(f.JSONReportPath))
	}
	opts = append(opts, gobdd.WithColor(f.colorMode()), gobdd.WithVerbosity(f.verbosityLevel()))
	return opts
}

func (f *Flags) colorMode() writer.ColorMode {
	switch f.Color {
	case "always":
		return writer.ColorAlways
	case "never":
		return writer.ColorNever
	default:
		return writer.ColorAuto
	}
}

func (f *Flags) verbosityLevel() writer.Verbosity {
	switch {
	case f.Verbosity >= 3:
		return writer.VerbosityDocStrings
	case f.Verbosity == 2:
		return writer.VerbosityWorld
	default:
		return writer.VerbosityDefault
	}
}

// Validate reports a descriptive error for flag combinations the scheduler
// cannot make sense of (e.g. a malformed --tags expression) before a Suite
// is ever built, so failures surface at flag-parsing time.
func (f *Flags) Validate() error {
	if f.Concurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive, got %d", f.Concurrency)
	}
	if _, err := tags.Parse(f.Tags); err != nil {
		return fmt.Errorf("--tags: %w", err)
	}
	switch f.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("--color must be one of auto|always|never, got %q", f.Color)
	}
	return nil
}
