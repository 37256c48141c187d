// Package gobdd is the top-level orchestrator of spec.md §2's "Top-level
// orchestrator" component: it wires the Parser, Scheduler, Normalizer, and
// Writer stages together behind the same functional-options Suite surface
// the teacher exposed (NewSuite, AddStep, With...), so existing callers of
// the teacher's API keep the shape of their test files while the engine
// underneath runs the full pipeline described in spec.md §4.
package gobdd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/executor"
	"github.com/anuragh27crony/gobdd/internal/logging"
	"github.com/anuragh27crony/gobdd/internal/registry"
	"github.com/anuragh27crony/gobdd/internal/scheduler"
	"github.com/anuragh27crony/gobdd/internal/tags"
	"github.com/anuragh27crony/gobdd/parser"
	"github.com/anuragh27crony/gobdd/report"
	"github.com/anuragh27crony/gobdd/writer"
)

// Outcome is the scenario outcome an after-scenario hook observes,
// re-exported from internal/event so callers never import it directly.
type Outcome = event.Outcome

// Outcome values (spec.md §3 Event: "Passed | Failed | Skipped").
const (
	Passed  = event.Passed
	Failed  = event.Failed
	Skipped = event.Skipped
)

// StepTest is the subset of *testing.T (or an equivalent) a step
// implementation and the Suite itself need.
type StepTest interface {
	Log(...interface{})
	Logf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Errorf(string, ...interface{})
	Error(...interface{})

	Fail()
	FailNow()
}

// TestingT is the interface NewSuite requires of its driving test: it adds
// the sub-test nesting and parallelism hooks the teacher's Suite used.
type TestingT interface {
	StepTest
	Parallel()
	Run(name string, f func(t *testing.T)) bool
}

// WorldFactory constructs the per-scenario mutable World. It is exposed
// here rather than only in internal/executor so a Suite's own options can
// set it (spec.md §3 World: "a user-supplied value type with a factory
// new() -> World | Err").
type WorldFactory = executor.WorldFactory

// Hook and AfterHook mirror internal/executor's, so options like
// WithBeforeScenario can be declared without importing internal/executor
// in user code.
type Hook = executor.Hook
type AfterHook = executor.AfterHook
type StepHook = executor.StepHook

// SuiteOptions holds every run-time option recognized by the scheduler and
// default parser/writer (spec.md §6).
type SuiteOptions struct {
	featuresPaths string

	concurrency    int
	name           *regexp.Regexp
	tagFilter      tags.Expr
	requiredTags   []string
	ignoredTags    []string
	failFast       bool
	retryCount     uint32
	retryAfter     time.Duration
	retryTagFilter string
	classify       scheduler.Classifier

	worldFactory   WorldFactory
	beforeScenario []Hook
	afterScenario  []AfterHook
	beforeStep     []StepHook
	afterStep      []StepHook

	runInParallel bool

	color     writer.ColorMode
	verbosity writer.Verbosity

	jsonReportPath string
	logger         *zap.SugaredLogger
}

// NewSuiteOptions creates a new suite configuration with default values,
// matching the teacher's own NewSuiteOptions defaults where the shape
// carries over (featuresPaths, ignoreTags, tags, hook slices) and adding
// the scheduler/retry/report defaults spec.md §6 and §3 require.
func NewSuiteOptions() SuiteOptions {
	return SuiteOptions{
		featuresPaths:  "features/*.feature",
		concurrency:    scheduler.DefaultConcurrency,
		requiredTags:   []string{},
		ignoredTags:    []string{},
		beforeScenario: []Hook{},
		afterScenario:  []AfterHook{},
		beforeStep:     []StepHook{},
		afterStep:      []StepHook{},
	}
}

// RunInParallel marks the Suite's own *testing.T sub-test as parallel (an
// orthogonal concern to scenario concurrency, which is always governed by
// spec.md §3's per-scenario Serial/Concurrent classification).
func RunInParallel() func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.runInParallel = true
	}
}

// WithFeaturesPath configures a glob pattern where feature files can be
// found. The default value is "features/*.feature".
func WithFeaturesPath(path string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.featuresPaths = path
	}
}

// WithTags configures which tags a scenario must carry at least one of to
// run (an allow-list), exactly as the teacher's WithTags did. Every tag has
// to start with @.
func WithTags(tagList []string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.requiredTags = tagList
	}
}

// WithIgnoredTags configures which tags cause a scenario to be skipped.
// Every tag has to start with @ otherwise will be ignored.
func WithIgnoredTags(tagList []string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.ignoredTags = tagList
	}
}

// WithTagExpression sets the full boolean --tags expression of spec.md §6
// (`@a and not @b`), composed with any WithTags/WithIgnoredTags allow/deny
// lists already set.
func WithTagExpression(expr string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		e, err := tags.Parse(expr)
		if err == nil {
			options.tagFilter = e
		}
	}
}

// WithNameFilter sets the --name scenario-name regular expression filter.
func WithNameFilter(pattern string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		if re, err := regexp.Compile(pattern); err == nil {
			options.name = re
		}
	}
}

// WithConcurrency sets the scheduler's bounded worker-pool size
// (-c/--concurrency, default 64).
func WithConcurrency(n int) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.concurrency = n
	}
}

// WithFailFast enables the fail-fast policy of spec.md §4.3 step 7.
func WithFailFast() func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.failFast = true
	}
}

// WithRetryDefaults sets the CLI-level retry defaults (--retry,
// --retry-after, --retry-tag-filter) that apply to scenarios carrying a
// bare @retry tag, or - when filterExpr matches a scenario's effective
// tags - scenarios with no retry tag at all (spec.md §3 RetryPolicy
// precedence).
func WithRetryDefaults(count uint32, after time.Duration, filterExpr string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.retryCount = count
		options.retryAfter = after
		options.retryTagFilter = filterExpr
	}
}

// WithClassifier overrides the default @serial-tag scenario classifier
// (spec.md §3 ScenarioType).
func WithClassifier(classify func(effectiveTags []string) bool) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.classify = scheduler.Classifier(classify)
	}
}

// WithWorldFactory overrides the default World constructor (which produces
// a fresh *Context per scenario attempt).
func WithWorldFactory(factory WorldFactory) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.worldFactory = factory
	}
}

// WithBeforeScenario configures a hook run before every scenario attempt.
func WithBeforeScenario(f func(world interface{}) error) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.beforeScenario = append(options.beforeScenario, f)
	}
}

// WithAfterScenario configures a hook run after every scenario attempt,
// even when an earlier phase failed, as long as the World was constructed.
// The hook receives the scenario's aggregate outcome so far (spec.md §4.2
// step 6).
func WithAfterScenario(f func(world interface{}, outcome Outcome) error) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.afterScenario = append(options.afterScenario, AfterHook(f))
	}
}

// WithBeforeStep configures a hook run before every step that matched
// exactly one step definition; skipped, unmatched and ambiguous steps do not
// trigger it.
func WithBeforeStep(f func(world interface{})) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.beforeStep = append(options.beforeStep, f)
	}
}

// WithAfterStep configures a hook run after every step that matched exactly
// one step definition; skipped, unmatched and ambiguous steps do not trigger
// it.
func WithAfterStep(f func(world interface{})) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.afterStep = append(options.afterStep, f)
	}
}

// WithColor sets the text writer's colorization policy (--color
// auto|always|never).
func WithColor(mode writer.ColorMode) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.color = mode
	}
}

// WithVerbosity sets the text writer's verbosity level (-v/-vv/-vvv).
func WithVerbosity(v writer.Verbosity) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.verbosity = v
	}
}

// WithJSONReportOption is the functional-option form of (*Suite).WithJsonReport,
// used by cli.Flags.SuiteOptions() to wire --json-report.
func WithJSONReportOption(path string) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.jsonReportPath = path
	}
}

// WithLogger overrides the Suite's structured diagnostic logger (default:
// a no-op logger from internal/logging.Nop).
func WithLogger(l *zap.SugaredLogger) func(*SuiteOptions) {
	return func(options *SuiteOptions) {
		options.logger = l
	}
}

// Suite holds all the information about a BDD run: the parsed options, the
// registered steps, and the driving *testing.T. It is the root package's
// Suite from the teacher, generalized to dispatch through
// parser -> internal/scheduler -> writer.Normalize -> Writer instead of the
// teacher's own direct gherkin-to-t.Run walk (gobdd.go's executeFeature/
// runFeature/runScenario).
type Suite struct {
	t             TestingT
	registry      *registry.Registry
	options       SuiteOptions
	hasStepErrors bool
}

// NewSuite creates a new suite with the given configuration and no steps
// registered yet, exactly as the teacher's NewSuite did; custom parameter
// types ({int} {float} {word} {string} {}) are registered on the
// internal/registry.Registry by registry.New itself (spec.md §4.1).
func NewSuite(t TestingT, optionClosures ...func(*SuiteOptions)) *Suite {
	options := NewSuiteOptions()

	for _, apply := range optionClosures {
		apply(&options)
	}

	if options.worldFactory == nil {
		options.worldFactory = func() (interface{}, error) { return NewContext(), nil }
	}
	if options.logger == nil {
		options.logger = logging.Nop()
	}

	return &Suite{
		t:        t,
		registry: registry.New(),
		options:  options,
	}
}

// WithJsonReport configures the suite to additionally write a cucumber-json
// report to filepath on Run, composed alongside the default text writer via
// writer.Tee (spec.md §4.5).
func (s *Suite) WithJsonReport(path string) {
	s.options.jsonReportPath = path
}

// AddParameterTypes registers a custom Cucumber Expression parameter type,
// the first argument being the placeholder (e.g. `{animal}`) and the second
// a list of regex alternatives (spec.md §4.1, §9: only the first non-empty
// capture of a multi-alternation fragment contributes the matched text).
func (s *Suite) AddParameterTypes(placeholder string, alternatives []string) {
	name := trimBraces(placeholder)
	if err := s.registry.AddParameterType(name, alternatives); err != nil {
		s.t.Errorf("the parameter type %s doesn't compile: %s", placeholder, err)
		s.hasStepErrors = true
	}
}

func trimBraces(placeholder string) string {
	if len(placeholder) >= 2 && placeholder[0] == '{' && placeholder[len(placeholder)-1] == '}' {
		return placeholder[1 : len(placeholder)-1]
	}
	return placeholder
}

// AddStep registers a step callback under a Cucumber Expression or bare
// regular expression. A step callback's first parameter is always the
// World value; subsequent parameters are converted from the step's
// captured arguments (spec.md §4.1). Unlike the teacher, which matched a
// step regardless of its Given/When/Then keyword, the registry is keyed by
// kind (spec.md §3 StepRegistry); AddStep preserves the teacher's
// keyword-agnostic ergonomics by registering the same pattern under all
// three kinds, so a step's resolved kind (Given/When/Then, with And/But
// resolved against it) always finds it.
func (s *Suite) AddStep(expr string, step interface{}) {
	if err := validateStepFunc(step); err != nil {
		s.t.Errorf("the step function for step `%s` is incorrect: %s", expr, err)
		s.hasStepErrors = true
		return
	}

	for _, kind := range []registry.Kind{registry.Given, registry.When, registry.Then} {
		if err := s.registry.RegisterExpression(kind, expr, step); err != nil {
			s.t.Errorf("the step function is incorrect: %s", err)
			s.hasStepErrors = true
			return
		}
	}
}

// AddRegexStep registers a step callback under an already-compiled regular
// expression, bypassing Cucumber Expression placeholder expansion.
func (s *Suite) AddRegexStep(expr *regexp.Regexp, step interface{}) {
	if err := validateStepFunc(step); err != nil {
		s.t.Errorf("the step function is incorrect: %s", err)
		s.hasStepErrors = true
		return
	}

	for _, kind := range []registry.Kind{registry.Given, registry.When, registry.Then} {
		if err := s.registry.RegisterRegex(kind, expr.String(), step); err != nil {
			s.t.Errorf("the step function is incorrect: %s", err)
			s.hasStepErrors = true
			return
		}
	}
}

func validateStepFunc(step interface{}) error {
	v := reflect.ValueOf(step)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("step definition must be a function, got %T", step)
	}
	if v.Type().NumIn() < 1 {
		return fmt.Errorf("step function must accept at least the world argument")
	}
	return nil
}

// buildTagFilter composes the legacy WithTags/WithIgnoredTags allow/deny
// lists with any WithTagExpression set, into one tags.Expr: (required1 or
// required2 or ...) and not (ignored1 or ignored2 or ...) and (tagFilter).
func (o SuiteOptions) buildTagFilter() tags.Expr {
	var parts []tags.Expr

	if len(o.requiredTags) > 0 {
		parts = append(parts, orOf(o.requiredTags))
	}
	if len(o.ignoredTags) > 0 {
		parts = append(parts, notExpr{orOf(o.ignoredTags)})
	}
	if o.tagFilter != nil {
		parts = append(parts, o.tagFilter)
	}

	if len(parts) == 0 {
		return nil
	}
	expr := parts[0]
	for _, p := range parts[1:] {
		expr = andExpr{expr, p}
	}
	return expr
}

// Run executes the suite: it parses every feature file matching
// featuresPaths, schedules and runs every surviving scenario, normalizes
// the resulting event stream, and feeds it to the default text writer (plus
// a cucumber-json report writer, if WithJsonReport was called). It fails
// the driving test if any parse error or failed scenario was observed;
// skipped scenarios do not fail it. This mirrors the teacher's own
// s.t.Fail() on a failed feature.
func (s *Suite) Run() {
	if s.hasStepErrors {
		s.t.Fatal("the test contains invalid step definitions")
		return
	}

	if s.options.runInParallel {
		s.t.Parallel()
	}

	runID := uuid.New().String()[:8]
	s.options.logger = s.options.logger.With("run_id", runID)

	features, parseErrs := parseFeatures(s.options.featuresPaths)

	deps := executor.Dependencies{
		Registry:       s.registry,
		WorldFactory:   s.options.worldFactory,
		BeforeScenario: s.options.beforeScenario,
		AfterScenario:  s.options.afterScenario,
		BeforeStep:     s.options.beforeStep,
		AfterStep:      s.options.afterStep,
	}

	sched := scheduler.New(scheduler.Config{
		Concurrency: s.options.concurrency,
		Name:        s.options.name,
		TagFilter:   s.options.buildTagFilter(),
		FailFast:    s.options.failFast,
		RetryDefaults: tags.Defaults{
			Count:  s.options.retryCount,
			After:  s.options.retryAfter,
			Filter: parseOrNil(s.options.retryTagFilter),
		},
		Classify: s.options.classify,
		Logger:   s.options.logger,
	}, deps)

	out, closeWriter := s.buildWriter()

	normalized := writer.NewNormalize(out)

	for _, pe := range parseErrs {
		normalized.Write(event.Event{Kind: event.ParsingErrorEvent, ParsePath: pe.path, ParseErr: pe.err})
	}

	sched.Run(context.Background(), features, normalized.Write)

	if err := closeWriter(); err != nil {
		s.t.Errorf("writer close: %s", err)
	}

	if summarizable, ok := findSummary(out); ok {
		st := summarizable.Stats()
		if st.Scenarios.Failed > 0 || st.ParsingErrors > 0 {
			s.t.Fail()
		}
	} else if len(parseErrs) > 0 {
		s.t.Fail()
	}
}

// buildWriter assembles the default writer pipeline: a Summarize wrapping
// the terminal Text writer, teed with a JSON report writer when
// WithJsonReport was used (spec.md §4.5's composition primitives).
func (s *Suite) buildWriter() (writer.Writer, func() error) {
	var w writer.Writer = writer.NewText(os.Stdout, s.options.color, s.options.verbosity)

	if s.options.jsonReportPath != "" {
		jw, err := report.JSONFile(s.options.jsonReportPath)
		if err != nil {
			s.t.Errorf("cannot open json report: %s", err)
		} else {
			w = writer.NewTee(w, jw)
		}
	}

	w = writer.NewSummarize(w)

	return w, w.Close
}

func findSummary(w writer.Writer) (writer.Stats, bool) {
	if s, ok := w.(writer.Stats); ok {
		return s, true
	}
	return nil, false
}

// parseErr pairs a feature file path with the error the parser hit reading
// it (spec.md §7: "ParseError... reported as a top-level event; the
// affected feature contributes 0 scenarios; run continues").
type parseErr struct {
	path string
	err  error
}

// parseFeatures adapts the Suite's glob-style featuresPaths option (e.g.
// "features/*.feature") to parser.FileParser's directory-based Parse,
// mirroring the teacher's own filepath.Glob(s.options.featuresPaths) call
// in gobdd.go's Run: it parses the pattern's directory, then keeps only the
// features (and parse errors) whose file path matches the whole pattern.
func parseFeatures(globPattern string) ([]*ast.Feature, []parseErr) {
	dir := filepath.Dir(globPattern)
	matches := func(file string) bool {
		ok, _ := filepath.Match(filepath.Clean(globPattern), file)
		return ok
	}

	var errs []parseErr
	parsed, err := parser.NewFileParser().Parse(dir, func(file string, ferr error) {
		if matches(file) {
			errs = append(errs, parseErr{path: file, err: ferr})
		}
	})
	if err != nil {
		errs = append(errs, parseErr{path: dir, err: err})
	}
	var features []*ast.Feature
	for _, ft := range parsed {
		if matches(ft.Path) {
			features = append(features, ft)
		}
	}
	return features, errs
}

func parseOrNil(expr string) tags.Expr {
	if expr == "" {
		return nil
	}
	e, err := tags.Parse(expr)
	if err != nil {
		return nil
	}
	return e
}

func orOf(names []string) tags.Expr {
	expr := tagName(names[0])
	for _, n := range names[1:] {
		expr = orExpr{expr, tagName(n)}
	}
	return expr
}

type tagName string

func (t tagName) Matches(effective []string) bool {
	for _, e := range effective {
		if e == string(t) {
			return true
		}
	}
	return false
}

type notExpr struct{ inner tags.Expr }

func (n notExpr) Matches(effective []string) bool { return !n.inner.Matches(effective) }

type andExpr struct{ left, right tags.Expr }

func (a andExpr) Matches(effective []string) bool {
	return a.left.Matches(effective) && a.right.Matches(effective)
}

type orExpr struct{ left, right tags.Expr }

func (o orExpr) Matches(effective []string) bool {
	return o.left.Matches(effective) || o.right.Matches(effective)
}
