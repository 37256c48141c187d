// Package cucumber implements the JSON report format, consumed by CI
// dashboards that expect the classic cucumber-json shape (spec §6: "JSON/
// JUnit/libtest variants are out-of-core but reuse the same event stream").
package cucumber

// Feature is one top-level report entry.
type Feature struct {
	Elements    []Scenario `json:"elements"`
	Uri         string     `json:"uri"`
	Id          string     `json:"id"`
	Keyword     string     `json:"keyword"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Linenumber  int        `json:"line"`
}

// Scenario is one reported scenario, including each of its steps.
type Scenario struct {
	Steps       []Step `json:"steps"`
	Tags        []Tag  `json:"tags"`
	Id          string `json:"id"`
	Keyword     string `json:"keyword"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Tag is one `@name` annotation, reported with its source line.
type Tag struct {
	Name       string `json:"name"`
	Linenumber int    `json:"line"`
}

// Step is one reported step line and its outcome.
type Step struct {
	StepResult Stepresult   `json:"result"`
	Match      Filelocation `json:"match"`
	Keyword    string       `json:"keyword"`
	Name       string       `json:"name"`
	Line       int          `json:"line"`
}

// Stepresult is a step's terminal outcome.
type Stepresult struct {
	ErrorMsg      string `json:"error_message,omitempty"`
	RunStatus     string `json:"status"`
	ExecutionTime int64  `json:"duration"`
}

// Filelocation names where the step's matcher lives, when known.
type Filelocation struct {
	Location string `json:"location"`
}

func GenerateFeature(name string, id string, description string, line int) Feature {
	return Feature{
		Elements:    nil,
		Uri:         name,
		Id:          id,
		Keyword:     "Feature",
		Name:        name,
		Description: description,
		Linenumber:  line,
	}
}

func (f *Feature) AddScenario(sc Scenario) {
	f.Elements = append(f.Elements, sc)
}

func GenerateStep(keyword string, name string, line int, location string) Step {
	return Step{
		StepResult: Stepresult{},
		Match:      Filelocation{Location: location},
		Keyword:    keyword,
		Name:       name,
		Line:       line,
	}
}

func (sc *Scenario) AddStepObj(step Step) {
	sc.Steps = append(sc.Steps, step)
}

func (s *Step) UpdateResult(status string, errMsg string, durationNanos int64) {
	s.StepResult = Stepresult{
		RunStatus:     status,
		ErrorMsg:      errMsg,
		ExecutionTime: durationNanos,
	}
}
