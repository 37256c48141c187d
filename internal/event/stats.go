package event

// Counts is a monotonic {passed, failed, skipped} triple for one entity
// kind (features, rules, scenarios, or steps).
type Counts struct {
	Passed  uint64
	Failed  uint64
	Skipped uint64
}

func (c *Counts) add(o Outcome) {
	switch o {
	case Passed:
		c.Passed++
	case Failed:
		c.Failed++
	case Skipped:
		c.Skipped++
	}
}

// Total returns passed + failed + skipped.
func (c Counts) Total() uint64 {
	return c.Passed + c.Failed + c.Skipped
}

// Stats is the monotonic counter set described in spec §3. It must only be
// mutated by the normalizer or a Summarize writer, downstream of the
// normalizer's deterministic ordering - never by the scheduler itself.
type Stats struct {
	Features  Counts
	Rules     Counts
	Scenarios Counts
	Steps     Counts

	ParsingErrors uint64
	FailedHooks   uint64
	RetriedSteps  uint64
}

// Apply folds one normalized event into the running stats.
func (s *Stats) Apply(e Event) {
	switch e.Kind {
	case ParsingErrorEvent:
		s.ParsingErrors++
	case FeatureFinished:
		s.Features.add(e.Outcome)
	case RuleFinished:
		s.Rules.add(e.Outcome)
	case ScenarioFinished:
		if e.Outcome != Failed || e.Retry.Final {
			s.Scenarios.add(e.Outcome)
		}
		if e.Retry.Attempt > 0 {
			s.RetriedSteps++
		}
	case StepFinished:
		s.Steps.add(e.Outcome)
	case HookFailed:
		s.FailedHooks++
	}
}
