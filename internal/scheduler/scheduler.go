// Package scheduler implements the concurrent scenario dispatcher of spec
// §4.3: outline expansion, name/tag filtering, serial/concurrent
// classification, a bounded worker pool, the retry queue, and fail-fast.
//
// The dispatch decisions themselves run on a single goroutine (the loop
// inside Run), matching the "single-threaded cooperative task executor"
// model of spec §5; only scenario execution itself is parallelized, via
// goroutines guarded by a semaphore and a serial/concurrent gate. This
// generalizes the teacher's t.Run-per-scenario nesting (gobdd.go's
// runFeature/runScenario) from the Go testing package's own parallelism
// primitives to an explicit, bounded pool grounded on the
// golang.org/x/sync/errgroup usage pattern found in the example pack
// (internal/campaign/intelligence_gatherer.go's parallel gathering via
// errgroup.WithContext): errgroup.Group coordinates the overall wait, while
// golang.org/x/sync/semaphore.Weighted provides the explicit
// acquire/release needed to free a slot during a retry delay, which
// errgroup's fire-and-forget Go() cannot express.
package scheduler

import (
	"context"
	"regexp"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/anuragh27crony/gobdd/internal/ast"
	"github.com/anuragh27crony/gobdd/internal/event"
	"github.com/anuragh27crony/gobdd/internal/executor"
	"github.com/anuragh27crony/gobdd/internal/logging"
	"github.com/anuragh27crony/gobdd/internal/tags"
)

// DefaultConcurrency matches spec §6's CLI default for -c/--concurrency.
const DefaultConcurrency = 64

// Config holds the scheduler's run-time options (spec §4.3, §6).
type Config struct {
	Concurrency   int
	Name          *regexp.Regexp
	TagFilter     tags.Expr
	FailFast      bool
	RetryDefaults tags.Defaults
	Classify      Classifier

	// Logger receives operational diagnostics (dispatch, retry scheduling,
	// fail-fast trips). Defaults to a no-op logger so callers never need a
	// nil check.
	Logger *zap.SugaredLogger
}

// Scheduler dispatches scenarios from parsed features to the executor,
// emitting events as it goes.
type Scheduler struct {
	cfg  Config
	deps executor.Dependencies
}

// New builds a Scheduler. Unset Config fields fall back to spec defaults.
func New(cfg Config, deps executor.Dependencies) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Classify == nil {
		cfg.Classify = DefaultClassifier
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Scheduler{cfg: cfg, deps: deps}
}

// Run executes every surviving scenario across features, in discovery
// order for dispatch decisions, and emits the full lifecycle event stream.
// It blocks until every dispatched scenario (including its retries) has
// resolved.
func (s *Scheduler) Run(ctx context.Context, features []*ast.Feature, emit func(event.Event)) {
	items, _, _ := buildItems(features, s.cfg.Name, s.cfg.TagFilter, s.cfg.Classify)
	s.cfg.Logger.Infow("scheduler run starting", "scenarios", len(items), "concurrency", s.cfg.Concurrency)

	sem := semaphore.NewWeighted(int64(s.cfg.Concurrency))
	serialGate := &sync.RWMutex{}

	var failFast boolFlag

	eg, egCtx := errgroup.WithContext(ctx)

	for _, it := range items {
		if failFast.get() {
			s.cfg.Logger.Infow("fail-fast engaged, stopping dispatch", "scenario", it.scenario.Name)
			break
		}

		it.fs.ensureStarted(emit)
		if it.rs != nil {
			it.rs.ensureStarted(emit)
		}

		if it.serial {
			serialGate.Lock()
			s.runAttempts(egCtx, it, emit, &failFast, nil)
			serialGate.Unlock()
			continue
		}

		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		it := it
		eg.Go(func() error {
			serialGate.RLock()
			defer serialGate.RUnlock()
			s.runAttempts(egCtx, it, emit, &failFast, sem)
			return nil
		})
	}

	_ = eg.Wait()

	s.cfg.Logger.Infow("scheduler run finished")
	emit(event.Event{Kind: event.CucumberFinished})
}

// runAttempts runs one scenario identity to final resolution, retrying per
// its tag/CLI-derived retry policy (spec §3, §4.3 step 7, invariant 6). For
// a concurrent scenario, sem is released before sleeping out a retry delay
// and reacquired before the next attempt, so the delay does not occupy a
// worker-pool slot (spec §4.3's retry_queue is distinct from
// concurrent_inflight). A serial scenario runs with no sem at all, since it
// already holds the exclusive gate.
func (s *Scheduler) runAttempts(ctx context.Context, it *item, emit func(event.Event), failFast *boolFlag, sem *semaphore.Weighted) {
	count, delay := tags.ResolvePolicy(it.tagSet, s.cfg.RetryDefaults)

	var outcome event.Outcome

	for attempt := 0; ; attempt++ {
		remaining := remainingAfter(count, attempt)
		final := attempt >= int(count)

		outcome = executor.Execute(s.deps, executor.Run{
			Feature:  it.feature,
			Rule:     it.rule,
			Scenario: it.scenario,
			Retry:    event.RetryState{Attempt: uint32(attempt), Remaining: remaining, Final: final},
		}, emit)

		if outcome != event.Failed {
			break
		}
		if final {
			if s.cfg.FailFast {
				failFast.set(true)
			}
			break
		}

		s.cfg.Logger.Infow("retrying scenario", "scenario", it.scenario.Name, "attempt", attempt+1, "remaining", remaining, "delay", delay)

		if sem != nil {
			sem.Release(1)
		}
		sleep(ctx, delay)
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
		}
	}

	it.fs.resolve(emit, outcome)
	if it.rs != nil {
		it.rs.resolve(emit, outcome)
	}
}

// remainingAfter computes the retries left after this 0-indexed attempt,
// given a total retry budget of count (spec E2E-3: N=2 yields
// {remaining:1},{remaining:0},{remaining:0} across 3 attempts).
func remainingAfter(count uint32, attempt int) uint32 {
	left := int(count) - attempt - 1
	if left < 0 {
		return 0
	}
	return uint32(left)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// boolFlag is a tiny atomic latch for the fail-fast flag, read by the
// single dispatch loop and written by any scenario goroutine.
type boolFlag struct {
	mu sync.Mutex
	v  bool
}

func (b *boolFlag) get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}

func (b *boolFlag) set(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.v = v
}
