// Package logging provides the structured diagnostic logger threaded
// through the scheduler (the executor does not log). It never reports step
// outcomes - those are always encoded as events (spec.md §7's propagation
// policy) - it only logs the scheduler's own operational decisions: scenario
// dispatch, retry scheduling, and fail-fast trips.
package logging

import (
	"go.uber.org/zap"
)

// New builds a *zap.SugaredLogger suited for interactive use: human-
// readable console output at debug level and above. Callers that want JSON
// output (e.g. under a CI writer) should build their own zap.Logger and
// call .Sugar() instead; this constructor only covers the common case.
func New() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything, used as the zero-value
// default so the scheduler and executor never need a nil check before
// logging.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
