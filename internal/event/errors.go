package event

import "fmt"

// AmbiguousMatchError is returned when more than one registered matcher
// accepts the same step text within a kind (spec §4.1, §7).
type AmbiguousMatchError struct {
	Text     string
	Patterns []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous step %q matches %d patterns: %v", e.Text, len(e.Patterns), e.Patterns)
}

// NoMatchError means no registered matcher accepted the step text; the step
// is marked Skipped rather than failed, except when rewritten by
// writer.FailOnSkipped.
type NoMatchError struct {
	Text string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("cannot find step definition for: %s", e.Text)
}

// ArgParseError means a captured substring could not be converted to the
// step callback's declared argument type.
type ArgParseError struct {
	Arg   string
	Type  string
	Cause error
}

func (e *ArgParseError) Error() string {
	return fmt.Sprintf("cannot convert argument %q to %s: %v", e.Arg, e.Type, e.Cause)
}

func (e *ArgParseError) Unwrap() error { return e.Cause }

// PanicError wraps a best-effort stringification of a recovered panic
// payload from a step or hook invocation.
type PanicError struct {
	Payload string
}

func (e *PanicError) Error() string {
	return "panic: " + e.Payload
}

// UserError wraps an error value returned by a step or hook callback.
type UserError struct {
	Cause error
}

func (e *UserError) Error() string {
	return e.Cause.Error()
}

func (e *UserError) Unwrap() error { return e.Cause }

// WorldInitError means the user-supplied World factory failed; the
// before-hook is treated as failed and the after-hook is not invoked.
type WorldInitError struct {
	Cause error
}

func (e *WorldInitError) Error() string {
	return fmt.Sprintf("world init failed: %v", e.Cause)
}

func (e *WorldInitError) Unwrap() error { return e.Cause }

// AfterHookFailedError means the after-hook failed; it is folded into the
// scenario outcome but never masks an earlier failure's error.
type AfterHookFailedError struct {
	Cause error
}

func (e *AfterHookFailedError) Error() string {
	return fmt.Sprintf("after-hook failed: %v", e.Cause)
}

func (e *AfterHookFailedError) Unwrap() error { return e.Cause }
