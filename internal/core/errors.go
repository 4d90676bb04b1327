package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConfigurationError is fatal: the run aborts immediately.
// Examples: a discovered input without a golden file, a compiler that cannot
// be found or executed.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func configErrorf(cause error, format string, args ...any) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Build pipeline steps.
const (
	StepCompile  = "compile"
	StepAssemble = "assemble"
	StepLink     = "link"
	StepExecute  = "execute"
)

// BuildPipelineError reports a code-generation step that did not produce its
// expected artifact. The case fails; the run continues.
type BuildPipelineError struct {
	Step  string
	Path  string
	Cause error
}

func (e *BuildPipelineError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("build pipeline failed at %s", e.Step)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BuildPipelineError) Unwrap() error { return e.Cause }

// ComparisonMismatch reports actual output lines absent from the golden file.
type ComparisonMismatch struct {
	Unexpected []string
}

func (e *ComparisonMismatch) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("output mismatch: %d unexpected line(s): %s",
		len(e.Unexpected), strings.Join(quoteAll(e.Unexpected), ", "))
}

func quoteAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%q", l)
	}
	return out
}

// TimeoutError reports a process killed after exceeding the bounded wait.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("'%s' timed out after %s", e.Command, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ArtifactCleanupError reports a temporary artifact that could not be removed.
// It is logged, never recorded as a case failure.
type ArtifactCleanupError struct {
	Path  string
	Cause error
}

func (e *ArtifactCleanupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("removing artifact %s: %v", e.Path, e.Cause)
}

func (e *ArtifactCleanupError) Unwrap() error { return e.Cause }

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return true
	}
	var toErr *TimeoutError
	if errors.As(err, &toErr) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
