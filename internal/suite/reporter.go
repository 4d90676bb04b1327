package suite

import (
	"fmt"
	"io"
	"strings"

	"stagecheck/internal/core"
)

// Separator is printed after every stage.
var Separator = "+" + strings.Repeat("-", 25) + "+"

// Reporter writes the console report: one line per failed case, a separator
// per stage and the final result line.
type Reporter struct {
	W io.Writer

	// Verbose also prints passing cases.
	Verbose bool
}

// CaseFailed prints the failure line for tc.
func (r *Reporter) CaseFailed(tc core.TestCase) {
	fmt.Fprintf(r.W, "Test %s failed\n", tc.InputPath)
}

// CasePassed prints a pass line for tc in verbose mode only.
func (r *Reporter) CasePassed(tc core.TestCase) {
	if r.Verbose {
		fmt.Fprintf(r.W, "Test %s passed\n", tc.InputPath)
	}
}

// StageDone prints the separator closing a stage.
func (r *Reporter) StageDone(core.Stage) {
	fmt.Fprintln(r.W, Separator)
}

// Result prints the final "Result: passed/total" line.
func (r *Reporter) Result(s Summary) {
	fmt.Fprintf(r.W, "Result: %s\n", s)
}
