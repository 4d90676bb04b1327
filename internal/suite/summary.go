package suite

import "fmt"

// Summary is the pass/total tally of one run. It is a value: each stage
// returns its own Summary and the orchestrator folds them together.
type Summary struct {
	Total  int
	Passed int
}

// Add folds o into s.
func (s Summary) Add(o Summary) Summary {
	return Summary{Total: s.Total + o.Total, Passed: s.Passed + o.Passed}
}

// Record counts one case.
func (s Summary) Record(passed bool) Summary {
	s.Total++
	if passed {
		s.Passed++
	}
	return s
}

// Failed is the number of cases that did not pass.
func (s Summary) Failed() int { return s.Total - s.Passed }

func (s Summary) String() string { return fmt.Sprintf("%d/%d", s.Passed, s.Total) }
