// Package suite drives a conformance run: every stage in order, every case
// of a stage in order, one case fully finished before the next starts.
package suite

import (
	"context"

	"stagecheck/internal/core"
	"stagecheck/internal/logger"
	"stagecheck/internal/trace"
)

// Invoker produces the output of one test case.
type Invoker interface {
	Invoke(ctx context.Context, stage core.Stage, inputPath string) ([]byte, error)
}

// Orchestrator runs the staged pipeline and accumulates the Summary.
type Orchestrator struct {
	// Root is the test root holding one directory per stage.
	Root string

	// Stages are visited in slice order. Nil means core.Stages().
	Stages []core.Stage

	Invoker    Invoker
	Comparator *core.Comparator
	Reporter   *Reporter

	// Update rewrites golden files from actual output instead of comparing.
	Update bool

	Trace trace.Sink
	Log   *logger.Logger
}

// Run executes every stage and prints the final result line.
//
// A failing case never stops the run. A fatal error (see core.IsFatal)
// stops it at once: the Summary so far is returned with the error and
// neither the current stage's separator nor the result line is printed.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	stages := o.Stages
	if stages == nil {
		stages = core.Stages()
	}

	var total Summary
	for _, stage := range stages {
		sum, err := o.RunStage(ctx, stage)
		total = total.Add(sum)
		if err != nil {
			trace.SafeRecord(o.Trace, trace.Event{Kind: trace.EventRunAborted, Stage: stage.Name, Reason: err.Error()})
			return total, err
		}
		o.Reporter.StageDone(stage)
		trace.SafeRecord(o.Trace, trace.Event{Kind: trace.EventStageCompleted, Stage: stage.Name})
	}

	o.Reporter.Result(total)
	return total, nil
}

// RunStage executes every case discovered in stage's directory.
func (o *Orchestrator) RunStage(ctx context.Context, stage core.Stage) (Summary, error) {
	log := o.Log.With("stage", stage.Name)

	sc := core.NewCaseScanner(stage, o.Root)
	sc.RequireExpected = !o.Update

	var sum Summary
	for sc.Next() {
		tc := sc.Case()

		err := o.RunCase(ctx, tc)
		if core.IsFatal(err) {
			return sum, err
		}
		sum = sum.Record(err == nil)

		if err != nil {
			log.Debugf("%s: %v", tc.InputPath, err)
			o.Reporter.CaseFailed(tc)
			trace.SafeRecord(o.Trace, trace.Event{Kind: trace.EventCaseFailed, Stage: stage.Name, Input: tc.InputPath, Reason: err.Error()})
			continue
		}

		o.Reporter.CasePassed(tc)
		kind := trace.EventCasePassed
		if o.Update {
			kind = trace.EventCaseUpdated
		}
		trace.SafeRecord(o.Trace, trace.Event{Kind: kind, Stage: stage.Name, Input: tc.InputPath})
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}

	if sum.Total == 0 {
		log.Infof("no test cases in %s", sc.Dir())
	} else {
		log.Debugf("%s passed, %d failed", sum, sum.Failed())
	}
	return sum, nil
}

// RunCase invokes and checks a single case. It returns nil when the case
// passes, the case failure otherwise, or a fatal error.
func (o *Orchestrator) RunCase(ctx context.Context, tc core.TestCase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := o.Invoker.Invoke(ctx, tc.Stage, tc.InputPath)
	if err != nil {
		return err
	}
	if o.Update {
		if err := o.Comparator.WriteExpected(tc.ExpectedPath, out); err != nil {
			return &core.ConfigurationError{Message: "updating golden file", Cause: err}
		}
		return nil
	}
	return o.Comparator.Check(out, tc.ExpectedPath)
}
