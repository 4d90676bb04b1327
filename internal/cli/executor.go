package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"stagecheck/internal/core"
	"stagecheck/internal/logger"
	"stagecheck/internal/suite"
	"stagecheck/internal/trace"
)

type CLIResult struct {
	ExitCode int
	Summary  suite.Summary
}

// Execute runs the conformance suite described by inv. The report goes to
// stdout and diagnostics to stderr.
//
// Exit codes: ExitSuccess after a completed run (whatever the tally, unless
// inv.Strict), ExitTestFailures for a completed strict run with failures,
// ExitConfigError for a fatal configuration error, ExitInterrupted when ctx
// is cancelled.
func Execute(ctx context.Context, inv Invocation, stdout, stderr io.Writer) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError

	logger.Level.SetByName(inv.LogLevel)
	log := logger.New(stderr)

	cfg, err := LoadConfig(inv.ConfigPath)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	inv.apply(cfg)

	compiler, err := core.ResolveExecutable(inv.Compiler)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	if err := os.MkdirAll(inv.WorkDir, 0o755); err != nil {
		res.ExitCode = ExitConfigError
		return res, &core.ConfigurationError{Message: "preparing workdir", Cause: err}
	}

	log.Debugf("compiler %s, tests %s, workdir %s", compiler, inv.TestsDir, inv.WorkDir)

	var sink trace.Sink = trace.NopSink{}
	var recorder *trace.Recorder
	if inv.ReportPath != "" {
		recorder = trace.NewRecorder()
		sink = recorder
	}

	executor := core.NewExecutor(inv.WorkDir, inv.Timeout, log)
	orch := &suite.Orchestrator{
		Root:   inv.TestsDir,
		Stages: inv.Stages,
		Invoker: &core.Toolchain{
			Compiler:  compiler,
			Assembler: cfg.Assembler,
			Linker:    cfg.Linker,
			WorkDir:   inv.WorkDir,
			KeepAsm:   inv.KeepAsm,
			Executor:  executor,
			Log:       log,
		},
		Comparator: &core.Comparator{},
		Reporter:   &suite.Reporter{W: stdout, Verbose: inv.Verbose},
		Update:     inv.Update,
		Trace:      sink,
		Log:        log,
	}

	if recorder != nil {
		runID := trace.NewRunID()
		defer func() {
			rep := recorder.Report(runID, compiler)
			if err := trace.WriteReport(inv.ReportPath, rep); err != nil {
				log.Error(err)
				if execErr == nil {
					res.ExitCode = ExitInternalError
					execErr = err
				}
			}
		}()
	}

	sum, err := orch.Run(ctx)
	res.Summary = sum
	if err != nil {
		res.ExitCode = exitCodeFor(err)
		return res, err
	}

	res.ExitCode = ExitSuccess
	if inv.Strict && sum.Passed < sum.Total {
		res.ExitCode = ExitTestFailures
	}
	return res, nil
}

func exitCodeFor(err error) int {
	var cfgErr *core.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitInternalError
	}
}
