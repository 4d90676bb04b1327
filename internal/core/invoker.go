package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"stagecheck/internal/logger"
)

// Tool is an external program with fixed leading arguments. The file it
// works on is appended after Args.
type Tool struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

func (t Tool) argv(file string) []string {
	args := make([]string, 0, len(t.Args)+1)
	args = append(args, t.Args...)
	return append(args, file)
}

// Toolchain invokes the compiler under test and, for the code-generation
// stage, the assembler, the linker and the built program.
type Toolchain struct {
	// Compiler is the path of the compiler under test.
	Compiler string

	Assembler Tool
	Linker    Tool

	// WorkDir receives the object file and executable of a code-generation
	// case. It must be absolute.
	WorkDir string

	// KeepAsm leaves the compiler's <input>.asm in place after a case.
	KeepAsm bool

	Executor *Executor
	Log      *logger.Logger
}

// BuildPaths are the files a code-generation case produces.
type BuildPaths struct {
	Asm string
	Obj string
	Exe string
}

// BuildPathsFor returns where the code-generation files for inputPath live:
// <input>.asm next to the input, <stem>.obj and <stem>.exe in workDir.
func BuildPathsFor(inputPath, workDir string) BuildPaths {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return BuildPaths{
		Asm: inputPath + ".asm",
		Obj: filepath.Join(workDir, stem+".obj"),
		Exe: filepath.Join(workDir, stem+".exe"),
	}
}

// Invoke runs the stage's recipe for inputPath and returns the captured
// standard output that is compared against the golden file.
func (t *Toolchain) Invoke(ctx context.Context, stage Stage, inputPath string) ([]byte, error) {
	switch stage.Pipeline {
	case PipelineNone:
		return t.compile(ctx, stage, inputPath)
	case PipelineExecuteAndBuild:
		return t.build(ctx, stage, inputPath)
	default:
		return nil, configErrorf(nil, "stage %s: pipeline %s is not supported", stage, stage.Pipeline)
	}
}

func (t *Toolchain) compile(ctx context.Context, stage Stage, inputPath string) ([]byte, error) {
	res, err := t.Executor.Execute(ctx, t.Compiler, stage.Args(inputPath)...)
	if err != nil {
		return nil, t.compilerError(err)
	}
	return res.Stdout, nil
}

// build runs compile, assemble, link and execute. Every artifact the steps
// can produce is removed before build returns, whatever the outcome. Files
// left behind by an interrupted earlier run are removed before the first
// step so that they cannot pass for this case's output.
func (t *Toolchain) build(ctx context.Context, stage Stage, inputPath string) ([]byte, error) {
	paths := BuildPathsFor(inputPath, t.WorkDir)

	var stale ArtifactSet
	stale.Record(paths.Asm)
	stale.Record(paths.Obj)
	stale.Record(paths.Exe)
	t.warn(stale.Remove())

	var artifacts ArtifactSet
	defer func() {
		t.Log.Debugf("removing build artifacts %v", artifacts.Paths())
		t.warn(artifacts.Remove())
	}()

	if !t.KeepAsm {
		artifacts.Record(paths.Asm)
	}

	// compile: stdout is discarded, <input>.asm is the product.
	res, err := t.Executor.Execute(ctx, t.Compiler, stage.Args(inputPath)...)
	if err != nil {
		var toErr *TimeoutError
		if errors.As(err, &toErr) {
			return nil, stepError(ctx, StepCompile, paths.Asm, err)
		}
		return nil, t.compilerError(err)
	}
	if res.ExitCode != 0 {
		return nil, &BuildPipelineError{Step: StepCompile, Path: paths.Asm, Cause: exitError(res)}
	}
	if err := t.expect(StepCompile, paths.Asm, res); err != nil {
		return nil, err
	}

	artifacts.Record(paths.Obj)
	res, err = t.Executor.Execute(ctx, t.Assembler.Path, t.Assembler.argv(paths.Asm)...)
	if err != nil {
		return nil, stepError(ctx, StepAssemble, paths.Obj, err)
	}
	if err := t.expect(StepAssemble, paths.Obj, res); err != nil {
		return nil, err
	}

	artifacts.Record(paths.Exe)
	res, err = t.Executor.Execute(ctx, t.Linker.Path, t.Linker.argv(paths.Obj)...)
	if err != nil {
		return nil, stepError(ctx, StepLink, paths.Exe, err)
	}
	if err := t.expect(StepLink, paths.Exe, res); err != nil {
		return nil, err
	}

	res, err = t.Executor.Execute(ctx, paths.Exe)
	if err != nil {
		return nil, stepError(ctx, StepExecute, paths.Exe, err)
	}
	return res.Stdout, nil
}

// expect fails the step when it did not leave path behind.
func (t *Toolchain) expect(step, path string, res *ExecutionResult) error {
	ok, err := fileExists(path)
	if err != nil {
		return &BuildPipelineError{Step: step, Path: path, Cause: err}
	}
	if ok {
		return nil
	}
	cause := errors.New("expected artifact was not produced")
	if res != nil && res.ExitCode != 0 {
		cause = fmt.Errorf("%w: %v", cause, exitError(res))
	}
	return &BuildPipelineError{Step: step, Path: path, Cause: cause}
}

// compilerError classifies a failure to run the compiler. A compiler that
// cannot be started is a configuration problem, not a failed case.
func (t *Toolchain) compilerError(err error) error {
	var toErr *TimeoutError
	if errors.As(err, &toErr) || IsFatal(err) {
		return err
	}
	return configErrorf(err, "compiler %s cannot be executed", t.Compiler)
}

func (t *Toolchain) warn(errs []error) {
	for _, err := range errs {
		t.Log.Warning(err)
	}
}

// stepError wraps a failed step; cancellation of the run passes through.
func stepError(ctx context.Context, step, path string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return &BuildPipelineError{Step: step, Path: path, Cause: err}
}

func exitError(res *ExecutionResult) error {
	if s := stderrSnippet(res.Stderr); s != "" {
		return fmt.Errorf("exit status %d (stderr: %s)", res.ExitCode, s)
	}
	return fmt.Errorf("exit status %d", res.ExitCode)
}
