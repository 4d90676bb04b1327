package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"stagecheck/internal/logger"
)

const stderrLimit = 4 << 10 // 4 KiB

// ExecutionResult is what one external process produced.
type ExecutionResult struct {
	Stdout []byte
	Stderr []byte

	// ExitCode is the process exit code; 0 indicates success.
	ExitCode int
}

// Executor runs external programs and captures their output.
//
// Programs run directly, never through a shell. The call blocks until the
// process terminates, or until Timeout elapses when it is non-zero, in which
// case the process is killed and a *TimeoutError returned.
type Executor struct {
	// WorkingDir is the directory programs run in. Empty means the harness's
	// own working directory.
	WorkingDir string

	// Timeout bounds each process. Zero waits indefinitely.
	Timeout time.Duration

	Log *logger.Logger
}

// NewExecutor creates an Executor with the given working directory.
func NewExecutor(workingDir string, timeout time.Duration, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Discard()
	}
	return &Executor{WorkingDir: workingDir, Timeout: timeout, Log: log}
}

// Execute runs name with args.
//
// A non-zero exit status is not an error: it is reported in ExitCode. An
// error is returned when the program cannot be started, when it times out, or
// when ctx is cancelled.
func (e *Executor) Execute(ctx context.Context, name string, args ...string) (*ExecutionResult, error) {
	if name == "" {
		return nil, errors.New("executable name is empty")
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = e.WorkingDir
	// Children that inherit stdout must not keep Wait blocked after a kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Log.Debugf("executing '%s'", cmd)

	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("executing '%s': %w", cmd, ctxErr)
	}
	if runCtx.Err() != nil {
		return nil, &TimeoutError{Command: cmd.String(), Timeout: e.Timeout}
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("executing '%s': %w", cmd, err)
		}
		exitCode = exitErr.ExitCode()
		e.Log.Debugf("'%s' exited with %d (stderr: %s)", cmd, exitCode, stderrSnippet(stderr.Bytes()))
	}

	return &ExecutionResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}

func stderrSnippet(b []byte) string {
	s := string(b)
	if len(s) > stderrLimit {
		s = s[:stderrLimit] + "… (truncated)"
	}
	return strings.TrimSpace(s)
}

// ResolveExecutable checks that path names a runnable program before any case
// is attempted. Bare names are looked up in PATH. The result is absolute.
func ResolveExecutable(path string) (string, error) {
	if !strings.ContainsAny(path, `/\`) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", configErrorf(err, "executable %s not found", path)
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", configErrorf(err, "resolving %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", configErrorf(err, "executable %s not found", path)
	}
	if info.IsDir() {
		return "", configErrorf(nil, "%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", configErrorf(nil, "%s is not executable", path)
	}
	return abs, nil
}
