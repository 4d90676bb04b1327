package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"stagecheck/internal/core"
)

const (
	ExitSuccess           = 0
	ExitTestFailures      = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
	ExitInterrupted       = 130
)

// Options defines command line options.
type Options struct {
	Tests    string        `short:"t" long:"tests" value-name:"DIR" description:"test root holding Lexer/, Parser/, Semantic/ and CodeGen/ (default: Tests)"`
	WorkDir  string        `short:"w" long:"workdir" value-name:"DIR" description:"directory receiving object files and executables (default: current directory)"`
	Config   string        `short:"c" long:"config" value-name:"FILE" description:"YAML toolchain configuration"`
	Stages   []string      `short:"s" long:"stage" value-name:"NAME" description:"run only this stage (lexer|parser|semantic|codegen); repeatable"`
	Timeout  time.Duration `long:"timeout" value-name:"DURATION" description:"kill any process running longer than this (default: wait forever)"`
	Update   bool          `long:"update" description:"rewrite golden files from actual output instead of comparing"`
	KeepAsm  bool          `long:"keep-asm" description:"keep the compiler's .asm output of code generation cases"`
	Report   string        `long:"report" value-name:"FILE" description:"write a JSON run report"`
	Strict   bool          `long:"strict" description:"exit with status 1 when any case fails"`
	Verbose  bool          `short:"v" long:"verbose" description:"also print passing cases"`
	LogLevel string        `long:"log-level" value-name:"LEVEL" default:"info" choice:"error" choice:"warn" choice:"info" choice:"debug" description:"diagnostic log level"`

	Positional struct {
		Compiler string `positional-arg-name:"COMPILER" description:"path to the compiler under test"`
	} `positional-args:"yes" required:"yes"`
}

// Invocation is the canonical description of a run. Every path in it is
// absolute, except Compiler when it is a bare name to be looked up in PATH.
type Invocation struct {
	Compiler   string
	TestsDir   string
	WorkDir    string
	ConfigPath string
	ReportPath string
	Stages     []core.Stage
	Timeout    time.Duration
	Update     bool
	KeepAsm    bool
	Strict     bool
	Verbose    bool
	LogLevel   string

	// explicit records which settings came from the command line and
	// therefore win over the configuration file.
	explicit map[string]bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// IsHelp reports whether err carries the help text requested with -h.
func IsHelp(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr) && invErr.ExitCode == ExitSuccess
}

// ParseInvocation parses command line arguments into an Invocation.
// Relative paths are resolved against cwd, which must be absolute; the
// process working directory is never consulted.
func ParseInvocation(args []string, cwd string) (Invocation, error) {
	if !filepath.IsAbs(cwd) {
		return Invocation{}, invalidInvocationf("working directory must be absolute (got %q)", cwd)
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "stagecheck"
	parser.Usage = "[OPTIONS] COMPILER"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flags.WroteHelp(err) {
			return Invocation{}, &InvocationError{ExitCode: ExitSuccess, Message: err.Error()}
		}
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if len(rest) != 0 {
		return Invocation{}, invalidInvocationf("unexpected arguments: %q", strings.Join(rest, " "))
	}

	compiler := strings.TrimSpace(opts.Positional.Compiler)
	if compiler == "" {
		return Invocation{}, invalidInvocationf("compiler path must not be empty")
	}

	stages, err := core.SelectStages(opts.Stages)
	if err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if opts.Timeout < 0 {
		return Invocation{}, invalidInvocationf("--timeout must not be negative (got %s)", opts.Timeout)
	}

	inv := Invocation{
		Compiler: resolveExecutable(cwd, compiler),
		TestsDir: filepath.Join(cwd, "Tests"),
		WorkDir:  filepath.Clean(cwd),
		Stages:   stages,
		Timeout:  opts.Timeout,
		Update:   opts.Update,
		KeepAsm:  opts.KeepAsm,
		Strict:   opts.Strict,
		Verbose:  opts.Verbose,
		LogLevel: opts.LogLevel,
		explicit: make(map[string]bool),
	}
	if opts.Tests != "" {
		inv.TestsDir = resolveUnder(cwd, opts.Tests)
		inv.explicit["tests"] = true
	}
	if opts.WorkDir != "" {
		inv.WorkDir = resolveUnder(cwd, opts.WorkDir)
		inv.explicit["workdir"] = true
	}
	if opts.Timeout != 0 {
		inv.explicit["timeout"] = true
	}
	if opts.Config != "" {
		inv.ConfigPath = resolveUnder(cwd, opts.Config)
	}
	if opts.Report != "" {
		inv.ReportPath = resolveUnder(cwd, opts.Report)
	}

	return inv, nil
}

func resolveUnder(dir, p string) string {
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Join(dir, clean)
}

// resolveExecutable leaves bare names for PATH lookup and resolves anything
// with a directory component against dir.
func resolveExecutable(dir, p string) string {
	if !strings.ContainsAny(p, `/\`) {
		return p
	}
	return resolveUnder(dir, p)
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		return invErr.ExitCode
	}
	return ExitInternalError
}
