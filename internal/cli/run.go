package cli

import (
	"context"
	"fmt"
	"io"
)

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and the absolute working
// directory, and returns the semantic exit code plus any error. Help output
// goes to stdout with ExitSuccess.
func Run(ctx context.Context, args []string, cwd string, stdout, stderr io.Writer) (CLIResult, error) {
	inv, err := ParseInvocation(args, cwd)
	if err != nil {
		if IsHelp(err) {
			fmt.Fprintln(stdout, err)
			return CLIResult{ExitCode: ExitSuccess}, nil
		}
		return CLIResult{ExitCode: ExitCode(err)}, err
	}
	return Execute(ctx, inv, stdout, stderr)
}
