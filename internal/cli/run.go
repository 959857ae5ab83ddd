package cli

import "context"

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the process
// exit code plus any error.
func Run(ctx context.Context, args []string) (int, error) {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return ExitCodeFor(err), err
}
