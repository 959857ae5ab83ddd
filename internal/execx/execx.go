// Package execx wraps the external-process primitives the orchestrator
// depends on: run a shell command line, check that a program is on PATH,
// and submit a script to the batch scheduler.
//
// The interfaces are deliberately narrow so tests can substitute fakes
// without spawning processes.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Result captures one finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a command line through a shell.
//
// A non-zero exit code is reported via Result, not the error; a non-nil
// error means the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, line string) (*Result, error)
}

// Checker reports whether a program can be located for execution.
type Checker interface {
	Available(program string) error
}

// Submitter invokes the batch scheduler on a script file and captures its
// acceptance output.
type Submitter interface {
	Submit(ctx context.Context, scriptPath string) (stdout string, err error)
}

// Shell is the production Runner/Checker/Submitter backed by sh and the
// process table.
type Shell struct{}

// Run executes line via "sh -c". The command runs in its own process group
// so the whole tree can be killed on context cancellation.
func (Shell) Run(ctx context.Context, line string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return nil, fmt.Errorf("command cancelled: %w", ctx.Err())
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("run command: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exitCode}, nil
}

// Available checks PATH for program.
func (Shell) Available(program string) error {
	if _, err := exec.LookPath(program); err != nil {
		return fmt.Errorf("locate %s: %w", program, err)
	}
	return nil
}

// Submit runs "sbatch <scriptPath>" and returns the scheduler's stdout
// (typically "Submitted batch job <id>") verbatim. The output is surfaced,
// never interpreted.
func (Shell) Submit(ctx context.Context, scriptPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "sbatch", scriptPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("sbatch %s: %s: %w", scriptPath, msg, err)
		}
		return "", fmt.Errorf("sbatch %s: %w", scriptPath, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
