package submit

import (
	"context"
	"fmt"
	"strings"

	"vcfsubset/internal/execx"
	"vcfsubset/internal/log"
)

// CommandOutcome records one directly executed command line.
type CommandOutcome struct {
	Line     string
	ExitCode int
}

// DirectResult summarizes a direct-mode run.
type DirectResult struct {
	Outcomes []CommandOutcome
	Failed   int
}

// DirectRunner executes a plan's commands sequentially in-process.
type DirectRunner struct {
	Exec execx.Runner
	Log  *log.Logger
}

// Run executes every query command in order, then the merge command when
// present. Each command line gets the activation prefix, if configured.
//
// A non-zero exit from an individual command is logged and recorded but
// does not stop the remaining commands; only the inability to run a
// process at all is fatal.
func (r *DirectRunner) Run(ctx context.Context, plan *SubmissionPlan) (*DirectResult, error) {
	if r.Exec == nil {
		return nil, fmt.Errorf("nil runner")
	}
	if plan == nil {
		return nil, fmt.Errorf("nil plan")
	}

	res := &DirectResult{}

	for _, q := range plan.Queries {
		line := prefixActivation(plan.Params.Activation, strings.Join(q.Tokens, " "))
		if err := r.runOne(ctx, line, res); err != nil {
			return nil, err
		}
	}

	if plan.Merge != nil {
		line := prefixActivation(plan.Params.Activation, strings.Join(plan.Merge.Tokens, " "))
		if err := r.runOne(ctx, line, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (r *DirectRunner) runOne(ctx context.Context, line string, res *DirectResult) error {
	if r.Log != nil {
		r.Log.Infof("running: %s", line)
	}
	out, err := r.Exec.Run(ctx, line)
	if err != nil {
		return fmt.Errorf("run %q: %w", line, err)
	}
	res.Outcomes = append(res.Outcomes, CommandOutcome{Line: line, ExitCode: out.ExitCode})
	if out.ExitCode != 0 {
		res.Failed++
		if r.Log != nil {
			r.Log.Warnf("command exited %d: %s", out.ExitCode, line)
			if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
				r.Log.Warnf("stderr: %s", msg)
			}
		}
	}
	return nil
}

// prefixActivation joins activation lines and the command into one shell
// AND-list so a failed activation suppresses the command itself.
func prefixActivation(activation []string, line string) string {
	if len(activation) == 0 {
		return line
	}
	parts := make([]string, 0, len(activation)+1)
	parts = append(parts, activation...)
	parts = append(parts, line)
	return strings.Join(parts, " && ")
}
