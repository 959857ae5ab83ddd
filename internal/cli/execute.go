// Package cli canonicalizes the command-line surface into engine inputs and
// wires the resolver, builder and orchestrator together.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"vcfsubset/internal/command"
	"vcfsubset/internal/execx"
	"vcfsubset/internal/log"
	"vcfsubset/internal/registry"
	"vcfsubset/internal/submit"
)

// Deps are the external collaborators Execute needs. Production code uses
// DefaultDeps; tests substitute fakes so no bcftools or sbatch is spawned.
type Deps struct {
	Runner    execx.Runner
	Checker   execx.Checker
	Submitter execx.Submitter
	Console   io.Writer
}

// DefaultDeps wires the real shell-backed collaborators.
func DefaultDeps() Deps {
	return Deps{
		Runner:    execx.Shell{},
		Checker:   execx.Shell{},
		Submitter: execx.Shell{},
		Console:   os.Stderr,
	}
}

// Execute runs one canonicalized invocation end to end.
func Execute(ctx context.Context, inv Invocation) error {
	return ExecuteWith(ctx, inv, DefaultDeps())
}

// ExecuteWith is Execute with injectable collaborators.
//
// Flow: canonicalize, construct the logger, check external tools once,
// load and resolve the registry, build the plan, dispatch by mode. Every
// failure up to dispatch is fatal; in direct mode, individual command
// failures are logged and tolerated.
func ExecuteWith(ctx context.Context, inv Invocation, deps Deps) error {
	canon, err := inv.Canonicalize()
	if err != nil {
		return err
	}

	logger, err := log.New(deps.Console, inv.LogPath)
	if err != nil {
		return err
	}
	defer logger.Close()

	if err := checkTools(deps.Checker, canon, inv.DryRun); err != nil {
		logger.Errorf("%v", err)
		return err
	}

	reg, err := registry.Load(inv.RegistryPath)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}

	groups, err := registry.Resolve(reg, canon.Samples, logger)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}
	logger.Infof("resolved %d samples into %d file groups", len(canon.Samples), len(groups))

	if err := os.MkdirAll(canon.OutDir, 0o755); err != nil {
		err = fmt.Errorf("create output directory: %w", err)
		logger.Errorf("%v", err)
		return err
	}

	plan := &submit.SubmissionPlan{
		Mode:   canon.Mode,
		Params: canon.Params,
		OutDir: canon.OutDir,
	}
	for _, g := range groups {
		plan.Queries = append(plan.Queries, command.BuildQuery(g, canon.Options))
	}
	plan.Merge = command.BuildMerge(groups, canon.Options)

	switch canon.Mode {
	case submit.ModeDirect:
		return runDirect(ctx, plan, deps, logger)
	case submit.ModeScheduled:
		return runScheduled(ctx, plan, deps, logger, inv.DryRun)
	default:
		return fmt.Errorf("unhandled mode %q", canon.Mode)
	}
}

// checkTools verifies required external programs once, up front. The query
// tool only has to exist where commands will actually run: for shell mode
// that is this host; for sbatch mode the script's own activation block is
// expected to provide it, so only the scheduler binary is checked.
func checkTools(checker execx.Checker, canon *Canonical, dryRun bool) error {
	if checker == nil {
		return fmt.Errorf("nil tool checker")
	}
	switch canon.Mode {
	case submit.ModeDirect:
		if err := checker.Available(command.QueryTool); err != nil {
			return &submit.ToolUnavailableError{Tool: command.QueryTool, Err: err}
		}
	case submit.ModeScheduled:
		if dryRun {
			return nil
		}
		if err := checker.Available("sbatch"); err != nil {
			return &submit.ToolUnavailableError{Tool: "sbatch", Err: err}
		}
	}
	return nil
}

func runDirect(ctx context.Context, plan *submit.SubmissionPlan, deps Deps, logger *log.Logger) error {
	runner := &submit.DirectRunner{Exec: deps.Runner, Log: logger}
	res, err := runner.Run(ctx, plan)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}
	if res.Failed > 0 {
		// Individual command failures were already logged; they do not
		// turn the run itself into a failure.
		logger.Warnf("%d of %d commands failed", res.Failed, len(res.Outcomes))
	} else {
		logger.Infof("all %d commands completed", len(res.Outcomes))
	}
	return nil
}

func runScheduled(ctx context.Context, plan *submit.SubmissionPlan, deps Deps, logger *log.Logger, dryRun bool) error {
	scheduler := &submit.Scheduler{Submit: deps.Submitter, Log: logger}

	if dryRun {
		res, err := scheduler.WriteScript(plan)
		if err != nil {
			logger.Errorf("%v", err)
			return err
		}
		logger.Infof("dry run: wrote %s (not submitted)", res.ScriptPath)
		return nil
	}

	res, err := scheduler.Schedule(ctx, plan)
	if err != nil {
		logger.Errorf("%v", err)
		return err
	}
	logger.Infof("submitted %s", res.ScriptPath)
	return nil
}
