package submit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vcfsubset/internal/command"
	"vcfsubset/internal/execx"
	"vcfsubset/internal/log"
)

// ScheduleResult reports what a scheduled-mode dispatch produced.
type ScheduleResult struct {
	ScriptPath string
	// SideFilePath is set only under the worker-queue strategy.
	SideFilePath string
	// SchedulerOutput is the scheduler's acceptance output, verbatim.
	SchedulerOutput string
}

// Scheduler writes the batch script for a plan and submits it.
type Scheduler struct {
	Submit execx.Submitter
	Log    *log.Logger
}

// Schedule validates the plan's scheduling parameters, emits the batch
// script under the plan's output directory using the configured strategy,
// and submits it in a single sbatch invocation.
//
// Any I/O failure while writing the script or side file aborts the whole
// submission. A failure from the scheduler itself is surfaced unchanged;
// there is no retry.
func (s *Scheduler) Schedule(ctx context.Context, plan *SubmissionPlan) (*ScheduleResult, error) {
	if s.Submit == nil {
		return nil, fmt.Errorf("nil submitter")
	}
	if plan == nil {
		return nil, fmt.Errorf("nil plan")
	}
	if err := plan.Params.validate(); err != nil {
		return nil, err
	}

	scriptPath, sidePath, err := s.writeScript(plan)
	if err != nil {
		return nil, err
	}

	if s.Log != nil {
		s.Log.Infof("submitting batch script %s", scriptPath)
	}
	out, err := s.Submit.Submit(ctx, scriptPath)
	if err != nil {
		return nil, fmt.Errorf("submit script: %w", err)
	}
	if s.Log != nil && out != "" {
		s.Log.Infof("scheduler: %s", out)
	}

	return &ScheduleResult{ScriptPath: scriptPath, SideFilePath: sidePath, SchedulerOutput: out}, nil
}

// WriteScript emits the batch script (and side file, when the worker-queue
// strategy is selected) without submitting it. Used for dry runs.
func (s *Scheduler) WriteScript(plan *SubmissionPlan) (*ScheduleResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("nil plan")
	}
	if err := plan.Params.validate(); err != nil {
		return nil, err
	}
	scriptPath, sidePath, err := s.writeScript(plan)
	if err != nil {
		return nil, err
	}
	return &ScheduleResult{ScriptPath: scriptPath, SideFilePath: sidePath}, nil
}

func (s *Scheduler) writeScript(plan *SubmissionPlan) (scriptPath, sidePath string, err error) {
	if err := os.MkdirAll(plan.OutDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	scriptPath = filepath.Join(plan.OutDir, plan.Params.JobName+".sh")
	f, err := os.Create(scriptPath)
	if err != nil {
		return "", "", fmt.Errorf("create script: %w", err)
	}
	defer f.Close()

	if err := writeHeader(f, plan.OutDir, plan.Params); err != nil {
		return "", "", fmt.Errorf("write script header: %w", err)
	}

	if plan.Params.WorkerQueue {
		sidePath = filepath.Join(plan.OutDir, plan.Params.JobName+".cmds")
		if err := writeWorkerQueue(f, sidePath, plan); err != nil {
			return "", "", err
		}
	} else {
		if err := writeCoreCounting(f, plan); err != nil {
			return "", "", err
		}
	}

	if plan.Merge != nil {
		// The merge depends on every query artifact, so it runs after the
		// final barrier (or after the worker pool drains), unguarded.
		if _, err := fmt.Fprintln(f, strings.Join(plan.Merge.Tokens, " ")); err != nil {
			return "", "", fmt.Errorf("write merge command: %w", err)
		}
	}

	if err := f.Sync(); err != nil {
		return "", "", fmt.Errorf("flush script: %w", err)
	}
	return scriptPath, sidePath, nil
}

// writeCoreCounting emits every query command backgrounded, inserting a
// synchronization barrier each time the written-command count reaches
// barriers*CoreQuota. The same counter drives both the barrier placement
// and the next threshold, so thresholds advance as 1q, 2q, 3q, ... — an
// inherited quirk that downstream scripts rely on and that must not be
// replaced with a plain modulo. A final unconditional barrier closes the
// block.
func writeCoreCounting(f *os.File, plan *SubmissionPlan) error {
	written := 0
	barriers := 1
	for _, q := range plan.Queries {
		if _, err := fmt.Fprintln(f, strings.Join(q.Tokens, " ")+" &"); err != nil {
			return fmt.Errorf("write query command: %w", err)
		}
		written++
		if written == barriers*plan.Params.CoreQuota {
			if _, err := fmt.Fprintln(f, "wait"); err != nil {
				return fmt.Errorf("write barrier: %w", err)
			}
			barriers++
		}
	}
	if _, err := fmt.Fprintln(f, "wait"); err != nil {
		return fmt.Errorf("write final barrier: %w", err)
	}
	return nil
}

// writeWorkerQueue writes one line per query command into the side file —
// quote-escaped, with the leading program token stripped, in plan order —
// and a single worker-pool instruction into the script. The pool re-invokes
// the stripped program per line with CoreQuota workers; line order is
// preserved in the file, worker pickup order is not.
func writeWorkerQueue(f *os.File, sidePath string, plan *SubmissionPlan) error {
	side, err := os.Create(sidePath)
	if err != nil {
		return fmt.Errorf("create worker side file: %w", err)
	}
	defer side.Close()

	for _, q := range plan.Queries {
		line := strings.Join(command.StripProgram(command.EscapeQuotes(q.Tokens)), " ")
		if _, err := fmt.Fprintln(side, line); err != nil {
			return fmt.Errorf("write worker side file: %w", err)
		}
	}
	if err := side.Sync(); err != nil {
		return fmt.Errorf("flush worker side file: %w", err)
	}

	pool := fmt.Sprintf(`cat %s | xargs -d '\n' -P %d -I {} sh -c "%s {}"`,
		sidePath, plan.Params.CoreQuota, command.QueryTool)
	if _, err := fmt.Fprintln(f, pool); err != nil {
		return fmt.Errorf("write worker pool instruction: %w", err)
	}
	return nil
}
