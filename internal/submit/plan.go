// Package submit turns built commands into running work: either executing
// them directly in-process, or writing a SLURM batch script and handing it
// to sbatch.
package submit

import (
	"errors"
	"fmt"
	"strings"

	"vcfsubset/internal/command"
)

// Mode selects how a SubmissionPlan is dispatched.
type Mode string

const (
	// ModeDirect runs every command synchronously in the invoking process.
	ModeDirect Mode = "direct"
	// ModeScheduled writes a batch script and submits it to the scheduler.
	ModeScheduled Mode = "scheduled"
)

// ErrMissingOption marks a required scheduling option that was not supplied.
var ErrMissingOption = errors.New("missing required option")

// MissingOptionError names the absent option.
type MissingOptionError struct {
	Option string
}

func (e *MissingOptionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", ErrMissingOption.Error(), e.Option)
}

func (e *MissingOptionError) Unwrap() error { return ErrMissingOption }

// ErrToolUnavailable marks a required external program that cannot be located.
var ErrToolUnavailable = errors.New("required external tool unavailable")

// ToolUnavailableError names the missing program.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", ErrToolUnavailable.Error(), e.Tool)
}

func (e *ToolUnavailableError) Unwrap() error { return ErrToolUnavailable }

// MailType is a scheduler notification event.
type MailType string

const (
	MailBegin MailType = "BEGIN"
	MailEnd   MailType = "END"
	MailFail  MailType = "FAIL"
)

// ParseMailType validates a notification event name, case-insensitively.
func ParseMailType(raw string) (MailType, error) {
	switch MailType(strings.ToUpper(strings.TrimSpace(raw))) {
	case MailBegin:
		return MailBegin, nil
	case MailEnd:
		return MailEnd, nil
	case MailFail:
		return MailFail, nil
	default:
		return "", fmt.Errorf("invalid mail type %q (expected BEGIN|END|FAIL)", raw)
	}
}

// SchedulingParams carries everything the batch script header and the two
// parallelization strategies need. CoreQuota doubles as the SBATCH core
// request and the worker-pool bound.
type SchedulingParams struct {
	Account   string
	CoreQuota int
	TimeLimit string
	QOS       string
	JobName   string

	Email     string
	MailTypes []MailType

	// Activation holds verbatim environment-activation command lines
	// (e.g. "conda activate cohort-tools"), run before any query command.
	Activation []string

	WorkerQueue bool
	Pipefail    bool
	ErrorTrap   bool
}

func (p SchedulingParams) validate() error {
	if p.Account == "" {
		return &MissingOptionError{Option: "account"}
	}
	if p.JobName == "" {
		return &MissingOptionError{Option: "job name"}
	}
	if p.CoreQuota < 1 {
		return &MissingOptionError{Option: "core quota"}
	}
	if p.TimeLimit == "" {
		return &MissingOptionError{Option: "time limit"}
	}
	return nil
}

// SubmissionPlan is the one-shot description of a run: all built commands,
// the dispatch mode and the scheduling parameters. Built once, read-only
// afterwards, consumed exactly once.
type SubmissionPlan struct {
	Queries []command.QueryCommand
	Merge   *command.MergeCommand
	Mode    Mode
	Params  SchedulingParams
	OutDir  string
}
