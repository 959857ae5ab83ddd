package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vcfsubset/internal/command"
	"vcfsubset/internal/submit"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ExecMode is the user-facing execution mode.
type ExecMode string

const (
	ExecModeShell  ExecMode = "shell"
	ExecModeSbatch ExecMode = "sbatch"
)

// Invocation is the fully canonicalized description of one run: raw flag
// values normalized, defaulted and validated before any engine logic sees
// them. Immutable once Canonicalize has accepted it.
type Invocation struct {
	Samples      []string
	RegistryPath string

	Regions  []string
	Include  string
	Exclude  string
	Genotype string

	Mode       ExecMode
	Account    string
	Email      string
	MailTypes  []string
	Cores      int
	TimeLimit  string
	QOS        string
	Activation []string

	WorkerQueue bool
	OutDir      string
	OutputType  string
	LogPath     string
	JobName     string
	Pipefail    bool
	ErrorTrap   bool
	DryRun      bool
}

// InvocationError is a validation failure in the CLI surface itself.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidf(format string, args ...any) error {
	return &InvocationError{Message: fmt.Sprintf(format, args...)}
}

// Canonical is the validated, engine-ready form of an Invocation.
type Canonical struct {
	Samples []string
	Options command.Options
	Mode    submit.Mode
	Params  submit.SchedulingParams
	OutDir  string
}

// Canonicalize validates the invocation and converts it into the typed
// options and scheduling parameters the engine consumes.
//
// Sample identifiers are deduplicated preserving first occurrence, so the
// resolver's partition laws hold even for sloppy requests. Scheduler-only
// requirements (the project account) are enforced here, before any command
// is built.
func (inv Invocation) Canonicalize() (*Canonical, error) {
	samples := dedupe(inv.Samples)
	if len(samples) == 0 {
		return nil, invalidf("at least one sample identifier is required")
	}
	if inv.RegistryPath == "" {
		return nil, invalidf("--registry is required")
	}
	if inv.OutDir == "" {
		return nil, invalidf("--outdir is required")
	}

	outputType, err := command.ParseOutputType(inv.OutputType)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	var mode submit.Mode
	switch inv.Mode {
	case ExecModeShell:
		mode = submit.ModeDirect
	case ExecModeSbatch:
		mode = submit.ModeScheduled
	default:
		return nil, invalidf("invalid --mode %q (expected shell|sbatch)", inv.Mode)
	}

	if inv.Email != "" && !plausibleEmail(inv.Email) {
		return nil, invalidf("invalid email address %q", inv.Email)
	}

	mailTypes := make([]submit.MailType, 0, len(inv.MailTypes))
	for _, raw := range inv.MailTypes {
		mt, err := submit.ParseMailType(raw)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		mailTypes = append(mailTypes, mt)
	}

	jobName := inv.JobName
	if jobName == "" {
		jobName = "vcfsubset_" + shortRunID()
	}

	params := submit.SchedulingParams{
		Account:     inv.Account,
		CoreQuota:   inv.Cores,
		TimeLimit:   inv.TimeLimit,
		QOS:         inv.QOS,
		JobName:     jobName,
		Email:       inv.Email,
		MailTypes:   mailTypes,
		Activation:  trimNonEmpty(inv.Activation),
		WorkerQueue: inv.WorkerQueue,
		Pipefail:    inv.Pipefail,
		ErrorTrap:   inv.ErrorTrap,
	}

	if mode == submit.ModeScheduled {
		if params.Account == "" {
			return nil, invalidf("--account is required in sbatch mode")
		}
		if params.CoreQuota < 1 {
			return nil, invalidf("--cores must be at least 1")
		}
		if params.TimeLimit == "" {
			return nil, invalidf("--time is required in sbatch mode")
		}
	}

	return &Canonical{
		Samples: samples,
		Options: command.Options{
			Regions:    trimNonEmpty(inv.Regions),
			Include:    inv.Include,
			Exclude:    inv.Exclude,
			Genotype:   inv.Genotype,
			OutputType: outputType,
			OutDir:     inv.OutDir,
		},
		Mode:   mode,
		Params: params,
		OutDir: inv.OutDir,
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// plausibleEmail is a syntax sanity check, not RFC validation: one @ with
// non-empty local part and a dotted domain.
func plausibleEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func shortRunID() string {
	return uuid.New().String()[:8]
}

// ExitCodeFor maps an error to the process exit code. Help and version are
// handled by the command frontend; everything that reaches here is either
// success or a failure reported as 1.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
