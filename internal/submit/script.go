package submit

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// writeHeader emits the fixed batch-script preamble.
//
// The instruction order is part of the external contract: shebang, pipefail
// directive, resource directives, notification directives, hostname echo,
// program-name capture, activation block, error trap. Downstream log
// scrapers match on these lines byte-for-byte, so nothing here may be
// reordered or reformatted.
func writeHeader(w io.Writer, outDir string, p SchedulingParams) error {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	if p.Pipefail {
		b.WriteString("set -o pipefail\n")
	}

	fmt.Fprintf(&b, "#SBATCH -A %s\n", p.Account)
	fmt.Fprintf(&b, "#SBATCH -n %d\n", p.CoreQuota)
	fmt.Fprintf(&b, "#SBATCH -t %s\n", p.TimeLimit)
	if p.QOS != "" {
		fmt.Fprintf(&b, "#SBATCH --qos=%s\n", p.QOS)
	}
	fmt.Fprintf(&b, "#SBATCH -J %s\n", p.JobName)
	fmt.Fprintf(&b, "#SBATCH -o %s\n", filepath.Join(outDir, p.JobName+".out"))
	fmt.Fprintf(&b, "#SBATCH -e %s\n", filepath.Join(outDir, p.JobName+".err"))

	if p.Email != "" {
		types := p.MailTypes
		if len(types) == 0 {
			types = []MailType{MailBegin, MailEnd, MailFail}
		}
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		fmt.Fprintf(&b, "#SBATCH --mail-type=%s\n", strings.Join(names, ","))
		fmt.Fprintf(&b, "#SBATCH --mail-user=%s\n", p.Email)
	}

	b.WriteString("\n")
	b.WriteString(`echo "Running on: $(hostname)"` + "\n")
	b.WriteString(`PROGNAME=$(basename "$0")` + "\n")

	if len(p.Activation) > 0 {
		b.WriteString("\n")
		for _, line := range p.Activation {
			b.WriteString(line + "\n")
		}
	}

	if p.ErrorTrap {
		b.WriteString("\n")
		b.WriteString("error_exit() {\n")
		b.WriteString(`    echo "${PROGNAME}: exit status ${1:-1}" >&2` + "\n")
		b.WriteString("    exit 1\n")
		b.WriteString("}\n")
		b.WriteString("trap 'error_exit $?' ERR\n")
	}

	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
