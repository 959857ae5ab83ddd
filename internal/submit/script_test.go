package submit

import (
	"strings"
	"testing"
)

func baseParams() SchedulingParams {
	return SchedulingParams{
		Account:   "snic2024-1-100",
		CoreQuota: 4,
		TimeLimit: "2:00:00",
		QOS:       "short",
		JobName:   "subset_abc123",
		Email:     "user@example.org",
		MailTypes: []MailType{MailBegin, MailFail},
		Activation: []string{
			"module load bioinfo-tools bcftools",
		},
		Pipefail:  true,
		ErrorTrap: true,
	}
}

func TestWriteHeaderFixedOrder(t *testing.T) {
	var b strings.Builder
	if err := writeHeader(&b, "out", baseParams()); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	// The header is an external contract; assert the exact line sequence.
	want := []string{
		"#!/bin/bash",
		"set -o pipefail",
		"#SBATCH -A snic2024-1-100",
		"#SBATCH -n 4",
		"#SBATCH -t 2:00:00",
		"#SBATCH --qos=short",
		"#SBATCH -J subset_abc123",
		"#SBATCH -o out/subset_abc123.out",
		"#SBATCH -e out/subset_abc123.err",
		"#SBATCH --mail-type=BEGIN,FAIL",
		"#SBATCH --mail-user=user@example.org",
		"",
		`echo "Running on: $(hostname)"`,
		`PROGNAME=$(basename "$0")`,
		"",
		"module load bioinfo-tools bcftools",
		"",
		"error_exit() {",
		`    echo "${PROGNAME}: exit status ${1:-1}" >&2`,
		"    exit 1",
		"}",
		"trap 'error_exit $?' ERR",
		"",
	}
	got := strings.Split(b.String(), "\n")
	// Trailing newline yields one empty final element.
	if got[len(got)-1] == "" {
		got = got[:len(got)-1]
	}
	if len(got) != len(want) {
		t.Fatalf("header has %d lines, want %d:\n%s", len(got), len(want), b.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteHeaderOmitsOptionalDirectives(t *testing.T) {
	p := baseParams()
	p.QOS = ""
	p.Email = ""
	p.Activation = nil
	p.Pipefail = false
	p.ErrorTrap = false

	var b strings.Builder
	if err := writeHeader(&b, "out", p); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	out := b.String()
	for _, absent := range []string{"pipefail", "--qos", "--mail-type", "--mail-user", "error_exit", "trap"} {
		if strings.Contains(out, absent) {
			t.Fatalf("header should not contain %q:\n%s", absent, out)
		}
	}
	for _, present := range []string{"#!/bin/bash", "#SBATCH -A", "Running on", "PROGNAME"} {
		if !strings.Contains(out, present) {
			t.Fatalf("header missing %q:\n%s", present, out)
		}
	}
}

func TestWriteHeaderDefaultsMailTypes(t *testing.T) {
	p := baseParams()
	p.MailTypes = nil

	var b strings.Builder
	if err := writeHeader(&b, "out", p); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if !strings.Contains(b.String(), "#SBATCH --mail-type=BEGIN,END,FAIL") {
		t.Fatalf("expected default mail types:\n%s", b.String())
	}
}

func TestParseMailType(t *testing.T) {
	cases := map[string]MailType{
		"begin": MailBegin,
		"END":   MailEnd,
		" fail": MailFail,
	}
	for raw, want := range cases {
		got, err := ParseMailType(raw)
		if err != nil {
			t.Fatalf("ParseMailType(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseMailType(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseMailType("always"); err == nil {
		t.Fatal("expected error for unknown mail type")
	}
}
