package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vcfsubset/internal/execx"
	"vcfsubset/internal/registry"
	"vcfsubset/internal/submit"
)

type fakeRunner struct {
	lines []string
	codes map[string]int
}

func (f *fakeRunner) Run(_ context.Context, line string) (*execx.Result, error) {
	f.lines = append(f.lines, line)
	return &execx.Result{ExitCode: f.codes[line]}, nil
}

type fakeChecker struct {
	missing map[string]bool
}

func (f *fakeChecker) Available(program string) error {
	if f.missing[program] {
		return fmt.Errorf("%s: not found", program)
	}
	return nil
}

type fakeSubmitter struct {
	scripts []string
}

func (f *fakeSubmitter) Submit(_ context.Context, scriptPath string) (string, error) {
	f.scripts = append(f.scripts, scriptPath)
	return "Submitted batch job 7", nil
}

func testDeps(r *fakeRunner, c *fakeChecker, s *fakeSubmitter) Deps {
	return Deps{Runner: r, Checker: c, Submitter: s, Console: &bytes.Buffer{}}
}

func writeTestRegistry(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "registry.yaml")
	content := "s1: a.vcf\ns2: a.vcf\ns3: b.vcf\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestExecuteShellModeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	inv := Invocation{
		Samples:      []string{"s1", "s2", "s3"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeShell,
		OutDir:       outDir,
		OutputType:   "z",
		Cores:        1,
		TimeLimit:    "1:00:00",
	}

	fr := &fakeRunner{}
	if err := ExecuteWith(context.Background(), inv, testDeps(fr, &fakeChecker{}, &fakeSubmitter{})); err != nil {
		t.Fatalf("ExecuteWith: %v", err)
	}

	// Two query commands (s1,s2 share a.vcf) plus one merge, in order.
	if len(fr.lines) != 3 {
		t.Fatalf("ran %d commands, want 3: %q", len(fr.lines), fr.lines)
	}
	if !strings.Contains(fr.lines[0], "--samples s1,s2") || !strings.Contains(fr.lines[0], "a.vcf") {
		t.Fatalf("first query = %q", fr.lines[0])
	}
	if !strings.Contains(fr.lines[1], "--samples s3") || !strings.Contains(fr.lines[1], "b.vcf") {
		t.Fatalf("second query = %q", fr.lines[1])
	}
	if !strings.Contains(fr.lines[2], "bcftools merge") {
		t.Fatalf("third command should merge: %q", fr.lines[2])
	}
	for _, artifact := range []string{"s1_s2.vcf.gz", "s3.vcf.gz"} {
		if !strings.Contains(fr.lines[2], filepath.Join(outDir, artifact)) {
			t.Fatalf("merge missing artifact %q: %q", artifact, fr.lines[2])
		}
	}

	if _, err := os.Stat(outDir); err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
}

func TestExecuteSingleGroupSkipsMerge(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Samples:      []string{"s1", "s2"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeShell,
		OutDir:       filepath.Join(dir, "out"),
		OutputType:   "v",
		Cores:        1,
		TimeLimit:    "1:00:00",
	}

	fr := &fakeRunner{}
	if err := ExecuteWith(context.Background(), inv, testDeps(fr, &fakeChecker{}, &fakeSubmitter{})); err != nil {
		t.Fatalf("ExecuteWith: %v", err)
	}
	if len(fr.lines) != 1 {
		t.Fatalf("expected single query without merge, got %q", fr.lines)
	}
}

func TestExecuteUnknownSampleIsFatal(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Samples:      []string{"s1", "ghost"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeShell,
		OutDir:       filepath.Join(dir, "out"),
		OutputType:   "z",
		Cores:        1,
		TimeLimit:    "1:00:00",
	}

	fr := &fakeRunner{}
	err := ExecuteWith(context.Background(), inv, testDeps(fr, &fakeChecker{}, &fakeSubmitter{}))
	if !errors.Is(err, registry.ErrUnknownIdentifier) {
		t.Fatalf("expected ErrUnknownIdentifier, got %v", err)
	}
	if len(fr.lines) != 0 {
		t.Fatalf("no command may run after a resolution failure: %q", fr.lines)
	}
}

func TestExecuteShellModeChecksQueryTool(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Samples:      []string{"s1"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeShell,
		OutDir:       filepath.Join(dir, "out"),
		OutputType:   "z",
		Cores:        1,
		TimeLimit:    "1:00:00",
	}

	checker := &fakeChecker{missing: map[string]bool{"bcftools": true}}
	err := ExecuteWith(context.Background(), inv, testDeps(&fakeRunner{}, checker, &fakeSubmitter{}))
	if !errors.Is(err, submit.ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable, got %v", err)
	}
}

func TestExecuteSbatchModeSubmitsScript(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	inv := Invocation{
		Samples:      []string{"s1", "s3"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeSbatch,
		Account:      "proj1",
		OutDir:       outDir,
		OutputType:   "b",
		Cores:        2,
		TimeLimit:    "4:00:00",
		JobName:      "subset_job",
	}

	fs := &fakeSubmitter{}
	fr := &fakeRunner{}
	if err := ExecuteWith(context.Background(), inv, testDeps(fr, &fakeChecker{}, fs)); err != nil {
		t.Fatalf("ExecuteWith: %v", err)
	}
	if len(fr.lines) != 0 {
		t.Fatalf("sbatch mode must not run commands in-process: %q", fr.lines)
	}
	if len(fs.scripts) != 1 {
		t.Fatalf("expected one submission, got %q", fs.scripts)
	}

	b, err := os.ReadFile(fs.scripts[0])
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	script := string(b)
	for _, want := range []string{"#SBATCH -A proj1", "#SBATCH -J subset_job", "bcftools view", "wait", "bcftools merge"} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestExecuteDryRunWritesWithoutSubmitting(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Samples:      []string{"s1"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeSbatch,
		Account:      "proj1",
		OutDir:       filepath.Join(dir, "out"),
		OutputType:   "z",
		Cores:        1,
		TimeLimit:    "1:00:00",
		JobName:      "dry",
		DryRun:       true,
	}

	fs := &fakeSubmitter{}
	// sbatch is deliberately missing; dry runs must not require it.
	checker := &fakeChecker{missing: map[string]bool{"sbatch": true}}
	if err := ExecuteWith(context.Background(), inv, testDeps(&fakeRunner{}, checker, fs)); err != nil {
		t.Fatalf("ExecuteWith: %v", err)
	}
	if len(fs.scripts) != 0 {
		t.Fatalf("dry run must not submit: %q", fs.scripts)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "dry.sh")); err != nil {
		t.Fatalf("script not written: %v", err)
	}
}

func TestExecuteContinuesPastCommandFailure(t *testing.T) {
	dir := t.TempDir()
	inv := Invocation{
		Samples:      []string{"s1", "s3"},
		RegistryPath: writeTestRegistry(t, dir),
		Mode:         ExecModeShell,
		OutDir:       filepath.Join(dir, "out"),
		OutputType:   "z",
		Cores:        1,
		TimeLimit:    "1:00:00",
	}

	fr := &fakeRunner{codes: map[string]int{}}
	deps := testDeps(fr, &fakeChecker{}, &fakeSubmitter{})

	// First pass to learn the exact lines, second pass with a scripted failure.
	if err := ExecuteWith(context.Background(), inv, deps); err != nil {
		t.Fatalf("ExecuteWith: %v", err)
	}
	failing := fr.lines[0]

	fr2 := &fakeRunner{codes: map[string]int{failing: 2}}
	if err := ExecuteWith(context.Background(), inv, testDeps(fr2, &fakeChecker{}, &fakeSubmitter{})); err != nil {
		t.Fatalf("command failure must not abort the run: %v", err)
	}
	if len(fr2.lines) != len(fr.lines) {
		t.Fatalf("expected all commands to run, got %d of %d", len(fr2.lines), len(fr.lines))
	}
}
