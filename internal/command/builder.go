package command

import (
	"path/filepath"
	"strings"

	"vcfsubset/internal/registry"
)

// QueryTool is the external program every built invocation targets.
const (
	QueryTool  = "bcftools"
	mergedStem = "merged"
)

// QueryCommand is one bcftools view invocation targeting a single backing
// file. Tokens is the full argv including shell redirection and the chained
// index step; it is immutable after construction.
type QueryCommand struct {
	Tokens   []string
	Path     string
	Artifact string
}

// MergeCommand combines the artifacts of all query commands.
type MergeCommand struct {
	Tokens   []string
	Artifact string
}

// ArtifactPath computes the output artifact name for a group: the group's
// identifiers joined by underscores plus the encoding extension, under the
// output directory. Downstream merge and index steps reference artifacts by
// this exact string, so the convention must not drift.
func ArtifactPath(outDir string, ids []string, t OutputType) string {
	return filepath.Join(outDir, strings.Join(ids, "_")+t.Ext())
}

// MergedArtifactPath is the fixed name of the combined artifact.
func MergedArtifactPath(outDir string, t OutputType) string {
	return filepath.Join(outDir, mergedStem+t.Ext())
}

// BuildQuery constructs the view invocation for one path group.
//
// Token order is fixed: tool, sample restriction, genotype filter, exclude
// or include expression, regions, output encoding, source path, redirection
// to the artifact, then the chained index invocation on that artifact.
//
// Filter expressions are split on whitespace and emitted token-per-word
// between literal quote tokens: the generated script line is re-tokenized
// by the consuming shell, and collapsing the expression into one token
// would change how bcftools receives it.
func BuildQuery(group registry.PathGroup, opts Options) QueryCommand {
	artifact := ArtifactPath(opts.OutDir, group.IDs, opts.OutputType)

	tokens := []string{QueryTool, "view"}
	tokens = append(tokens, "--samples", strings.Join(group.IDs, ","))

	if opts.Genotype != "" {
		tokens = append(tokens, "--genotype", opts.Genotype)
	}

	switch {
	case opts.Exclude != "":
		tokens = append(tokens, "--exclude")
		tokens = appendQuoted(tokens, opts.Exclude)
	case opts.Include != "":
		tokens = append(tokens, "--include")
		tokens = appendQuoted(tokens, opts.Include)
	}

	if len(opts.Regions) > 0 {
		tokens = append(tokens, "--regions", strings.Join(opts.Regions, ","))
	}

	tokens = append(tokens, "--output-type", string(opts.OutputType))
	tokens = append(tokens, group.Path)
	tokens = append(tokens, ">", artifact)
	tokens = append(tokens, "&&", QueryTool, "index", artifact)

	return QueryCommand{Tokens: tokens, Path: group.Path, Artifact: artifact}
}

// BuildMerge constructs the merge invocation over all group artifacts, in
// group order. Merging a single file is a no-op, so nil is returned when
// fewer than two groups were resolved; callers must skip merging entirely
// rather than run an identity merge.
func BuildMerge(groups []registry.PathGroup, opts Options) *MergeCommand {
	if len(groups) < 2 {
		return nil
	}

	merged := MergedArtifactPath(opts.OutDir, opts.OutputType)
	tokens := []string{QueryTool, "merge", "--output-type", string(opts.OutputType)}
	for _, g := range groups {
		tokens = append(tokens, ArtifactPath(opts.OutDir, g.IDs, opts.OutputType))
	}
	tokens = append(tokens, ">", merged)

	return &MergeCommand{Tokens: tokens, Artifact: merged}
}

// appendQuoted emits expr word-by-word between literal single-quote tokens.
func appendQuoted(tokens []string, expr string) []string {
	tokens = append(tokens, "'")
	tokens = append(tokens, strings.Fields(expr)...)
	return append(tokens, "'")
}

// EscapeQuotes returns a copy of tokens with embedded double quotes
// backslash-escaped so a token survives re-invocation inside a
// double-quoted sh -c string. The input slice is not modified.
func EscapeQuotes(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = strings.ReplaceAll(tok, `"`, `\"`)
	}
	return out
}

// StripProgram returns a copy of tokens without the leading program token.
// Used by the worker-queue strategy, where the program is supplied once by
// the worker invocation itself.
func StripProgram(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, len(tokens)-1)
	copy(out, tokens[1:])
	return out
}
