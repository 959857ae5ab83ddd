// Package command builds the external bcftools invocations for a resolved
// sample request: one view command per backing file and, when more than one
// file is involved, a single merge command over the per-file artifacts.
package command

import (
	"errors"
	"fmt"
)

// ErrUnknownOutputType marks an output encoding tag outside the accepted set.
var ErrUnknownOutputType = errors.New("unknown output type")

// OutputType is the bcftools output encoding tag.
type OutputType string

const (
	OutputVCF             OutputType = "v"
	OutputCompressedVCF   OutputType = "z"
	OutputUncompressedBCF OutputType = "u"
	OutputBCF             OutputType = "b"
)

// ParseOutputType validates an encoding tag against the fixed set.
func ParseOutputType(tag string) (OutputType, error) {
	switch OutputType(tag) {
	case OutputVCF, OutputCompressedVCF, OutputUncompressedBCF, OutputBCF:
		return OutputType(tag), nil
	default:
		return "", fmt.Errorf("%w %q (expected v|z|u|b)", ErrUnknownOutputType, tag)
	}
}

// Ext returns the artifact filename extension for the encoding.
func (t OutputType) Ext() string {
	switch t {
	case OutputVCF:
		return ".vcf"
	case OutputCompressedVCF:
		return ".vcf.gz"
	case OutputUncompressedBCF:
		return ".uncompressed.bcf"
	case OutputBCF:
		return ".bcf"
	default:
		return ""
	}
}

// Options carries the filter, region and output settings applied to every
// built command of one run.
//
// Include and Exclude are mutually exclusive by precedence, not by error:
// when both are supplied, Exclude wins and Include is ignored. Genotype is
// passed through verbatim (a leading ^ negates it on the bcftools side; we
// do not interpret it).
type Options struct {
	Regions    []string
	Include    string
	Exclude    string
	Genotype   string
	OutputType OutputType
	OutDir     string
}
