// Package registry maps sample identifiers to the data files that back them
// and resolves requested identifier sets into per-file groups.
package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry maps a sample identifier to the path of the VCF/BCF file holding
// its genotypes. Loaded once per run and read-only afterwards.
type Registry map[string]string

// Load reads a registry file. The format is a flat YAML mapping:
//
//	sample_a: /data/cohort1.vcf.gz
//	sample_b: /data/cohort1.vcf.gz
//	sample_c: /data/cohort2.vcf.gz
//
// Empty identifiers or paths are rejected so a malformed file fails at load
// time rather than surfacing later as an unresolvable command.
func Load(path string) (Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var reg Registry
	if err := yaml.Unmarshal(b, &reg); err != nil {
		return nil, fmt.Errorf("parse registry yaml: %w", err)
	}
	if len(reg) == 0 {
		return nil, fmt.Errorf("parse registry yaml: no entries")
	}
	for id, p := range reg {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("parse registry yaml: empty sample identifier")
		}
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("parse registry yaml: sample %q has empty path", id)
		}
	}
	return reg, nil
}
