package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the released tool version, stamped at build time.
var Version = "1.1.0"

// NewRootCommand builds the vcfsubset command.
//
// Flag values flow through viper so defaults can come from a config file
// (--config) or the environment (VCFSUBSET_* variables); an explicit flag
// always wins.
func NewRootCommand() *cobra.Command {
	var configPath string
	var samplesFile string
	var inv Invocation

	v := viper.New()

	cmd := &cobra.Command{
		Use:   "vcfsubset",
		Short: "Extract sample subsets from registered VCF files, locally or via SLURM",
		Long: `vcfsubset resolves sample identifiers against a registry of VCF/BCF files,
builds one bcftools view command per backing file (plus a merge when several
files are involved), and either runs the commands directly or submits them
as a generated sbatch script.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return invalidf("unexpected positional arguments: %q", strings.Join(args, " "))
			}
			if configPath != "" {
				v.SetConfigFile(configPath)
				if err := v.ReadInConfig(); err != nil {
					return invalidf("read config: %v", err)
				}
			}

			// Fold viper-resolved values back into the invocation for
			// every flag the user did not set explicitly.
			applyDefaults(cmd, v, &inv)

			if samplesFile != "" {
				fromFile, err := readSamplesFile(samplesFile)
				if err != nil {
					return err
				}
				inv.Samples = append(inv.Samples, fromFile...)
			}

			return Execute(cmd.Context(), inv)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&inv.Samples, "sample", nil, "sample identifier to extract (repeatable)")
	fl.StringVar(&samplesFile, "samples-file", "", "file with one sample identifier per line")
	fl.StringVar(&inv.RegistryPath, "registry", "", "YAML registry mapping sample identifiers to VCF paths")
	fl.StringSliceVar(&inv.Regions, "region", nil, "region restriction, chrom or chrom:start-end (repeatable)")
	fl.StringVar(&inv.Include, "include", "", "bcftools include expression")
	fl.StringVar(&inv.Exclude, "exclude", "", "bcftools exclude expression (wins over --include)")
	fl.StringVar(&inv.Genotype, "genotype", "", "genotype filter, passed through verbatim (^ negates)")
	fl.StringVar((*string)(&inv.Mode), "mode", string(ExecModeShell), "execution mode: shell|sbatch")
	fl.StringVar(&inv.Account, "account", "", "scheduler project account (required for sbatch)")
	fl.StringVar(&inv.Email, "email", "", "notification address for scheduler mail")
	fl.StringSliceVar(&inv.MailTypes, "mail-type", nil, "notification events: BEGIN, END, FAIL (repeatable)")
	fl.IntVar(&inv.Cores, "cores", 1, "core quota: SBATCH core request and worker-pool size")
	fl.StringVar(&inv.TimeLimit, "time", "1:00:00", "wall-clock limit for the scheduler")
	fl.StringVar(&inv.QOS, "qos", "", "quality-of-service tier")
	fl.StringSliceVar(&inv.Activation, "activate", nil, "environment-activation command run before queries (repeatable)")
	fl.BoolVar(&inv.WorkerQueue, "worker-queue", false, "use the worker-pool strategy instead of barrier counting")
	fl.StringVar(&inv.OutDir, "outdir", "", "directory for extracted artifacts and generated scripts")
	fl.StringVar(&inv.OutputType, "output-type", "z", "output encoding: v|z|u|b")
	fl.StringVar(&inv.LogPath, "log", "", "log file path (console logging is always on)")
	fl.StringVar(&inv.JobName, "job-name", "", "scheduler job name (default: generated)")
	fl.BoolVar(&inv.Pipefail, "pipefail", true, "emit the pipe-failure-propagation directive")
	fl.BoolVar(&inv.ErrorTrap, "error-trap", true, "emit the error-trap block in the batch script")
	fl.BoolVar(&inv.DryRun, "dry-run", false, "write the batch script without submitting it")
	fl.StringVar(&configPath, "config", "", "YAML config file with flag defaults")

	v.SetEnvPrefix("VCFSUBSET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range []string{
		"registry", "mode", "account", "email", "cores", "time", "qos",
		"outdir", "output-type", "log", "job-name",
	} {
		_ = v.BindPFlag(name, fl.Lookup(name))
	}

	return cmd
}

// applyDefaults overrides zero-ish invocation fields with viper-resolved
// values for flags the user left unset.
func applyDefaults(cmd *cobra.Command, v *viper.Viper, inv *Invocation) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if !set("registry") && v.GetString("registry") != "" {
		inv.RegistryPath = v.GetString("registry")
	}
	if !set("mode") && v.GetString("mode") != "" {
		inv.Mode = ExecMode(v.GetString("mode"))
	}
	if !set("account") && v.GetString("account") != "" {
		inv.Account = v.GetString("account")
	}
	if !set("email") && v.GetString("email") != "" {
		inv.Email = v.GetString("email")
	}
	if !set("cores") && v.GetInt("cores") > 0 {
		inv.Cores = v.GetInt("cores")
	}
	if !set("time") && v.GetString("time") != "" {
		inv.TimeLimit = v.GetString("time")
	}
	if !set("qos") && v.GetString("qos") != "" {
		inv.QOS = v.GetString("qos")
	}
	if !set("outdir") && v.GetString("outdir") != "" {
		inv.OutDir = v.GetString("outdir")
	}
	if !set("output-type") && v.GetString("output-type") != "" {
		inv.OutputType = v.GetString("output-type")
	}
	if !set("log") && v.GetString("log") != "" {
		inv.LogPath = v.GetString("log")
	}
	if !set("job-name") && v.GetString("job-name") != "" {
		inv.JobName = v.GetString("job-name")
	}
}

// readSamplesFile reads one identifier per line; blank lines and #-comments
// are skipped.
func readSamplesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read samples file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read samples file: %w", err)
	}
	return ids, nil
}
