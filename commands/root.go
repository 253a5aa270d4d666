// Package commands builds the hhwbrick CLI. Each subcommand compiles
// and/or validates heating hot water system graphs from the two input
// tables.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/config"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

const appName = "hhwbrick"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the CLI root with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compile heating hot water system graphs from sensor tables",
		Long: `hhwbrick turns per-building sensor availability tables into typed
Brick equipment graphs and validates them against an independently
computed ground truth.

Inputs are two tables: building metadata (system family, boiler count,
design temperatures) and sensor availability (which roles each building
reports). Outputs are serialized RDF graphs plus validation reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		NewConvertCmd(flags),
		NewGroundTruthCmd(flags),
		NewValidateCmd(flags),
		NewBatchCmd(flags),
		newVersionCmd(version),
	)
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	}
}

// loadConfig resolves the effective config: an explicit --config file, or
// the layered user and project configs.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configPath != "" {
		cfg, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.NewLoader(slog.Default()).Load()
}

// loadVocabulary loads the sensor mapping named by the config, or the
// built-in mapping when none is configured.
func loadVocabulary(cfg *config.Config) (*vocabulary.Registry, error) {
	if cfg.Vocabulary.Mapping == "" {
		return vocabulary.Default(), nil
	}
	return vocabulary.Load(cfg.Vocabulary.Mapping)
}

// loadTables loads the two input tables named by the config.
func loadTables(cfg *config.Config) (*source.Tables, error) {
	if cfg.Tables.Metadata == "" || cfg.Tables.Vars == "" {
		return nil, fmt.Errorf("both metadata and availability table paths are required (--metadata/--vars or config)")
	}
	return source.LoadTables(cfg.Tables.Metadata, cfg.Tables.Vars)
}

// templateRegistry is shared; the set of system families is fixed.
func templateRegistry() *template.Registry {
	return template.NewRegistry()
}
