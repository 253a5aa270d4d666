package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/export"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

// NewConvertCmd compiles buildings into serialized equipment graphs
// without running validation.
func NewConvertCmd(flags *rootFlags) *cobra.Command {
	var (
		metadataPath string
		varsPath     string
		buildings    []string
		system       string
		outputDir    string
		format       string
		mappingPath  string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Compile buildings into Brick graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyFlag(&cfg.Tables.Metadata, metadataPath)
			applyFlag(&cfg.Tables.Vars, varsPath)
			applyFlag(&cfg.Output.Dir, outputDir)
			applyFlag(&cfg.Output.Format, format)
			applyFlag(&cfg.Vocabulary.Mapping, mappingPath)
			applyFlag(&cfg.Batch.SystemFilter, system)

			outFormat, err := export.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}
			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}
			tables, err := loadTables(cfg)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			templates := templateRegistry()
			synth := compiler.NewSynthesizer(vocab, slog.Default())
			exporter := export.NewExporter()

			tags := buildings
			if len(tags) == 0 {
				tags = tables.Tags()
			}

			var compiled, failed int
			for _, tag := range tags {
				rec, row, err := tables.Pair(tag)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}
				if cfg.Batch.SystemFilter != "" &&
					template.Normalize(rec.System) != template.Normalize(cfg.Batch.SystemFilter) {
					continue
				}

				g, warnings, err := synth.Compile(rec, row, templates)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}
				for _, w := range warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning (%s): %s\n", tag, w.Code, w.Message)
				}

				serialized, err := exporter.Export(g, outFormat)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}
				name := export.FileName(rec.Tag, g.Family, rec.Org, outFormat)
				path := filepath.Join(cfg.Output.Dir, name)
				if err := os.WriteFile(path, []byte(serialized), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", tag, path)
				compiled++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d building(s), %d failed\n", compiled, failed)
			if failed > 0 {
				return fmt.Errorf("%d building(s) failed to compile", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Building metadata table (.csv or .xlsx)")
	cmd.Flags().StringVar(&varsPath, "vars", "", "Sensor availability table (.csv or .xlsx)")
	cmd.Flags().StringSliceVar(&buildings, "building", nil, "Compile only these building tags")
	cmd.Flags().StringVar(&system, "system", "", "Compile only buildings of this system family")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for serialized graphs")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Serialization format (turtle, ntriples, jsonld)")
	cmd.Flags().StringVar(&mappingPath, "sensor-mapping", "", "Sensor mapping YAML (default: built-in)")
	return cmd
}

// applyFlag overrides a config value with a flag value when set.
func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
