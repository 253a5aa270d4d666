package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/export"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/validation"
)

// NewValidateCmd recompiles buildings and runs the three validators
// against them. With --graph-dir the serialized graphs on disk feed the
// conformance checker instead of a fresh export.
func NewValidateCmd(flags *rootFlags) *cobra.Command {
	var (
		metadataPath string
		varsPath     string
		mappingPath  string
		buildings    []string
		graphDir     string
		graphPattern string
		ruleset      string
		checkerCmd   string
		checkerArgs  []string
		timeout      time.Duration
		reportDir    string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate compiled graphs against ground truth and patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyFlag(&cfg.Tables.Metadata, metadataPath)
			applyFlag(&cfg.Tables.Vars, varsPath)
			applyFlag(&cfg.Vocabulary.Mapping, mappingPath)
			applyFlag(&cfg.Conformance.Command, checkerCmd)
			applyFlag(&cfg.Conformance.Ruleset, ruleset)
			if len(checkerArgs) > 0 {
				cfg.Conformance.Args = checkerArgs
			}
			if timeout > 0 {
				cfg.Conformance.Timeout = timeout
			}

			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}
			tables, err := loadTables(cfg)
			if err != nil {
				return err
			}

			graphFiles := map[string]string{}
			if graphDir != "" {
				graphFiles, err = findGraphFiles(graphDir, graphPattern)
				if err != nil {
					return err
				}
			}

			tags := buildings
			if len(tags) == 0 && len(graphFiles) > 0 {
				for tag := range graphFiles {
					tags = append(tags, tag)
				}
			}
			if len(tags) == 0 {
				tags = tables.Tags()
			}

			var checker validation.ConformanceChecker
			if cfg.Conformance.Command != "" {
				checker = validation.NewCommandChecker(
					cfg.Conformance.Command, cfg.Conformance.Args, cfg.Conformance.Timeout, slog.Default())
			}

			templates := templateRegistry()
			synth := compiler.NewSynthesizer(vocab, slog.Default())
			calc := validation.NewCalculator(vocab, templates)
			validator := validation.NewValidator(checker, slog.Default())
			exporter := export.NewExporter()

			if reportDir != "" {
				if err := os.MkdirAll(reportDir, 0o755); err != nil {
					return fmt.Errorf("failed to create report dir: %w", err)
				}
			}

			var failed int
			for _, tag := range tags {
				rec, row, err := tables.Pair(tag)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}
				g, warnings, err := synth.Compile(rec, row, templates)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}
				gt, err := calc.Calculate(rec, row)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}

				serialized := ""
				if path, ok := graphFiles[tag]; ok {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", path, err)
					}
					serialized = string(data)
				} else {
					serialized, err = exporter.Export(g, export.FormatTurtle)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
						failed++
						continue
					}
				}

				report, err := validator.Validate(cmd.Context(), g, gt, serialized, cfg.Conformance.Ruleset, warnings)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", tag, err)
					failed++
					continue
				}

				printReportLine(cmd, report)
				if !report.Passed() {
					failed++
				}
				if reportDir != "" {
					if err := writeReport(reportDir, report); err != nil {
						return err
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d building(s) failed validation", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Building metadata table (.csv or .xlsx)")
	cmd.Flags().StringVar(&varsPath, "vars", "", "Sensor availability table (.csv or .xlsx)")
	cmd.Flags().StringVar(&mappingPath, "sensor-mapping", "", "Sensor mapping YAML (default: built-in)")
	cmd.Flags().StringSliceVar(&buildings, "building", nil, "Validate only these building tags")
	cmd.Flags().StringVar(&graphDir, "graph-dir", "", "Directory of previously serialized graphs")
	cmd.Flags().StringVar(&graphPattern, "graph-pattern", "building_*.*", "Glob for graph files under --graph-dir")
	cmd.Flags().StringVar(&ruleset, "ruleset", "", "Ruleset name passed to the conformance checker")
	cmd.Flags().StringVar(&checkerCmd, "conformance-command", "", "External conformance checker executable")
	cmd.Flags().StringSliceVar(&checkerArgs, "conformance-arg", nil, "Extra arguments for the conformance checker")
	cmd.Flags().DurationVar(&timeout, "conformance-timeout", 0, "Timeout per conformance invocation")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for per-building JSON reports")
	return cmd
}

// findGraphFiles globs graph files and indexes them by building tag.
// File names follow the building_<tag>_<family>[_<org>].<ext> layout.
func findGraphFiles(dir, pattern string) (map[string]string, error) {
	if pattern == "" {
		pattern = "building_*.*"
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("bad graph pattern %q: %w", pattern, err)
	}
	files := make(map[string]string, len(matches))
	for _, m := range matches {
		tag, ok := tagFromFileName(filepath.Base(m))
		if !ok {
			continue
		}
		files[tag] = filepath.Join(dir, m)
	}
	return files, nil
}

func tagFromFileName(name string) (string, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	rest, ok := strings.CutPrefix(name, "building_")
	if !ok {
		return "", false
	}
	tag, _, ok := strings.Cut(rest, "_")
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}

func printReportLine(cmd *cobra.Command, report validation.Report) {
	status := "PASS"
	if !report.Passed() {
		status = "FAIL"
	}
	pattern := string(report.Patterns.Matched)
	if pattern == "" {
		pattern = "none"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s): counts=%v pattern=%q conformance=%s warnings=%d\n",
		status, report.Tag, report.Family,
		report.Counts.OverallSuccess, pattern, report.Conformance.Status, len(report.Warnings))
}

func writeReport(dir string, report validation.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report for %s: %w", report.Tag, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("report_%s.json", report.Tag))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
