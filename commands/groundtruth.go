package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/validation"
)

// NewGroundTruthCmd computes ground truth records from the input tables
// and writes them as CSV.
func NewGroundTruthCmd(flags *rootFlags) *cobra.Command {
	var (
		metadataPath string
		varsPath     string
		mappingPath  string
		outputPath   string
		showStats    bool
	)

	cmd := &cobra.Command{
		Use:   "groundtruth",
		Short: "Compute expected equipment and point counts per building",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyFlag(&cfg.Tables.Metadata, metadataPath)
			applyFlag(&cfg.Tables.Vars, varsPath)
			applyFlag(&cfg.Vocabulary.Mapping, mappingPath)

			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}
			tables, err := loadTables(cfg)
			if err != nil {
				return err
			}

			calc := validation.NewCalculator(vocab, templateRegistry())
			records, failures := calc.CalculateAll(tables)

			var out io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outputPath, err)
				}
				defer f.Close()
				out = f
			}
			if err := validation.WriteCSV(out, records); err != nil {
				return err
			}

			for _, f := range failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Tag, f.Err)
			}

			if showStats {
				printStatistics(cmd.ErrOrStderr(), validation.Summarize(records))
			}
			if len(failures) > 0 {
				return fmt.Errorf("%d building(s) could not be processed", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Building metadata table (.csv or .xlsx)")
	cmd.Flags().StringVar(&varsPath, "vars", "", "Sensor availability table (.csv or .xlsx)")
	cmd.Flags().StringVar(&mappingPath, "sensor-mapping", "", "Sensor mapping YAML (default: built-in)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV output path (default: stdout)")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print summary statistics to stderr")
	return cmd
}

func printStatistics(w io.Writer, stats validation.Statistics) {
	fmt.Fprintf(w, "Buildings: %d\n", stats.Buildings)
	fmt.Fprintf(w, "Points: %d, boilers: %d, pumps: %d, weather stations: %d\n",
		stats.TotalPoints, stats.TotalBoilers, stats.TotalPumps, stats.WeatherStations)
	systems := make([]string, 0, len(stats.BySystem))
	for s := range stats.BySystem {
		systems = append(systems, s)
	}
	sort.Strings(systems)
	for _, s := range systems {
		fmt.Fprintf(w, "  %s: %d\n", s, stats.BySystem[s])
	}
}
