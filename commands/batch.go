package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/batch"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/config"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/export"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/storage"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/validation"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// NewBatchCmd runs the full compile+validate pipeline over every
// building, with a worker pool. With --watch the run repeats whenever
// the sensor mapping file changes on disk.
func NewBatchCmd(flags *rootFlags) *cobra.Command {
	var (
		metadataPath    string
		varsPath        string
		mappingPath     string
		outputDir       string
		format          string
		workers         int
		system          string
		natsURL         string
		checkerCmd      string
		checkerArgs     []string
		ruleset         string
		groundTruthPath string
		summaryPath     string
		warningsPath    string
		metricsAddr     string
		watch           bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compile and validate every building concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			applyFlag(&cfg.Tables.Metadata, metadataPath)
			applyFlag(&cfg.Tables.Vars, varsPath)
			applyFlag(&cfg.Vocabulary.Mapping, mappingPath)
			applyFlag(&cfg.Output.Dir, outputDir)
			applyFlag(&cfg.Output.Format, format)
			applyFlag(&cfg.Output.GroundTruth, groundTruthPath)
			applyFlag(&cfg.Output.Summary, summaryPath)
			applyFlag(&cfg.Output.Warnings, warningsPath)
			applyFlag(&cfg.Batch.SystemFilter, system)
			applyFlag(&cfg.NATS.URL, natsURL)
			applyFlag(&cfg.Conformance.Command, checkerCmd)
			applyFlag(&cfg.Conformance.Ruleset, ruleset)
			if len(checkerArgs) > 0 {
				cfg.Conformance.Args = checkerArgs
			}
			if workers > 0 {
				cfg.Batch.Workers = workers
			}
			if watch {
				cfg.Vocabulary.Watch = true
			}

			outFormat, err := export.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}
			tables, err := loadTables(cfg)
			if err != nil {
				return err
			}

			logger := slog.Default()

			var nc *nats.Conn
			if cfg.NATS.URL != "" {
				nc, err = nats.Connect(cfg.NATS.URL, nats.Name(appName))
				if err != nil {
					return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
				}
				defer nc.Drain()
				logger.Info("publishing to NATS", "url", cfg.NATS.URL)
			}

			var checker validation.ConformanceChecker
			if cfg.Conformance.Command != "" {
				checker = validation.NewCommandChecker(
					cfg.Conformance.Command, cfg.Conformance.Args, cfg.Conformance.Timeout, logger)
			}

			// A private registry unless metrics are actually served, so
			// repeated invocations never collide on the default one.
			var metrics *batch.Metrics
			if metricsAddr != "" {
				metrics = batch.NewMetrics(nil)
				go serveMetrics(metricsAddr, logger)
			} else {
				metrics = batch.NewMetrics(prometheus.NewRegistry())
			}

			opts := batch.Options{
				Workers:      cfg.Batch.Workers,
				SystemFilter: cfg.Batch.SystemFilter,
				Format:       outFormat,
				OutputDir:    cfg.Output.Dir,
				Ruleset:      cfg.Conformance.Ruleset,
			}

			runOnce := func(ctx context.Context, vocab *vocabulary.Registry) error {
				orch := batch.New(vocab, templateRegistry(), checker, nc, metrics, logger)
				res, err := orch.Run(ctx, tables, opts)
				if err != nil {
					return err
				}
				if err := writeRunArtifacts(cfg, vocab, tables, res); err != nil {
					return err
				}
				if nc != nil {
					persistReports(ctx, nc, res, logger)
				}
				if err := res.WriteSummary(cmd.OutOrStdout()); err != nil {
					return err
				}
				if res.Failed > 0 {
					return fmt.Errorf("%d building(s) failed", res.Failed)
				}
				return nil
			}

			vocab, err := loadVocabulary(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !cfg.Vocabulary.Watch || cfg.Vocabulary.Mapping == "" {
				return runOnce(ctx, vocab)
			}

			// Watch mode: rerun the whole batch each time the mapping
			// file reloads, until interrupted.
			reloads := make(chan *vocabulary.Registry, 1)
			watcher, err := vocabulary.NewWatcher(cfg.Vocabulary.Mapping, func(reg *vocabulary.Registry) {
				select {
				case reloads <- reg:
				default:
				}
			}, logger)
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}

			if err := runOnce(ctx, vocab); err != nil {
				logger.Warn("batch run failed", "error", err)
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case reg := <-reloads:
					if err := runOnce(ctx, reg); err != nil {
						logger.Warn("batch run failed", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Building metadata table (.csv or .xlsx)")
	cmd.Flags().StringVar(&varsPath, "vars", "", "Sensor availability table (.csv or .xlsx)")
	cmd.Flags().StringVar(&mappingPath, "sensor-mapping", "", "Sensor mapping YAML (default: built-in)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for serialized graphs")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Serialization format (turtle, ntriples, jsonld)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size")
	cmd.Flags().StringVar(&system, "system", "", "Process only buildings of this system family")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL for publishing graphs and reports")
	cmd.Flags().StringVar(&checkerCmd, "conformance-command", "", "External conformance checker executable")
	cmd.Flags().StringSliceVar(&checkerArgs, "conformance-arg", nil, "Extra arguments for the conformance checker")
	cmd.Flags().StringVar(&ruleset, "ruleset", "", "Ruleset name passed to the conformance checker")
	cmd.Flags().StringVar(&groundTruthPath, "ground-truth", "", "Ground truth CSV filename (relative to output dir)")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "Summary filename (relative to output dir)")
	cmd.Flags().StringVar(&warningsPath, "warnings", "", "Warnings listing filename (relative to output dir)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rerun when the sensor mapping file changes")
	return cmd
}

// writeRunArtifacts writes the optional ground truth CSV and summary
// file into the output directory.
func writeRunArtifacts(cfg *config.Config, vocab *vocabulary.Registry, tables *source.Tables, res *batch.Result) error {
	if cfg.Output.GroundTruth != "" {
		calc := validation.NewCalculator(vocab, templateRegistry())
		records, _ := calc.CalculateAll(tables)
		path := filepath.Join(cfg.Output.Dir, cfg.Output.GroundTruth)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := validation.WriteCSV(f, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if cfg.Output.Summary != "" {
		path := filepath.Join(cfg.Output.Dir, cfg.Output.Summary)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := res.WriteSummary(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if cfg.Output.Warnings != "" {
		path := filepath.Join(cfg.Output.Dir, cfg.Output.Warnings)
		var buf strings.Builder
		for _, report := range res.Reports {
			for _, w := range report.Warnings {
				fmt.Fprintf(&buf, "%s [%s] %s\n", report.Tag, w.Code, w.Message)
			}
		}
		if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// persistReports writes the run's reports to NATS KV so consumers can
// fetch the latest verdict per building. Storage failures are logged,
// never fatal.
func persistReports(ctx context.Context, nc *nats.Conn, res *batch.Result, logger *slog.Logger) {
	js, err := jetstream.New(nc)
	if err != nil {
		logger.Warn("report storage unavailable", "error", err)
		return
	}
	store, err := storage.NewStore(ctx, js)
	if err != nil {
		logger.Warn("report storage unavailable", "error", err)
		return
	}
	for _, report := range res.Reports {
		if err := store.PutReport(ctx, report); err != nil {
			logger.Warn("failed to store report", "tag", report.Tag, "error", err)
		}
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server stopped", "error", err)
	}
}
