// Package batch compiles and validates many buildings concurrently. Each
// building is an isolated unit of work over the shared read-only template
// and vocabulary registries; one building's failure never aborts the run.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/export"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/validation"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// DefaultWorkers is the pool size when the caller does not set one.
const DefaultWorkers = 4

// Options tune one batch run.
type Options struct {
	// Workers is the fixed pool size; <=0 means DefaultWorkers.
	Workers int

	// Tags restricts the run to a subset of buildings. Empty means all.
	Tags []string

	// SystemFilter restricts the run to one family (normalized match).
	SystemFilter string

	// Format is the serialization format for compiled graphs.
	Format export.Format

	// OutputDir, when set, receives one serialized graph file per
	// building.
	OutputDir string

	// Ruleset is passed through to the conformance checker.
	Ruleset string
}

// Orchestrator wires the compile+validate pipeline for batch runs.
type Orchestrator struct {
	templates *template.Registry
	vocab     *vocabulary.Registry
	synth     *compiler.Synthesizer
	calc      *validation.Calculator
	validator *validation.Validator
	exporter  *export.Exporter
	nc        *nats.Conn
	metrics   *Metrics
	logger    *slog.Logger
}

// New creates an orchestrator. The checker, NATS connection, and metrics
// are optional; nil registries fall back to the defaults.
func New(vocab *vocabulary.Registry, templates *template.Registry, checker validation.ConformanceChecker, nc *nats.Conn, metrics *Metrics, logger *slog.Logger) *Orchestrator {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if templates == nil {
		templates = template.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		templates: templates,
		vocab:     vocab,
		synth:     compiler.NewSynthesizer(vocab, logger),
		calc:      validation.NewCalculator(vocab, templates),
		validator: validation.NewValidator(checker, logger),
		exporter:  export.NewExporter(),
		nc:        nc,
		metrics:   metrics,
		logger:    logger.With("component", "batch"),
	}
}

// Result aggregates a whole run. Statistics are completion-order
// independent; Reports are sorted by tag before the result is returned.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	CountsPassed       int `json:"counts_passed"`
	PatternsMatched    int `json:"patterns_matched"`
	ConformanceValid   int `json:"conformance_valid"`
	ConformanceInvalid int `json:"conformance_invalid"`
	ConformanceUnknown int `json:"conformance_unknown"`

	// OverallAccuracy is the mean per-building count accuracy, across
	// the four count categories, over succeeded buildings.
	OverallAccuracy float64 `json:"overall_accuracy"`

	BySystem map[string]int `json:"by_system"`

	Reports  []validation.Report      `json:"reports"`
	Failures []validation.UnitFailure `json:"failures,omitempty"`
}

type unitOutcome struct {
	report  *validation.Report
	failure *validation.UnitFailure
	family  string
}

// Run processes the selected buildings through compile, export, and all
// three validators. Cancelling the context stops dispatching new
// buildings; in-flight units finish and their results are kept.
func (o *Orchestrator) Run(ctx context.Context, tables *source.Tables, opts Options) (*Result, error) {
	if opts.Format == "" {
		opts.Format = export.FormatTurtle
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	tags := opts.Tags
	if len(tags) == 0 {
		tags = tables.Tags()
	}

	if o.metrics != nil {
		o.metrics.BatchesStarted.Inc()
	}

	result := &Result{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		BySystem:  make(map[string]int),
	}
	o.logger.Info("batch run started", "run_id", result.RunID, "buildings", len(tags), "workers", workers)

	tasks := make(chan string)
	outcomes := make(chan unitOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tag := range tasks {
				outcomes <- o.processUnit(ctx, tables, tag, opts)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, tag := range tags {
			if ctx.Err() != nil {
				o.logger.Warn("batch cancelled, stopping dispatch", "run_id", result.RunID)
				return
			}
			select {
			case <-ctx.Done():
				o.logger.Warn("batch cancelled, stopping dispatch", "run_id", result.RunID)
				return
			case tasks <- tag:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var accuracySum float64
	for out := range outcomes {
		if out.family == "" {
			// Unit filtered out by SystemFilter.
			continue
		}
		result.Total++
		result.BySystem[out.family]++
		if out.failure != nil {
			result.Failed++
			result.Failures = append(result.Failures, *out.failure)
			continue
		}
		r := *out.report
		result.Succeeded++
		result.Reports = append(result.Reports, r)
		if r.Counts.OverallSuccess {
			result.CountsPassed++
		}
		if r.Patterns.Matched != validation.PatternNone {
			result.PatternsMatched++
		}
		switch r.Conformance.Status {
		case validation.StatusValid:
			result.ConformanceValid++
		case validation.StatusInvalid:
			result.ConformanceInvalid++
		default:
			result.ConformanceUnknown++
		}
		accuracySum += (r.Counts.Points.Accuracy + r.Counts.Boilers.Accuracy +
			r.Counts.Pumps.Accuracy + r.Counts.WeatherStations.Accuracy) / 4
	}
	if result.Succeeded > 0 {
		result.OverallAccuracy = accuracySum / float64(result.Succeeded)
	}

	sort.Slice(result.Reports, func(i, j int) bool { return result.Reports[i].Tag < result.Reports[j].Tag })
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Tag < result.Failures[j].Tag })

	result.FinishedAt = time.Now().UTC()
	o.logger.Info("batch run finished",
		"run_id", result.RunID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"elapsed", result.FinishedAt.Sub(result.StartedAt))
	return result, nil
}

// processUnit runs one building end to end. Every fatal error becomes a
// UnitFailure; only filtered-out buildings return an empty outcome.
func (o *Orchestrator) processUnit(ctx context.Context, tables *source.Tables, tag string, opts Options) unitOutcome {
	start := time.Now()
	outcome := o.compileAndValidate(ctx, tables, tag, opts)
	if o.metrics != nil && outcome.family != "" {
		o.metrics.UnitDuration.Observe(time.Since(start).Seconds())
		status := "success"
		if outcome.failure != nil {
			status = "failure"
		}
		o.metrics.BuildingsProcessed.WithLabelValues(status).Inc()
	}
	return outcome
}

func (o *Orchestrator) compileAndValidate(ctx context.Context, tables *source.Tables, tag string, opts Options) unitOutcome {
	fail := func(family string, err error) unitOutcome {
		o.logger.Warn("building failed", "tag", tag, "error", err)
		return unitOutcome{failure: &validation.UnitFailure{Tag: tag, Err: err.Error()}, family: family}
	}

	rec, row, err := tables.Pair(tag)
	if err != nil {
		return fail("unknown", err)
	}
	if opts.SystemFilter != "" && template.Normalize(rec.System) != template.Normalize(opts.SystemFilter) {
		return unitOutcome{}
	}

	g, warnings, err := o.synth.Compile(rec, row, o.templates)
	if err != nil {
		return fail(template.Normalize(rec.System), err)
	}

	serialized, err := o.exporter.Export(g, opts.Format)
	if err != nil {
		return fail(g.Family, err)
	}
	if opts.OutputDir != "" {
		name := export.FileName(rec.Tag, g.Family, rec.Org, opts.Format)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte(serialized), 0o644); err != nil {
			return fail(g.Family, fmt.Errorf("failed to write graph: %w", err))
		}
	}
	if err := graph.PublishGraph(ctx, o.nc, g, string(opts.Format), serialized); err != nil {
		o.logger.Warn("graph publish failed", "tag", tag, "error", err)
	}

	gt, err := o.calc.Calculate(rec, row)
	if err != nil {
		return fail(g.Family, err)
	}

	report, err := o.validator.Validate(ctx, g, gt, serialized, opts.Ruleset, warnings)
	if err != nil {
		return fail(g.Family, err)
	}
	if err := graph.PublishReport(ctx, o.nc, report); err != nil {
		o.logger.Warn("report publish failed", "tag", tag, "error", err)
	}
	return unitOutcome{report: &report, family: g.Family}
}

// WriteSummary renders the human-readable run summary.
func (r *Result) WriteSummary(w io.Writer) error {
	var systems []string
	for s := range r.BySystem {
		systems = append(systems, s)
	}
	sort.Strings(systems)

	fmt.Fprintf(w, "Batch run %s\n", r.RunID)
	fmt.Fprintf(w, "Elapsed: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Buildings: %d total, %d succeeded, %d failed\n", r.Total, r.Succeeded, r.Failed)
	fmt.Fprintf(w, "Counts matched: %d/%d\n", r.CountsPassed, r.Succeeded)
	fmt.Fprintf(w, "Patterns matched: %d/%d\n", r.PatternsMatched, r.Succeeded)
	fmt.Fprintf(w, "Conformance: %d valid, %d invalid, %d unknown\n",
		r.ConformanceValid, r.ConformanceInvalid, r.ConformanceUnknown)
	fmt.Fprintf(w, "Overall count accuracy: %.1f%%\n", r.OverallAccuracy)
	fmt.Fprintln(w, "By system:")
	for _, s := range systems {
		fmt.Fprintf(w, "  %s: %d\n", s, r.BySystem[s])
	}
	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "Failures:")
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Tag, f.Err)
		}
	}
	return nil
}
