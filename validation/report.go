package validation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
)

// Report is the terminal validation artifact for one building. It is
// assembled once per compile+validate run and never mutated afterwards.
type Report struct {
	ID          string             `json:"id"`
	Tag         string             `json:"tag"`
	Family      string             `json:"family"`
	Conformance ConformanceResult  `json:"conformance"`
	Counts      CountResult        `json:"counts"`
	Patterns    PatternResult      `json:"patterns"`
	Warnings    []compiler.Warning `json:"warnings,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Passed reports whether the graph cleared every decidable check. An
// unknown conformance verdict does not fail the report.
func (r Report) Passed() bool {
	return r.Conformance.Status != StatusInvalid &&
		r.Counts.OverallSuccess &&
		r.Patterns.Matched != PatternNone
}

// Validator runs the three checks for one building and assembles the
// report. The conformance checker is optional.
type Validator struct {
	checker ConformanceChecker
	logger  *slog.Logger
}

// NewValidator creates a validator. A nil checker downgrades conformance
// to StatusUnknown for every graph.
func NewValidator(checker ConformanceChecker, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{checker: checker, logger: logger.With("component", "validator")}
}

// Validate checks one graph against its ground truth record. Compile
// warnings are carried into the report alongside any pattern warnings.
func (v *Validator) Validate(ctx context.Context, g *graph.Graph, gt GroundTruthRecord, serialized, ruleset string, compileWarnings []compiler.Warning) (Report, error) {
	report := Report{
		ID:          uuid.New().String(),
		Tag:         g.Tag,
		Family:      g.Family,
		Warnings:    append([]compiler.Warning{}, compileWarnings...),
		GeneratedAt: time.Now().UTC(),
	}

	report.Conformance = v.checkConformance(ctx, g.Tag, serialized, ruleset)
	report.Counts = ValidateCounts(g, gt)

	patterns, err := ValidatePatterns(g)
	if err != nil {
		return Report{}, err
	}
	report.Patterns = patterns
	report.Warnings = append(report.Warnings, patterns.Warnings...)
	return report, nil
}

func (v *Validator) checkConformance(ctx context.Context, tag, serialized, ruleset string) ConformanceResult {
	if v.checker == nil {
		return ConformanceResult{Status: StatusUnknown}
	}
	res, err := v.checker.Check(ctx, serialized, ruleset)
	if err != nil {
		if !errors.Is(err, ErrConformanceUnavailable) {
			v.logger.Warn("conformance check errored", "tag", tag, "error", err)
		}
		return ConformanceResult{Status: StatusUnknown}
	}
	return res
}
