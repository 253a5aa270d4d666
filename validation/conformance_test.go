package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

func TestCommandCheckerValidVerdict(t *testing.T) {
	checker := NewCommandChecker("sh", []string{"-c", `echo '{"valid": true, "violations": []}' #`}, time.Second, nil)
	res, err := checker.Check(context.Background(), "@prefix brick: <x> .", "")
	require.NoError(t, err)
	assert.Equal(t, StatusValid, res.Status)
	assert.Empty(t, res.Violations)
}

func TestCommandCheckerInvalidVerdict(t *testing.T) {
	checker := NewCommandChecker("sh", []string{"-c", `echo '{"valid": false, "violations": ["missing hasUnit"]}' #`}, time.Second, nil)
	res, err := checker.Check(context.Background(), "graph", "brick-1.3")
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, []string{"missing hasUnit"}, res.Violations)
}

func TestCommandCheckerUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
	}{
		{"no command", "", nil},
		{"missing binary", "definitely-not-a-real-binary-xyz", nil},
		{"nonzero exit", "sh", []string{"-c", "exit 3 #"}},
		{"garbage output", "sh", []string{"-c", "echo not-json #"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := NewCommandChecker(tc.command, tc.args, time.Second, nil)
			res, err := checker.Check(context.Background(), "graph", "")
			assert.ErrorIs(t, err, ErrConformanceUnavailable)
			assert.Equal(t, StatusUnknown, res.Status, "unavailable is unknown, never invalid")
		})
	}
}

func TestValidatorAssemblesReport(t *testing.T) {
	templates := template.NewRegistry()
	synth := compiler.NewSynthesizer(nil, nil)
	calc := NewCalculator(nil, nil)

	rec := source.BuildingRecord{Tag: "105", System: "condensing"}
	avail := row("105", "sup1", "ret1", "sup2", "ret2", "pmp1_pwr")

	g, warnings, err := synth.Compile(rec, avail, templates)
	require.NoError(t, err)
	gt, err := calc.Calculate(rec, avail)
	require.NoError(t, err)

	checker := CheckerFunc(func(ctx context.Context, serialized, ruleset string) (ConformanceResult, error) {
		return ConformanceResult{Status: StatusValid}, nil
	})

	report, err := NewValidator(checker, nil).Validate(context.Background(), g, gt, "serialized", "", warnings)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "105", report.Tag)
	assert.Equal(t, "condensing", report.Family)
	assert.Equal(t, StatusValid, report.Conformance.Status)
	assert.True(t, report.Counts.OverallSuccess)
	assert.Equal(t, PatternBoilerSystem, report.Patterns.Matched)
	assert.True(t, report.Passed())
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestValidatorNilCheckerIsUnknown(t *testing.T) {
	templates := template.NewRegistry()
	synth := compiler.NewSynthesizer(nil, nil)
	calc := NewCalculator(nil, nil)

	rec := source.BuildingRecord{Tag: "7", System: "boiler"}
	avail := row("7", "sup", "ret")
	g, warnings, err := synth.Compile(rec, avail, templates)
	require.NoError(t, err)
	gt, err := calc.Calculate(rec, avail)
	require.NoError(t, err)

	report, err := NewValidator(nil, nil).Validate(context.Background(), g, gt, "", "", warnings)
	require.NoError(t, err)

	assert.Equal(t, StatusUnknown, report.Conformance.Status)
	assert.True(t, report.Passed(), "unknown conformance must not fail the report")
}

func TestValidatorInvalidConformanceFails(t *testing.T) {
	templates := template.NewRegistry()
	synth := compiler.NewSynthesizer(nil, nil)
	calc := NewCalculator(nil, nil)

	rec := source.BuildingRecord{Tag: "8", System: "boiler"}
	avail := row("8", "sup")
	g, warnings, err := synth.Compile(rec, avail, templates)
	require.NoError(t, err)
	gt, err := calc.Calculate(rec, avail)
	require.NoError(t, err)

	checker := CheckerFunc(func(ctx context.Context, serialized, ruleset string) (ConformanceResult, error) {
		return ConformanceResult{Status: StatusInvalid, Violations: []string{"bad class"}}, nil
	})

	report, err := NewValidator(checker, nil).Validate(context.Background(), g, gt, "", "", warnings)
	require.NoError(t, err)
	assert.False(t, report.Passed())
}
