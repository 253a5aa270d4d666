package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

func row(tag string, roles ...string) source.AvailabilityRow {
	avail := make(map[string]bool, len(roles))
	for _, r := range roles {
		avail[r] = true
	}
	return source.AvailabilityRow{Tag: tag, Available: avail}
}

func intPtr(v int) *int { return &v }

func TestInferBoilerCount(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"numbered to 2", []string{"sup1", "ret1", "sup2", "ret2", "fire2"}, 2},
		{"highest index wins", []string{"sup1", "fire3"}, 3},
		{"unnumbered implies one", []string{"sup", "ret"}, 1},
		{"pressure roles imply one", []string{"supp", "retp"}, 1},
		{"no boiler roles", []string{"flow", "oat", "pmp1_pwr"}, 0},
		{"numbered beats unnumbered", []string{"sup", "sup2"}, 2},
		{"empty", nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferBoilerCount(row("x", tc.roles...)))
		})
	}
}

func TestInferPumpCount(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"numbered power", []string{"pmp1_pwr", "pmp2_pwr"}, 2},
		{"mixed signals", []string{"pmp1_spd", "pmp3_vfd"}, 3},
		{"generic only", []string{"pmp_spd"}, 1},
		{"generic plus numbered", []string{"pmp_spd", "pmp2_pwr"}, 2},
		{"none", []string{"sup1", "flow"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferPumpCount(row("x", tc.roles...)))
		})
	}
}

func TestInterpretResolvesFamily(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "105", System: "Non-Condensing"}
	res, err := Interpret(rec, row("105", "sup1", "ret1", "fire1", "sup2", "ret2", "fire2", "pmp1_pwr", "pmp2_pwr"), reg)
	require.NoError(t, err)
	assert.Equal(t, template.FamilyNonCondensing, res.Family)
	assert.Equal(t, 2, res.BoilerCount)
	assert.Equal(t, 2, res.PumpCount)
	assert.Empty(t, res.Warnings)
}

func TestInterpretUnsupportedSystem(t *testing.T) {
	reg := template.NewRegistry()
	_, err := Interpret(source.BuildingRecord{Tag: "9", System: "geothermal"}, row("9"), reg)
	assert.ErrorIs(t, err, template.ErrUnsupportedSystemType)
}

func TestInterpretTieBreakMaxWins(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "12", System: "boiler", BoilerCount: intPtr(2)}
	res, err := Interpret(rec, row("12", "sup1", "sup2", "sup3"), reg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.BoilerCount, "sensor-inferred 3 beats declared 2")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnCardinalityConflict, res.Warnings[0].Code)
	assert.Contains(t, res.Warnings[0].Message, "declared boiler count 2")
	assert.Contains(t, res.Warnings[0].Message, "inferred count 3")
}

func TestInterpretDeclaredBeatsLowerInference(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "13", System: "condensing", BoilerCount: intPtr(4)}
	res, err := Interpret(rec, row("13", "sup1", "ret1"), reg)
	require.NoError(t, err)
	assert.Equal(t, 4, res.BoilerCount)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnCardinalityConflict, res.Warnings[0].Code)
}

func TestInterpretAgreementNoWarning(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "14", System: "boiler", BoilerCount: intPtr(2)}
	res, err := Interpret(rec, row("14", "sup1", "sup2"), reg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BoilerCount)
	assert.Empty(t, res.Warnings)
}

func TestInterpretExplicitZeroBoilersWarns(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "15", System: "boiler", BoilerCount: intPtr(0)}
	res, err := Interpret(rec, row("15", "flow", "pmp1_pwr"), reg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.BoilerCount)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnZeroBoilerCount, res.Warnings[0].Code)
	assert.Contains(t, res.Warnings[0].Message, "manual verification")
}

func TestInterpretDistrictForcesZeroBoilers(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "20", System: "district steam", BoilerCount: intPtr(1)}
	res, err := Interpret(rec, row("20", "sup1", "ret1", "pmp1_pwr"), reg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.BoilerCount, "district families never get boilers")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnForbiddenEquipment, res.Warnings[0].Code)
}

func TestInterpretDistrictCleanRowNoWarning(t *testing.T) {
	reg := template.NewRegistry()
	rec := source.BuildingRecord{Tag: "108", System: "district hw", BoilerCount: intPtr(0)}
	res, err := Interpret(rec, row("108", "secondary_supply_temp", "secondary_return_temp", "secondary_flow", "pmp1_pwr"), reg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.BoilerCount)
	assert.Equal(t, 1, res.PumpCount)
	assert.Empty(t, res.Warnings)
}
