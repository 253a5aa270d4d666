package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

func compileGraph(t *testing.T, rec source.BuildingRecord, avail source.AvailabilityRow) *graph.Graph {
	t.Helper()
	g, _, err := compiler.NewSynthesizer(nil, nil).Compile(rec, avail, template.NewRegistry())
	require.NoError(t, err)
	return g
}

func TestBoilerPatternMatches(t *testing.T) {
	g := compileGraph(t,
		source.BuildingRecord{Tag: "105", System: "non-condensing"},
		row("105", "sup1", "ret1", "sup2", "ret2", "pmp1_pwr"))

	res, err := ValidatePatterns(g)
	require.NoError(t, err)

	assert.Equal(t, PatternBoilerSystem, res.Matched)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Boiler.HasBoiler)
	assert.True(t, res.Boiler.LoopFedByBoiler)
	assert.True(t, res.Boiler.ExchangerBridges)
	assert.True(t, res.Boiler.PrimaryLoopPump)
	assert.True(t, res.Boiler.SecondaryLoopPump)
	assert.False(t, res.District.Matched(), "district pattern must not match a boiler plant")
	assert.False(t, res.District.NoBoilers)
}

func TestDistrictPatternMatches(t *testing.T) {
	g := compileGraph(t,
		source.BuildingRecord{Tag: "108", System: "district hw", BoilerCount: intPtr(0)},
		row("108", "secondary_supply_temp", "secondary_flow", "pmp1_pwr"))

	res, err := ValidatePatterns(g)
	require.NoError(t, err)

	assert.Equal(t, PatternDistrictSystem, res.Matched)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.District.ConnectionFeedsExchanger)
	assert.True(t, res.District.ExchangerFeedsLoop)
	assert.True(t, res.District.HasPump)
	assert.True(t, res.District.NoBoilers)
	assert.True(t, res.District.NoPrimaryLoop)
	assert.False(t, res.Boiler.Matched())
}

func TestDistrictSteamPatternMatches(t *testing.T) {
	g := compileGraph(t,
		source.BuildingRecord{Tag: "109", System: "district steam"},
		row("109", "secondary_return_temp"))

	res, err := ValidatePatterns(g)
	require.NoError(t, err)
	assert.Equal(t, PatternDistrictSystem, res.Matched)
}

// A boiler node with no feeds edges is a synthesis defect: neither
// pattern may match, and the mismatch must be surfaced.
func TestDanglingBoilerMatchesNeither(t *testing.T) {
	g := graph.New("66", "boiler")
	require.NoError(t, g.AddNode(graph.Node{ID: "building66", Kind: graph.KindBuilding, Class: vocabulary.ClassBuilding}))
	require.NoError(t, g.AddNode(graph.Node{ID: "building66.boiler1", Kind: graph.KindEquipment, Class: vocabulary.ClassNaturalGasBoiler}))
	require.NoError(t, g.AddNode(graph.Node{ID: "building66.hws.secondary_loop", Kind: graph.KindEquipment, Class: vocabulary.ClassHotWaterLoop}))

	res, err := ValidatePatterns(g)
	require.NoError(t, err)

	assert.Equal(t, PatternNone, res.Matched)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, compiler.WarnPatternMismatch, res.Warnings[0].Code)
	assert.True(t, res.Boiler.HasBoiler)
	assert.False(t, res.Boiler.LoopFedByBoiler)
	assert.False(t, res.District.NoBoilers)
}

func TestEmptyGraphMatchesNeither(t *testing.T) {
	g := graph.New("0", "boiler")
	require.NoError(t, g.AddNode(graph.Node{ID: "building0", Kind: graph.KindBuilding, Class: vocabulary.ClassBuilding}))

	res, err := ValidatePatterns(g)
	require.NoError(t, err)
	assert.Equal(t, PatternNone, res.Matched)
	require.Len(t, res.Warnings, 1)
}

// Every district-family compile must refuse the boiler pattern.
func TestFamilyExclusion(t *testing.T) {
	for _, system := range []string{"district hw", "district steam"} {
		g := compileGraph(t,
			source.BuildingRecord{Tag: "42", System: system, BoilerCount: intPtr(1)},
			row("42", "sup1", "ret1", "pmp1_pwr"))

		assert.Equal(t, 0, g.CountClass(vocabulary.ClassBoiler))
		res, err := ValidatePatterns(g)
		require.NoError(t, err)
		assert.NotEqual(t, PatternBoilerSystem, res.Matched, "system %s", system)
		assert.Equal(t, PatternDistrictSystem, res.Matched, "system %s", system)
	}
}
