package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	rec := source.BuildingRecord{Tag: "105", System: "condensing"}
	avail := source.AvailabilityRow{Tag: "105", Available: map[string]bool{
		"sup1": true, "ret1": true, "sup2": true, "pmp1_pwr": true, "oat": true,
	}}
	g, _, err := compiler.NewSynthesizer(nil, nil).Compile(rec, avail, template.NewRegistry())
	require.NoError(t, err)
	return g
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"turtle", FormatTurtle, true},
		{"TTL", FormatTurtle, true},
		{"nt", FormatNTriples, true},
		{"n-triples", FormatNTriples, true},
		{"json-ld", FormatJSONLD, true},
		{"xml", "", false},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestExportTurtle(t *testing.T) {
	out, err := NewExporter().Export(sampleGraph(t), FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, out, "@prefix brick: <https://brickschema.org/schema/Brick#> .")
	assert.Contains(t, out, "@prefix hhws: ")

	// Custom classes are declared up front.
	assert.Contains(t, out, "hhws:Firing_Rate_Sensor")
	assert.Contains(t, out, "rdfs:subClassOf brick:Sensor")

	assert.Contains(t, out, "bldg:building105")
	assert.Contains(t, out, "a rec:Building")
	assert.Contains(t, out, "a brick:Condensing_Natural_Gas_Boiler")
	assert.Contains(t, out, "brick:hasPart bldg:building105.boiler1")
	assert.Contains(t, out, "brick:hasPoint bldg:building105.boiler1.sup1")
	assert.Contains(t, out, "brick:hasUnit unit:DEG_C")
	assert.Contains(t, out, `ref:hasTimeseriesId "sup1"`)
	assert.Contains(t, out, `ref:storedAt "105hhw_system_data.csv"`)
	assert.Contains(t, out, `rdfs:label "Building 105"`)
}

func TestExportNTriples(t *testing.T) {
	out, err := NewExporter().Export(sampleGraph(t), FormatNTriples)
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.HasSuffix(line, " ."), "line %q must end with a dot", line)
		assert.True(t, strings.HasPrefix(line, "<") || strings.HasPrefix(line, "_:"),
			"line %q must start with an IRI or blank node", line)
	}

	assert.Contains(t, out,
		"<https://hhws.buildings.lbl.gov/building#building105> "+
			"<http://www.w3.org/1999/02/22-rdf-syntax-ns#type> "+
			"<https://w3id.org/rec#Building> .")
	assert.NotContains(t, out, "bldg:", "N-Triples must expand every curie")
}

func TestExportJSONLDIsValidJSON(t *testing.T) {
	out, err := NewExporter().Export(sampleGraph(t), FormatJSONLD)
	require.NoError(t, err)

	var doc struct {
		Context map[string]string `json:"@context"`
		Graph   []map[string]any  `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc.Context, "brick")
	assert.NotEmpty(t, doc.Graph)

	var foundBuilding bool
	for _, node := range doc.Graph {
		if node["@id"] == "bldg:building105" {
			foundBuilding = true
			assert.Equal(t, "rec:Building", node["@type"])
		}
	}
	assert.True(t, foundBuilding)
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := NewExporter().Export(sampleGraph(t), Format("rdfxml"))
	assert.Error(t, err)
}

func TestExportDeterministic(t *testing.T) {
	e := NewExporter()
	g := sampleGraph(t)
	out1, err := e.Export(g, FormatTurtle)
	require.NoError(t, err)
	out2, err := e.Export(g, FormatTurtle)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		tag, family, org string
		format           Format
		want             string
	}{
		{"105", "non-condensing", "acme", FormatTurtle, "building_105_non_condensing_acme.ttl"},
		{"108", "district hw", "lbl", FormatNTriples, "building_108_district_hw_lbl.nt"},
		{"7", "boiler", "", FormatJSONLD, "building_7_boiler.jsonld"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FileName(tc.tag, tc.family, tc.org, tc.format))
	}
}
