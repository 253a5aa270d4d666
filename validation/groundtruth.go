// Package validation checks compiled equipment graphs three ways: against
// an independently computed ground truth oracle (counts), against two
// fixed topology patterns, and against an external ontology conformance
// checker.
package validation

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// GroundTruthRecord is the oracle for one building: the counts a correct
// graph must reproduce. It is computed from the input tables only, never
// from a graph.
type GroundTruthRecord struct {
	Tag            string `json:"tag"`
	System         string `json:"system"`
	PointCount     int    `json:"point_count"`
	BoilerCount    int    `json:"boiler_count"`
	PumpCount      int    `json:"pump_count"`
	WeatherStation bool   `json:"weather_station"`
}

// Calculator derives ground truth records. Its cardinality rules mirror
// the compiler's documented resolution but are implemented separately on
// purpose: the oracle and the synthesizer must not share code, or a bug
// in one would hide in the other.
type Calculator struct {
	vocab     *vocabulary.Registry
	templates *template.Registry
}

// NewCalculator creates a calculator. Nil arguments fall back to the
// default registries.
func NewCalculator(vocab *vocabulary.Registry, templates *template.Registry) *Calculator {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if templates == nil {
		templates = template.NewRegistry()
	}
	return &Calculator{vocab: vocab, templates: templates}
}

var (
	gtBoilerRole  = regexp.MustCompile(`^(?:sup|ret|fire)([1-9])$`)
	gtPumpRole    = regexp.MustCompile(`^pmp([1-9])_(?:pwr|spd|vfd)$`)
	gtBoilerFlags = []string{"sup", "ret", "fire", "supp", "retp"}
)

// Calculate computes the oracle for one building.
func (c *Calculator) Calculate(rec source.BuildingRecord, row source.AvailabilityRow) (GroundTruthRecord, error) {
	tmpl, err := c.templates.Lookup(rec.System)
	if err != nil {
		return GroundTruthRecord{}, fmt.Errorf("building %s: %w", rec.Tag, err)
	}

	gt := GroundTruthRecord{
		Tag:    rec.Tag,
		System: tmpl.Family,
	}

	for _, role := range row.AvailableRoles() {
		m, known := c.vocab.Lookup(role)
		if !known {
			continue
		}
		gt.PointCount++
		if m.Equipment == vocabulary.KindWeatherStation {
			gt.WeatherStation = true
		}
	}

	detectedBoilers := c.detectBoilers(row)
	detectedPumps := c.detectPumps(row)

	if tmpl.District {
		gt.BoilerCount = 0
		// District plants always have at least the building loop pump.
		gt.PumpCount = max(detectedPumps, 1)
		return gt, nil
	}

	gt.BoilerCount = detectedBoilers
	if rec.BoilerCount != nil && *rec.BoilerCount > gt.BoilerCount {
		gt.BoilerCount = *rec.BoilerCount
	}
	// A boiler plant has at least one boiler even when neither the
	// metadata nor the sensor naming says so.
	gt.BoilerCount = max(gt.BoilerCount, 1)

	// Boiler plants carry a structural primary pump on top of the
	// detected secondary pumps; with nothing detected the floor is one
	// pump per loop.
	if detectedPumps > 0 {
		gt.PumpCount = detectedPumps + 1
	} else {
		gt.PumpCount = 2
	}
	return gt, nil
}

// UnitFailure records a building the calculator (or a batch unit) could
// not process.
type UnitFailure struct {
	Tag string `json:"tag"`
	Err string `json:"error"`
}

// CalculateAll computes ground truth for every building in the tables.
// Per-building failures are collected, not fatal.
func (c *Calculator) CalculateAll(tables *source.Tables) ([]GroundTruthRecord, []UnitFailure) {
	var (
		records  []GroundTruthRecord
		failures []UnitFailure
	)
	for _, tag := range tables.Tags() {
		rec, row, err := tables.Pair(tag)
		if err == nil {
			var gt GroundTruthRecord
			gt, err = c.Calculate(rec, row)
			if err == nil {
				records = append(records, gt)
				continue
			}
		}
		failures = append(failures, UnitFailure{Tag: tag, Err: err.Error()})
	}
	return records, failures
}

func (c *Calculator) detectBoilers(row source.AvailabilityRow) int {
	maxIdx := 0
	for _, role := range row.AvailableRoles() {
		if m := gtBoilerRole.FindStringSubmatch(role); m != nil {
			if idx, _ := strconv.Atoi(m[1]); idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	if maxIdx > 0 {
		return maxIdx
	}
	for _, flag := range gtBoilerFlags {
		if row.IsAvailable(flag) {
			return 1
		}
	}
	return 0
}

func (c *Calculator) detectPumps(row source.AvailabilityRow) int {
	maxIdx := 0
	for _, role := range row.AvailableRoles() {
		if m := gtPumpRole.FindStringSubmatch(role); m != nil {
			if idx, _ := strconv.Atoi(m[1]); idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	if maxIdx > 0 {
		return maxIdx
	}
	if row.IsAvailable("pmp_spd") {
		return 1
	}
	return 0
}

// Statistics summarizes a set of ground truth records.
type Statistics struct {
	Buildings       int            `json:"buildings"`
	BySystem        map[string]int `json:"by_system"`
	TotalPoints     int            `json:"total_points"`
	TotalBoilers    int            `json:"total_boilers"`
	TotalPumps      int            `json:"total_pumps"`
	WeatherStations int            `json:"weather_stations"`
}

// Summarize aggregates ground truth records.
func Summarize(records []GroundTruthRecord) Statistics {
	stats := Statistics{BySystem: make(map[string]int)}
	for _, gt := range records {
		stats.Buildings++
		stats.BySystem[gt.System]++
		stats.TotalPoints += gt.PointCount
		stats.TotalBoilers += gt.BoilerCount
		stats.TotalPumps += gt.PumpCount
		if gt.WeatherStation {
			stats.WeatherStations++
		}
	}
	return stats
}

// WriteCSV writes ground truth records in the reference CSV layout.
func WriteCSV(w io.Writer, records []GroundTruthRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tag", "system", "point_count", "boiler_count", "pump_count", "weather_station"}); err != nil {
		return fmt.Errorf("failed to write ground truth header: %w", err)
	}
	for _, gt := range records {
		row := []string{
			gt.Tag,
			gt.System,
			strconv.Itoa(gt.PointCount),
			strconv.Itoa(gt.BoilerCount),
			strconv.Itoa(gt.PumpCount),
			strconv.FormatBool(gt.WeatherStation),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write ground truth row for %s: %w", gt.Tag, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
