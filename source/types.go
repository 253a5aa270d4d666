// Package source loads the two input tables that drive compilation: the
// building metadata table and the sensor availability table. Both are
// accepted as CSV or XLSX and joined on the building tag.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingRequiredInput reports a building present in one table but not
// the other, or a table without its required columns.
var ErrMissingRequiredInput = errors.New("missing required input")

// BuildingRecord is one row of the building metadata table. Optional
// numeric fields are pointers so absent values stay distinguishable from
// zero.
type BuildingRecord struct {
	Tag    string
	Org    string
	System string

	// BoilerCount is the declared boiler count (b_number), when reported.
	BoilerCount *int

	Area         *float64
	BuildingType string
	YearBuilt    *int
	Decade       *int
	ClimateZone  string

	DesignSupplyTemp *float64
	DesignReturnTemp *float64

	BoilerManufacturer string
	BoilerModel        string
	BoilerInput        *float64
	BoilerOutput       *float64
	BoilerEfficiency   *float64
}

// AvailabilityRow records which sensor roles a building reports. Roles map
// to true only when the table marks them available.
type AvailabilityRow struct {
	Tag       string
	Available map[string]bool
}

// IsAvailable reports whether the role is marked available. Role names are
// matched case-insensitively.
func (r AvailabilityRow) IsAvailable(role string) bool {
	return r.Available[strings.ToLower(strings.TrimSpace(role))]
}

// AvailableRoles returns the available role names in sorted order.
func (r AvailabilityRow) AvailableRoles() []string {
	out := make([]string, 0, len(r.Available))
	for role, ok := range r.Available {
		if ok {
			out = append(out, role)
		}
	}
	sort.Strings(out)
	return out
}

// Tables is the joined pair of input tables.
type Tables struct {
	metadata     map[string]BuildingRecord
	availability map[string]AvailabilityRow
	order        []string
}

// NewTables builds a Tables from already-parsed rows. Metadata order is
// preserved as the iteration order.
func NewTables(records []BuildingRecord, rows []AvailabilityRow) *Tables {
	t := &Tables{
		metadata:     make(map[string]BuildingRecord, len(records)),
		availability: make(map[string]AvailabilityRow, len(rows)),
	}
	for _, rec := range records {
		if _, seen := t.metadata[rec.Tag]; !seen {
			t.order = append(t.order, rec.Tag)
		}
		t.metadata[rec.Tag] = rec
	}
	for _, row := range rows {
		t.availability[row.Tag] = row
	}
	return t
}

// Tags returns building tags in metadata-table order.
func (t *Tables) Tags() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of buildings in the metadata table.
func (t *Tables) Len() int { return len(t.order) }

// Pair returns the metadata record and availability row for one building.
// A tag missing from either table is a missing-input failure for that
// building only.
func (t *Tables) Pair(tag string) (BuildingRecord, AvailabilityRow, error) {
	rec, ok := t.metadata[tag]
	if !ok {
		return BuildingRecord{}, AvailabilityRow{}, fmt.Errorf("%w: building %s has no metadata row", ErrMissingRequiredInput, tag)
	}
	row, ok := t.availability[tag]
	if !ok {
		return BuildingRecord{}, AvailabilityRow{}, fmt.Errorf("%w: building %s has no availability row", ErrMissingRequiredInput, tag)
	}
	return rec, row, nil
}
