package source

import (
	"fmt"
	"strconv"
	"strings"
)

// naTokens are cell values treated as "not reported".
var naTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"-":    true,
}

// nonRoleColumns are availability-table columns that never name a sensor
// role.
var nonRoleColumns = map[string]bool{
	"tag":      true,
	"org":      true,
	"datetime": true,
	"system":   true,
}

func isNA(cell string) bool {
	return naTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// parseMetadataRows turns raw table rows (header first) into building
// records. Unknown columns are ignored so the loader tolerates extra
// survey fields.
func parseMetadataRows(rows [][]string) ([]BuildingRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: metadata table is empty", ErrMissingRequiredInput)
	}
	header := indexHeader(rows[0])
	if _, ok := header["tag"]; !ok {
		return nil, fmt.Errorf("%w: metadata table has no tag column", ErrMissingRequiredInput)
	}
	if _, ok := header["system"]; !ok {
		return nil, fmt.Errorf("%w: metadata table has no system column", ErrMissingRequiredInput)
	}

	records := make([]BuildingRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(name string) string {
			col, ok := header[name]
			if !ok || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}
		tag := cell("tag")
		if tag == "" {
			continue // blank padding rows are common in exported sheets
		}

		rec := BuildingRecord{
			Tag:                tag,
			Org:                cell("org"),
			System:             cell("system"),
			BuildingType:       naBlank(cell("building_type")),
			ClimateZone:        naBlank(cell("climate")),
			BoilerManufacturer: naBlank(cell("b_manufacturer")),
			BoilerModel:        naBlank(cell("b_model")),
		}

		var err error
		if rec.BoilerCount, err = optionalInt(cell("b_number")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): b_number: %w", i+2, tag, err)
		}
		if rec.YearBuilt, err = optionalInt(cell("year")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): year: %w", i+2, tag, err)
		}
		if rec.Decade, err = optionalInt(cell("decade")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): decade: %w", i+2, tag, err)
		}
		if rec.Area, err = optionalFloat(cell("area")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): area: %w", i+2, tag, err)
		}
		if rec.DesignSupplyTemp, err = optionalFloat(cell("design_supply")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): design_supply: %w", i+2, tag, err)
		}
		if rec.DesignReturnTemp, err = optionalFloat(cell("design_return")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): design_return: %w", i+2, tag, err)
		}
		if rec.BoilerInput, err = optionalFloat(cell("b_input")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): b_input: %w", i+2, tag, err)
		}
		if rec.BoilerOutput, err = optionalFloat(cell("b_output")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): b_output: %w", i+2, tag, err)
		}
		if rec.BoilerEfficiency, err = optionalFloat(cell("b_efficiency")); err != nil {
			return nil, fmt.Errorf("metadata row %d (tag %s): b_efficiency: %w", i+2, tag, err)
		}

		records = append(records, rec)
	}
	return records, nil
}

// parseAvailabilityRows turns raw table rows (header first) into
// availability rows. Every column that is not a bookkeeping column is
// treated as a sensor role; a role is available when its cell parses as a
// positive flag.
func parseAvailabilityRows(rows [][]string) ([]AvailabilityRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: availability table is empty", ErrMissingRequiredInput)
	}
	header := rows[0]
	tagCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "tag") {
			tagCol = i
			break
		}
	}
	if tagCol < 0 {
		return nil, fmt.Errorf("%w: availability table has no tag column", ErrMissingRequiredInput)
	}

	out := make([]AvailabilityRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if tagCol >= len(row) {
			continue
		}
		tag := strings.TrimSpace(row[tagCol])
		if tag == "" {
			continue
		}
		avail := AvailabilityRow{Tag: tag, Available: make(map[string]bool)}
		for i, name := range header {
			role := strings.ToLower(strings.TrimSpace(name))
			if role == "" || nonRoleColumns[role] || i >= len(row) {
				continue
			}
			if flagSet(row[i]) {
				avail.Available[role] = true
			}
		}
		out = append(out, avail)
	}
	return out, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func naBlank(cell string) string {
	if isNA(cell) {
		return ""
	}
	return cell
}

func optionalInt(cell string) (*int, error) {
	if isNA(cell) {
		return nil, nil
	}
	// Spreadsheet exports often render integers as floats ("2.0").
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", cell)
	}
	v := int(f)
	if float64(v) != f {
		return nil, fmt.Errorf("not an integer: %q", cell)
	}
	return &v, nil
}

func optionalFloat(cell string) (*float64, error) {
	if isNA(cell) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", cell)
	}
	return &f, nil
}

// flagSet parses an availability cell. Accepts 1/0, true/false, yes/no,
// and float renderings of 1/0; anything unparseable counts as unavailable.
func flagSet(cell string) bool {
	s := strings.ToLower(strings.TrimSpace(cell))
	switch s {
	case "true", "yes", "y":
		return true
	case "", "false", "no", "n":
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f != 0
}
