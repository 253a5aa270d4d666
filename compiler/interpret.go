package compiler

import (
	"fmt"
	"regexp"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

// maxInstanceIndex bounds the trailing index scanned on numbered roles.
const maxInstanceIndex = 9

// Resolution is the interpreter's output: the family template plus the
// resolved equipment cardinalities for one building.
type Resolution struct {
	Family   string
	Template *template.SystemTemplate

	// BoilerCount is the resolved boiler cardinality. Always 0 for
	// district families.
	BoilerCount int

	// PumpCount is the secondary/building-loop pump cardinality inferred
	// from sensor naming. 0 means no pump signals were detected; the
	// synthesizer still instantiates the template minimum.
	PumpCount int

	Warnings []Warning
}

var (
	boilerRolePattern  = regexp.MustCompile(`^(?:sup|ret|fire)([1-9])$`)
	pumpRolePattern    = regexp.MustCompile(`^pmp([1-9])_(?:pwr|spd|vfd)$`)
	boilerGenericRoles = []string{"sup", "ret", "fire", "supp", "retp"}
)

// Interpret resolves the system family and equipment cardinalities for one
// building. Declared counts and sensor-inferred counts are reconciled by
// taking the maximum; a disagreement is recorded as a warning, never an
// error.
func Interpret(rec source.BuildingRecord, row source.AvailabilityRow, reg *template.Registry) (*Resolution, error) {
	tmpl, err := reg.Lookup(rec.System)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", rec.Tag, err)
	}

	res := &Resolution{
		Family:    tmpl.Family,
		Template:  tmpl,
		PumpCount: InferPumpCount(row),
	}

	inferred := InferBoilerCount(row)
	declared := 0
	if rec.BoilerCount != nil {
		declared = *rec.BoilerCount
	}

	if tmpl.District {
		if declared > 0 || inferred > 0 {
			res.Warnings = append(res.Warnings, warnf(WarnForbiddenEquipment,
				"building %s: family %q forbids boilers but found boiler signals (declared=%d, inferred=%d); boiler count forced to 0",
				rec.Tag, tmpl.Family, declared, inferred))
		}
		res.BoilerCount = 0
		return res, nil
	}

	switch {
	case rec.BoilerCount == nil:
		res.BoilerCount = inferred
	case declared == inferred:
		res.BoilerCount = declared
		if declared == 0 {
			res.Warnings = append(res.Warnings, warnf(WarnZeroBoilerCount,
				"building %s: family %q declares 0 boilers and no boiler signals were detected; needs manual verification",
				rec.Tag, tmpl.Family))
		}
	default:
		res.BoilerCount = max(declared, inferred)
		res.Warnings = append(res.Warnings, warnf(WarnCardinalityConflict,
			"building %s: declared boiler count %d disagrees with sensor-inferred count %d; using %d",
			rec.Tag, declared, inferred, res.BoilerCount))
	}
	return res, nil
}

// InferBoilerCount derives a boiler count from sensor naming: the highest
// index on supN/retN/fireN roles, or 1 when only unnumbered boiler roles
// are present.
func InferBoilerCount(row source.AvailabilityRow) int {
	maxIdx := 0
	for _, role := range row.AvailableRoles() {
		if m := boilerRolePattern.FindStringSubmatch(role); m != nil {
			if idx := int(m[1][0] - '0'); idx <= maxInstanceIndex && idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	if maxIdx > 0 {
		return maxIdx
	}
	for _, role := range boilerGenericRoles {
		if row.IsAvailable(role) {
			return 1
		}
	}
	return 0
}

// InferPumpCount derives a pump count from sensor naming: the highest
// index on pmpN_pwr/pmpN_spd/pmpN_vfd roles, or 1 when only the generic
// pmp_spd role is present.
func InferPumpCount(row source.AvailabilityRow) int {
	maxIdx := 0
	for _, role := range row.AvailableRoles() {
		if m := pumpRolePattern.FindStringSubmatch(role); m != nil {
			if idx := int(m[1][0] - '0'); idx <= maxInstanceIndex && idx > maxIdx {
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

// boilerInstance returns the 1-based boiler a role targets, or 0 when the
// role is not boiler-shaped. Unnumbered boiler roles target boiler 1.
func boilerInstance(role string) int {
	if m := boilerRolePattern.FindStringSubmatch(role); m != nil {
		return int(m[1][0] - '0')
	}
	for _, generic := range boilerGenericRoles {
		if role == generic {
			return 1
		}
	}
	return 0
}

// pumpInstance returns the 1-based pump a numbered role targets, or 0 for
// generic and non-pump roles.
func pumpInstance(role string) int {
	if m := pumpRolePattern.FindStringSubmatch(role); m != nil {
		return int(m[1][0] - '0')
	}
	return 0
}
