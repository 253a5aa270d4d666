// Package compiler turns one building's metadata record and sensor
// availability row into a typed equipment graph: the interpreter resolves
// the system family and equipment cardinalities, the synthesizer
// instantiates the family template into nodes, edges, and points.
package compiler

import "fmt"

// Warning codes for non-fatal findings surfaced during compilation.
const (
	// WarnCardinalityConflict: declared and sensor-inferred counts
	// disagree; the larger one wins.
	WarnCardinalityConflict = "cardinality_conflict"

	// WarnForbiddenEquipment: a district building presents boiler-shaped
	// signals; boiler cardinality is forced to 0.
	WarnForbiddenEquipment = "forbidden_equipment_signal"

	// WarnZeroBoilerCount: a boiler-family building explicitly declares
	// zero boilers and presents no boiler signals.
	WarnZeroBoilerCount = "zero_boiler_count"

	// WarnUnmappedRole: an available role is not in the sensor mapping
	// and produces no point.
	WarnUnmappedRole = "unmapped_role"

	// WarnRoleReassigned: a role's owning equipment kind does not exist
	// in this family; the point attaches to the building loop instead.
	WarnRoleReassigned = "role_reassigned"

	// WarnPatternMismatch: pattern validation found zero or two matching
	// topologies for a synthesized graph.
	WarnPatternMismatch = "pattern_mismatch"
)

// Warning is a non-fatal finding tied to one building.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warnf(code, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
