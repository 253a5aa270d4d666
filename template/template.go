// Package template defines the structural templates for the supported
// heating hot water system families. A template lists the equipment a
// family contains, how instances nest under their parents, and the feeds
// relationships that must hold in every synthesized graph.
package template

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// ErrUnsupportedSystemType reports a system label outside the supported
// families.
var ErrUnsupportedSystemType = errors.New("unsupported system type")

// Cardinality says how many instances of an equipment spec a building gets.
type Cardinality int

const (
	// One means exactly one instance regardless of sensor data.
	One Cardinality = iota
	// Counted means the instance count comes from cardinality resolution.
	Counted
)

// Equipment kinds referenced by templates. Kinds with a vocabulary
// counterpart receive the points mapped to that counterpart.
const (
	KindBuilding           = "building"
	KindHotWaterSystem     = "hot_water_system"
	KindPrimaryLoop        = "primary_loop"
	KindSecondaryLoop      = "secondary_loop"
	KindHeatExchanger      = "heat_exchanger"
	KindBoiler             = "boiler"
	KindPrimaryPump        = "primary_pump"
	KindSecondaryPump      = "secondary_pump"
	KindDistrictConnection = "district_connection"
	KindWeatherStation     = "weather_station"
)

// EquipmentSpec declares one kind of equipment within a family.
type EquipmentSpec struct {
	// Kind is the template-local equipment kind.
	Kind string

	// Class is the node's semantic class.
	Class string

	// Vocab names the vocabulary equipment kind whose sensor roles attach
	// to instances of this spec. Empty when no roles target it directly.
	Vocab vocabulary.EquipmentKind

	// IDFormat builds the node ID fragment under the building. Counted
	// specs include one %d verb for the 1-based instance number.
	IDFormat string

	// LabelFormat builds the human label. Counted specs include one %d.
	LabelFormat string

	Cardinality Cardinality

	// MinCount floors the resolved count for Counted specs.
	MinCount int

	// Parent is the kind this equipment nests under, and ParentPred the
	// predicate used for the nesting edge (hasPart or isLocationOf).
	Parent     string
	ParentPred string
}

// EdgeSpec declares a feeds relationship between two kinds. The edge is
// emitted between every instance pair. Required edges make the graph
// invalid when either side has no instances.
type EdgeSpec struct {
	From     string
	To       string
	Pred     string
	Required bool
}

// SystemTemplate is the full structural pattern for one system family.
type SystemTemplate struct {
	// Family is the normalized family label.
	Family string

	// SystemLabel is the display label of the hot water system node.
	SystemLabel string

	// District is true for families served by a utility instead of
	// on-site boilers. District families forbid boiler instances.
	District bool

	Equipment []EquipmentSpec
	Edges     []EdgeSpec
}

// Spec returns the equipment spec for a kind.
func (t *SystemTemplate) Spec(kind string) (EquipmentSpec, bool) {
	for _, eq := range t.Equipment {
		if eq.Kind == kind {
			return eq, true
		}
	}
	return EquipmentSpec{}, false
}

// PointTarget maps a vocabulary equipment kind to the template kind whose
// instances receive its points. Roles with no target in this family fall
// back to the secondary loop.
func (t *SystemTemplate) PointTarget(kind vocabulary.EquipmentKind) (string, bool) {
	for _, eq := range t.Equipment {
		if eq.Vocab == kind {
			return eq.Kind, true
		}
	}
	return "", false
}

// Registry resolves system labels to templates.
type Registry struct {
	families map[string]*SystemTemplate
}

// NewRegistry returns a registry with the five standard families.
func NewRegistry() *Registry {
	r := &Registry{families: make(map[string]*SystemTemplate)}
	for _, t := range standardTemplates() {
		r.families[t.Family] = t
	}
	return r
}

// Lookup resolves a raw system label. Labels are normalized by trimming
// and lowercasing; anything outside the known families is unsupported.
func (r *Registry) Lookup(system string) (*SystemTemplate, error) {
	key := Normalize(system)
	t, ok := r.families[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedSystemType, system, strings.Join(r.Families(), ", "))
	}
	return t, nil
}

// Families returns the supported family labels in sorted order.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.families))
	for f := range r.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Normalize canonicalizes a system label for lookup.
func Normalize(system string) string {
	return strings.Join(strings.Fields(strings.ToLower(system)), " ")
}
