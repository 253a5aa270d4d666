package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// ErrSynthesisFailed reports that a template could not be instantiated,
// typically because a required edge has no instances on one side. No
// partial graph is returned.
var ErrSynthesisFailed = errors.New("graph synthesis failed")

// Synthesizer instantiates system templates into equipment graphs.
type Synthesizer struct {
	vocab  *vocabulary.Registry
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer. A nil registry falls back to the
// embedded default mapping; a nil logger falls back to slog.Default().
func NewSynthesizer(vocab *vocabulary.Registry, logger *slog.Logger) *Synthesizer {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{vocab: vocab, logger: logger.With("component", "synthesizer")}
}

// graphBuilder accumulates the first construction error so template
// instantiation reads as straight-line code.
type graphBuilder struct {
	g   *graph.Graph
	err error
}

func (b *graphBuilder) node(n graph.Node) {
	if b.err == nil {
		b.err = b.g.AddNode(n)
	}
}

func (b *graphBuilder) edge(s, p, o string) {
	if b.err == nil {
		b.err = b.g.AddEdge(s, p, o)
	}
}

func (b *graphBuilder) literal(s, p string, v any) {
	if b.err == nil {
		b.err = b.g.AddLiteral(s, p, v)
	}
}

// Synthesize instantiates the resolved template for one building. The
// same inputs always yield an identical graph. On failure no graph is
// returned.
func (s *Synthesizer) Synthesize(rec source.BuildingRecord, row source.AvailabilityRow, res *Resolution) (*graph.Graph, []Warning, error) {
	tmpl := res.Template
	b := &graphBuilder{g: graph.New(rec.Tag, res.Family)}
	buildingID := "building" + rec.Tag

	b.node(graph.Node{
		ID:    buildingID,
		Kind:  graph.KindBuilding,
		Class: vocabulary.ClassBuilding,
		Label: "Building " + rec.Tag,
	})
	s.addMetadata(b, buildingID, rec)

	// Equipment instances, in template order.
	instances := make(map[string][]string, len(tmpl.Equipment))
	for _, eq := range tmpl.Equipment {
		count := instanceCount(eq, res)
		for i := 1; i <= count; i++ {
			id, label := instanceName(buildingID, eq, i)
			b.node(graph.Node{ID: id, Kind: graph.KindEquipment, Class: eq.Class, Label: label})

			parent := buildingID
			if eq.Parent != template.KindBuilding {
				parents := instances[eq.Parent]
				if len(parents) == 0 {
					return nil, nil, fmt.Errorf("building %s: %w: %s has no parent %s instance",
						rec.Tag, ErrSynthesisFailed, eq.Kind, eq.Parent)
				}
				parent = parents[0]
			}
			b.edge(parent, eq.ParentPred, id)
			instances[eq.Kind] = append(instances[eq.Kind], id)
		}
	}
	s.addBoilerMetadata(b, instances[template.KindBoiler], rec)

	// Inter-equipment edges. A required edge with an empty side aborts
	// synthesis; this is how a boiler family with cardinality 0 fails.
	for _, es := range tmpl.Edges {
		froms, tos := instances[es.From], instances[es.To]
		if len(froms) == 0 || len(tos) == 0 {
			if es.Required {
				return nil, nil, fmt.Errorf("building %s: %w: required edge %s -%s-> %s has no %s instances",
					rec.Tag, ErrSynthesisFailed, es.From, es.Pred, es.To, missingSide(froms, es.From, es.To))
			}
			continue
		}
		for _, from := range froms {
			for _, to := range tos {
				b.edge(from, es.Pred, to)
			}
		}
	}

	warnings := s.attachPoints(b, buildingID, rec, row, res, instances)

	if b.err != nil {
		return nil, nil, fmt.Errorf("building %s: %w: %v", rec.Tag, ErrSynthesisFailed, b.err)
	}
	return b.g, warnings, nil
}

// attachPoints creates a point node for every available mapped role and
// wires it to its owning equipment. Roles iterate in sorted order so the
// graph is reproducible.
func (s *Synthesizer) attachPoints(b *graphBuilder, buildingID string, rec source.BuildingRecord, row source.AvailabilityRow, res *Resolution, instances map[string][]string) []Warning {
	var warnings []Warning
	tmpl := res.Template
	storedAt := rec.Tag + "hhw_system_data.csv"

	for _, role := range row.AvailableRoles() {
		m, ok := s.vocab.Lookup(role)
		if !ok {
			warnings = append(warnings, warnf(WarnUnmappedRole,
				"building %s: role %q is not in the sensor mapping, no point created", rec.Tag, role))
			continue
		}

		// Generic pump roles fan out to every pump, with later points
		// aliased to the first: one physical sensor, many attachments.
		if m.Equipment == vocabulary.KindPump && pumpInstance(role) == 0 {
			pumpKind, ok := tmpl.PointTarget(vocabulary.KindPump)
			if !ok {
				warnings = append(warnings, s.reassign(b, buildingID, rec.Tag, role, m, storedAt, instances, tmpl))
				continue
			}
			var first string
			for _, owner := range instances[pumpKind] {
				id := s.point(b, owner, vocabulary.PredHasPoint, role, m, storedAt)
				if first == "" {
					first = id
					continue
				}
				if b.err == nil {
					b.err = b.g.Alias(id, first)
				}
			}
			continue
		}

		owner, warning := s.resolveOwner(b, buildingID, rec.Tag, role, m, res, instances)
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		if owner == "" {
			warnings = append(warnings, s.reassign(b, buildingID, rec.Tag, role, m, storedAt, instances, tmpl))
			continue
		}
		s.point(b, owner, pointPred(m.Equipment), role, m, storedAt)
	}
	return warnings
}

// resolveOwner picks the equipment instance a role's point attaches to.
// An empty owner means the family has no home for the role.
func (s *Synthesizer) resolveOwner(b *graphBuilder, buildingID, tag, role string, m vocabulary.Mapping, res *Resolution, instances map[string][]string) (string, *Warning) {
	tmpl := res.Template

	if m.Equipment == vocabulary.KindWeatherStation {
		return s.weatherStation(b, buildingID, instances), nil
	}

	kind, ok := tmpl.PointTarget(m.Equipment)
	if !ok {
		return "", nil
	}
	owners := instances[kind]
	if len(owners) == 0 {
		return "", nil
	}

	idx := 1
	switch m.Equipment {
	case vocabulary.KindBoiler:
		idx = boilerInstance(role)
	case vocabulary.KindPump:
		idx = pumpInstance(role)
	}
	if idx < 1 || idx > len(owners) {
		w := warnf(WarnRoleReassigned,
			"building %s: role %q targets %s %d but only %d exist, attached to the building loop",
			tag, role, m.Equipment, idx, len(owners))
		return "", &w
	}
	return owners[idx-1], nil
}

// weatherStation lazily creates the building's weather station node the
// first time a weather role appears.
func (s *Synthesizer) weatherStation(b *graphBuilder, buildingID string, instances map[string][]string) string {
	if ws := instances[template.KindWeatherStation]; len(ws) > 0 {
		return ws[0]
	}
	id := buildingID + ".weather_station"
	b.node(graph.Node{
		ID:    id,
		Kind:  graph.KindEquipment,
		Class: vocabulary.ClassWeatherStation,
		Label: "Weather Station",
	})
	b.edge(buildingID, vocabulary.PredIsLocationOf, id)
	instances[template.KindWeatherStation] = append(instances[template.KindWeatherStation], id)
	return id
}

// point creates one point node owned by an equipment instance. Loops and
// systems own their points via hasPart, concrete equipment via hasPoint.
func (s *Synthesizer) point(b *graphBuilder, owner, pred, role string, m vocabulary.Mapping, storedAt string) string {
	id := owner + "." + role
	label := m.Description
	if label == "" {
		label = role
	}
	b.node(graph.Node{
		ID:    id,
		Kind:  graph.KindPoint,
		Class: m.BrickClass,
		Label: label,
		Role:  role,
		Unit:  m.Unit,
	})
	b.edge(owner, pred, id)
	b.literal(id, vocabulary.PredTimeseriesID, role)
	b.literal(id, vocabulary.PredStoredAt, storedAt)
	return id
}

// pointPred picks the ownership predicate for a role's natural target.
func pointPred(kind vocabulary.EquipmentKind) string {
	switch kind {
	case vocabulary.KindHotWaterSystem, vocabulary.KindPrimaryLoop, vocabulary.KindSecondaryLoop:
		return vocabulary.PredHasPart
	default:
		return vocabulary.PredHasPoint
	}
}

// reassign attaches a homeless role's point to the building loop.
func (s *Synthesizer) reassign(b *graphBuilder, buildingID, tag, role string, m vocabulary.Mapping, storedAt string, instances map[string][]string, tmpl *template.SystemTemplate) Warning {
	loopKind, _ := tmpl.PointTarget(vocabulary.KindSecondaryLoop)
	owner := buildingID
	if loops := instances[loopKind]; len(loops) > 0 {
		owner = loops[0]
	}
	s.point(b, owner, vocabulary.PredHasPart, role, m, storedAt)
	return warnf(WarnRoleReassigned,
		"building %s: family %q has no %s equipment for role %q, attached to %s",
		tag, tmpl.Family, m.Equipment, role, owner)
}

func (s *Synthesizer) addMetadata(b *graphBuilder, buildingID string, rec source.BuildingRecord) {
	if rec.Area != nil {
		b.literal(buildingID, vocabulary.PropArea, *rec.Area)
	}
	if rec.BuildingType != "" {
		b.literal(buildingID, vocabulary.PropBuildingType, rec.BuildingType)
	}
	if rec.YearBuilt != nil {
		b.literal(buildingID, vocabulary.PropYearBuilt, *rec.YearBuilt)
	}
	if rec.ClimateZone != "" {
		b.literal(buildingID, vocabulary.PropClimateZone, rec.ClimateZone)
	}
	if rec.DesignSupplyTemp != nil {
		b.literal(buildingID, vocabulary.PropDesignSupplyTemp, *rec.DesignSupplyTemp)
	}
	if rec.DesignReturnTemp != nil {
		b.literal(buildingID, vocabulary.PropDesignReturnTemp, *rec.DesignReturnTemp)
	}
}

// addBoilerMetadata attaches the nameplate properties to every boiler.
func (s *Synthesizer) addBoilerMetadata(b *graphBuilder, boilers []string, rec source.BuildingRecord) {
	for _, id := range boilers {
		if rec.BoilerManufacturer != "" {
			b.literal(id, vocabulary.PropManufacturer, rec.BoilerManufacturer)
		}
		if rec.BoilerModel != "" {
			b.literal(id, vocabulary.PropModel, rec.BoilerModel)
		}
		if rec.BoilerInput != nil {
			b.literal(id, vocabulary.PropBoilerInput, *rec.BoilerInput)
		}
		if rec.BoilerOutput != nil {
			b.literal(id, vocabulary.PropBoilerOutput, *rec.BoilerOutput)
		}
		if rec.BoilerEfficiency != nil {
			b.literal(id, vocabulary.PropBoilerEfficiency, *rec.BoilerEfficiency)
		}
	}
}

// instanceCount resolves how many instances of a spec this building gets.
func instanceCount(eq template.EquipmentSpec, res *Resolution) int {
	if eq.Cardinality == template.One {
		return 1
	}
	n := res.PumpCount
	if eq.Kind == template.KindBoiler {
		n = res.BoilerCount
	}
	if n < eq.MinCount {
		n = eq.MinCount
	}
	return n
}

// instanceName builds the deterministic node ID and label for instance i.
func instanceName(buildingID string, eq template.EquipmentSpec, i int) (id, label string) {
	if eq.Cardinality == template.One {
		return buildingID + "." + eq.IDFormat, eq.LabelFormat
	}
	return buildingID + "." + fmt.Sprintf(eq.IDFormat, i), fmt.Sprintf(eq.LabelFormat, i)
}

func missingSide(froms []string, fromKind, toKind string) string {
	if len(froms) == 0 {
		return fromKind
	}
	return toKind
}
