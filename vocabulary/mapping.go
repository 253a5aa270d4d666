package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EquipmentKind identifies which piece of equipment a sensor role belongs
// to. The synthesizer uses it to decide where a point attaches, and the
// ground truth calculator uses it to recognize weather signals.
type EquipmentKind string

const (
	KindBoiler         EquipmentKind = "boiler"
	KindPump           EquipmentKind = "pump"
	KindPrimaryLoop    EquipmentKind = "primary_loop"
	KindSecondaryLoop  EquipmentKind = "secondary_loop"
	KindHotWaterSystem EquipmentKind = "hot_water_system"
	KindWeatherStation EquipmentKind = "weather_station"
)

var validKinds = map[EquipmentKind]bool{
	KindBoiler:         true,
	KindPump:           true,
	KindPrimaryLoop:    true,
	KindSecondaryLoop:  true,
	KindHotWaterSystem: true,
	KindWeatherStation: true,
}

// Mapping describes one sensor role: the Brick point class it instantiates,
// the equipment kind that owns it, and an optional QUDT unit.
type Mapping struct {
	BrickClass  string        `yaml:"brick_class"`
	Equipment   EquipmentKind `yaml:"equipment"`
	Unit        string        `yaml:"unit,omitempty"`
	Description string        `yaml:"description,omitempty"`
}

type mappingFile struct {
	Roles map[string]Mapping `yaml:"roles"`
}

// Registry holds the role-to-Brick mapping consulted during compilation.
// Lookups are case-insensitive on the role name.
type Registry struct {
	roles map[string]Mapping
}

//go:embed sensor_mapping.yaml
var defaultMappingYAML []byte

// Default returns a registry built from the embedded standard mapping.
func Default() *Registry {
	reg, err := Parse(defaultMappingYAML)
	if err != nil {
		// The embedded mapping is fixed at build time.
		panic(fmt.Sprintf("vocabulary: embedded mapping invalid: %v", err))
	}
	return reg
}

// Load reads a mapping file from disk.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor mapping: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sensor mapping %s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from YAML mapping content.
func Parse(data []byte) (*Registry, error) {
	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid mapping YAML: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("mapping defines no roles")
	}

	roles := make(map[string]Mapping, len(file.Roles))
	for role, m := range file.Roles {
		key := normalizeRole(role)
		if key == "" {
			return nil, fmt.Errorf("mapping contains an empty role name")
		}
		if m.BrickClass == "" {
			return nil, fmt.Errorf("role %q has no brick_class", role)
		}
		if !validKinds[m.Equipment] {
			return nil, fmt.Errorf("role %q has unknown equipment kind %q", role, m.Equipment)
		}
		if _, dup := roles[key]; dup {
			return nil, fmt.Errorf("role %q mapped twice", key)
		}
		roles[key] = m
	}
	return &Registry{roles: roles}, nil
}

// Lookup returns the mapping for a role name, if one exists.
func (r *Registry) Lookup(role string) (Mapping, bool) {
	m, ok := r.roles[normalizeRole(role)]
	return m, ok
}

// Roles returns every mapped role name in sorted order.
func (r *Registry) Roles() []string {
	out := make([]string, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of mapped roles.
func (r *Registry) Len() int { return len(r.roles) }

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
