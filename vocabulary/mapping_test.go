package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	tests := []struct {
		role      string
		wantClass string
		wantKind  EquipmentKind
	}{
		{"sup", ClassSupplyWaterTempSensor, KindBoiler},
		{"ret1", ClassReturnWaterTempSensor, KindBoiler},
		{"fire3", ClassFiringRateSensor, KindBoiler},
		{"pmp2_pwr", ClassElectricalPowerSensor, KindPump},
		{"pmp_spd", ClassSpeedSensor, KindPump},
		{"pmp4_vfd", ClassFrequencySensor, KindPump},
		{"flow", ClassWaterFlowSensor, KindSecondaryLoop},
		{"oat", ClassOutsideAirTempSensor, KindWeatherStation},
		{"oper", ClassOnOffStatus, KindWeatherStation},
		{"enab", ClassEnableCommand, KindHotWaterSystem},
		{"secondary_supply_temp", ClassSupplyWaterTempSensor, KindSecondaryLoop},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			m, ok := reg.Lookup(tc.role)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tc.role)
			}
			if m.BrickClass != tc.wantClass {
				t.Errorf("BrickClass = %q, want %q", m.BrickClass, tc.wantClass)
			}
			if m.Equipment != tc.wantKind {
				t.Errorf("Equipment = %q, want %q", m.Equipment, tc.wantKind)
			}
		})
	}
}

func TestLookupNormalizesCase(t *testing.T) {
	reg := Default()
	m, ok := reg.Lookup(" SUP1 ")
	if !ok {
		t.Fatal("expected sup1 to resolve case-insensitively")
	}
	if m.Equipment != KindBoiler {
		t.Errorf("Equipment = %q, want boiler", m.Equipment)
	}
}

func TestLookupUnknownRole(t *testing.T) {
	reg := Default()
	if _, ok := reg.Lookup("chiller_kw"); ok {
		t.Error("unknown role should not resolve")
	}
}

func TestParseRejectsBadMappings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "roles: {}"},
		{"missing class", "roles:\n  sup:\n    equipment: boiler\n"},
		{"unknown kind", "roles:\n  sup:\n    brick_class: brick:Sensor\n    equipment: chiller\n"},
		{"bad yaml", "roles: ["},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	content := `roles:
  zone_temp:
    brick_class: brick:Zone_Air_Temperature_Sensor
    equipment: secondary_loop
    unit: unit:DEG_C
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	m, ok := reg.Lookup("zone_temp")
	require.True(t, ok)
	assert.Equal(t, KindSecondaryLoop, m.Equipment)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRolesSorted(t *testing.T) {
	reg := Default()
	roles := reg.Roles()
	require.NotEmpty(t, roles)
	for i := 1; i < len(roles); i++ {
		if roles[i-1] >= roles[i] {
			t.Fatalf("roles not sorted at %d: %q >= %q", i, roles[i-1], roles[i])
		}
	}
}
