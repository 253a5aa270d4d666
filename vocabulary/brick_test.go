package vocabulary

import "testing"

func TestIsSubclassOf(t *testing.T) {
	tests := []struct {
		class    string
		ancestor string
		want     bool
	}{
		{ClassCondensingBoiler, ClassBoiler, true},
		{ClassNoncondensingBoiler, ClassBoiler, true},
		{ClassNaturalGasBoiler, ClassBoiler, true},
		{ClassBoiler, ClassBoiler, true},
		{ClassBoiler, ClassCondensingBoiler, false},
		{ClassPump, ClassBoiler, false},
		{ClassSupplyWaterTempSensor, ClassPoint, true},
		{ClassFiringRateSensor, ClassPoint, true},
		{ClassEnableCommand, ClassPoint, true},
		{ClassPump, "brick:Equipment", true},
		{ClassDistrictConnection, "brick:Equipment", true},
		{"brick:Nonexistent", ClassPoint, false},
	}

	for _, tc := range tests {
		if got := IsSubclassOf(tc.class, tc.ancestor); got != tc.want {
			t.Errorf("IsSubclassOf(%q, %q) = %v, want %v", tc.class, tc.ancestor, got, tc.want)
		}
	}
}

func TestParentClass(t *testing.T) {
	if got := ParentClass(ClassCondensingBoiler); got != ClassNaturalGasBoiler {
		t.Errorf("ParentClass = %q, want %q", got, ClassNaturalGasBoiler)
	}
	if got := ParentClass("brick:Unknown"); got != "" {
		t.Errorf("ParentClass(unknown) = %q, want empty", got)
	}
}
