package template

import "github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"

// Family labels for the supported system types.
const (
	FamilyBoiler        = "boiler"
	FamilyCondensing    = "condensing"
	FamilyNonCondensing = "non-condensing"
	FamilyDistrictHW    = "district hw"
	FamilyDistrictSteam = "district steam"
)

// standardTemplates builds the five family templates. The three boiler
// families share one topology and differ only in boiler class and label;
// the two district families share the utility-served topology.
func standardTemplates() []*SystemTemplate {
	return []*SystemTemplate{
		boilerFamily(FamilyBoiler, vocabulary.ClassNaturalGasBoiler, "Natural Gas Boiler"),
		boilerFamily(FamilyCondensing, vocabulary.ClassCondensingBoiler, "Condensing Natural Gas Boiler"),
		boilerFamily(FamilyNonCondensing, vocabulary.ClassNoncondensingBoiler, "Non-Condensing Natural Gas Boiler"),
		districtFamily(FamilyDistrictHW, "District Hot Water System", "District Hot Water Connection"),
		districtFamily(FamilyDistrictSteam, "District Steam to Hot Water System", "District Steam Connection"),
	}
}

// boilerFamily is the dual-loop plant: boilers on a primary loop, a heat
// exchanger decoupling it from the secondary distribution loop, pumps on
// both loops.
func boilerFamily(family, boilerClass, boilerLabel string) *SystemTemplate {
	return &SystemTemplate{
		Family:      family,
		SystemLabel: "Hot Water System",
		District:    false,
		Equipment: []EquipmentSpec{
			{
				Kind: KindHotWaterSystem, Class: vocabulary.ClassHotWaterSystem,
				Vocab:    vocabulary.KindHotWaterSystem,
				IDFormat: "hws", LabelFormat: "Hot Water System",
				Cardinality: One,
				Parent:      KindBuilding, ParentPred: vocabulary.PredIsLocationOf,
			},
			{
				Kind: KindPrimaryLoop, Class: vocabulary.ClassHotWaterLoop,
				Vocab:    vocabulary.KindPrimaryLoop,
				IDFormat: "hws.primary_loop", LabelFormat: "Primary Hot Water Loop",
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindSecondaryLoop, Class: vocabulary.ClassHotWaterLoop,
				Vocab:    vocabulary.KindSecondaryLoop,
				IDFormat: "hws.secondary_loop", LabelFormat: "Secondary Hot Water Loop",
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindHeatExchanger, Class: vocabulary.ClassHeatExchanger,
				IDFormat: "hws.heat_exchanger", LabelFormat: "Primary-Secondary Heat Exchanger",
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindBoiler, Class: boilerClass,
				Vocab:    vocabulary.KindBoiler,
				IDFormat: "boiler%d", LabelFormat: boilerLabel + " %d",
				Cardinality: Counted,
				Parent:      KindPrimaryLoop, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindPrimaryPump, Class: vocabulary.ClassPump,
				IDFormat: "primary_pump1", LabelFormat: "Primary Loop Pump 1",
				Cardinality: One,
				Parent:      KindPrimaryLoop, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindSecondaryPump, Class: vocabulary.ClassPump,
				Vocab:    vocabulary.KindPump,
				IDFormat: "secondary_pump%d", LabelFormat: "Secondary Loop Pump %d",
				Cardinality: Counted, MinCount: 1,
				Parent:      KindSecondaryLoop, ParentPred: vocabulary.PredHasPart,
			},
		},
		Edges: []EdgeSpec{
			{From: KindBoiler, To: KindPrimaryPump, Pred: vocabulary.PredFeeds, Required: true},
			{From: KindBoiler, To: KindPrimaryLoop, Pred: vocabulary.PredFeeds, Required: true},
			{From: KindPrimaryLoop, To: KindHeatExchanger, Pred: vocabulary.PredFeeds, Required: true},
			{From: KindHeatExchanger, To: KindSecondaryLoop, Pred: vocabulary.PredFeeds, Required: true},
			{From: KindPrimaryLoop, To: KindSecondaryLoop, Pred: vocabulary.PredFeeds, Required: false},
		},
	}
}

// districtFamily is the utility-served plant: a service connection feeds a
// heat exchanger feeding the single building loop. No boilers, no primary
// loop.
func districtFamily(family, systemLabel, connectionLabel string) *SystemTemplate {
	return &SystemTemplate{
		Family:      family,
		SystemLabel: systemLabel,
		District:    true,
		Equipment: []EquipmentSpec{
			{
				Kind: KindHotWaterSystem, Class: vocabulary.ClassHotWaterSystem,
				Vocab:    vocabulary.KindHotWaterSystem,
				IDFormat: "hws", LabelFormat: systemLabel,
				Cardinality: One,
				Parent:      KindBuilding, ParentPred: vocabulary.PredIsLocationOf,
			},
			{
				Kind: KindDistrictConnection, Class: vocabulary.ClassDistrictConnection,
				IDFormat: "hws.district_connection", LabelFormat: connectionLabel,
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindHeatExchanger, Class: vocabulary.ClassHeatExchanger,
				IDFormat: "hws.heat_exchanger", LabelFormat: "District Heat Exchanger",
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindSecondaryLoop, Class: vocabulary.ClassHotWaterLoop,
				Vocab:    vocabulary.KindSecondaryLoop,
				IDFormat: "hws.building_loop", LabelFormat: "Building Hot Water Loop",
				Cardinality: One,
				Parent:      KindHotWaterSystem, ParentPred: vocabulary.PredHasPart,
			},
			{
				Kind: KindSecondaryPump, Class: vocabulary.ClassPump,
				Vocab:    vocabulary.KindPump,
				IDFormat: "pump%d", LabelFormat: "Building Loop Pump %d",
				Cardinality: Counted, MinCount: 1,
				Parent:      KindSecondaryLoop, ParentPred: vocabulary.PredHasPart,
			},
		},
		Edges: []EdgeSpec{
			{From: KindDistrictConnection, To: KindHeatExchanger, Pred: vocabulary.PredFeeds, Required: true},
			{From: KindHeatExchanger, To: KindSecondaryLoop, Pred: vocabulary.PredFeeds, Required: true},
		},
	}
}
