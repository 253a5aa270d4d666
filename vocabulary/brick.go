package vocabulary

// Namespace prefixes used across graphs and serialized output.
const (
	PrefixBrick = "https://brickschema.org/schema/Brick#"
	PrefixRec   = "https://w3id.org/rec#"
	PrefixRef   = "https://brickschema.org/schema/Brick/ref#"
	PrefixUnit  = "http://qudt.org/vocab/unit/"
	PrefixOwl   = "http://www.w3.org/2002/07/owl#"
	PrefixRDF   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	PrefixRDFS  = "http://www.w3.org/2000/01/rdf-schema#"
	PrefixXSD   = "http://www.w3.org/2001/XMLSchema#"

	// PrefixHHWS holds project-specific classes and properties that Brick
	// does not define, such as firing rate sensors and district connections.
	PrefixHHWS = "https://hhws.buildings.lbl.gov/ontology#"
)

// Equipment and location classes.
const (
	ClassBuilding       = "rec:Building"
	ClassHotWaterSystem = "brick:Hot_Water_System"
	ClassHotWaterLoop   = "brick:Hot_Water_Loop"
	ClassPump           = "brick:Pump"
	ClassHeatExchanger  = "brick:Heat_Exchanger"
	ClassWeatherStation = "brick:Weather_Station"

	ClassBoiler              = "brick:Boiler"
	ClassNaturalGasBoiler    = "brick:Natural_Gas_Boiler"
	ClassCondensingBoiler    = "brick:Condensing_Natural_Gas_Boiler"
	ClassNoncondensingBoiler = "brick:Noncondensing_Natural_Gas_Boiler"

	// ClassDistrictConnection models the utility side of a district hot
	// water or steam service entrance. Brick has no class for it, so it is
	// declared in the project namespace and subclassed under brick:Equipment.
	ClassDistrictConnection = "hhws:District_Connection"
)

// Point classes referenced by the default sensor mapping.
const (
	ClassPoint = "brick:Point"

	ClassSupplyWaterTempSensor = "brick:Supply_Water_Temperature_Sensor"
	ClassReturnWaterTempSensor = "brick:Return_Water_Temperature_Sensor"
	ClassWaterFlowSensor       = "brick:Water_Flow_Sensor"
	ClassSupplyWaterPressure   = "brick:Supply_Water_Pressure_Sensor"
	ClassReturnWaterPressure   = "brick:Return_Water_Pressure_Sensor"
	ClassElectricalPowerSensor = "brick:Electrical_Power_Sensor"
	ClassSpeedSensor           = "brick:Speed_Sensor"
	ClassFrequencySensor       = "brick:Frequency_Sensor"
	ClassOutsideAirTempSensor  = "brick:Outside_Air_Temperature_Sensor"
	ClassOnOffStatus           = "brick:On_Off_Status"
	ClassEnableCommand         = "brick:Enable_Command"

	// ClassFiringRateSensor is a project extension for boiler firing rate
	// signals, declared as a subclass of brick:Sensor in exported graphs.
	ClassFiringRateSensor = "hhws:Firing_Rate_Sensor"
)

// Predicates used as edge labels in equipment graphs.
const (
	PredType         = "rdf:type"
	PredLabel        = "rdfs:label"
	PredSubClassOf   = "rdfs:subClassOf"
	PredHasPart      = "brick:hasPart"
	PredHasPoint     = "brick:hasPoint"
	PredFeeds        = "brick:feeds"
	PredHasUnit      = "brick:hasUnit"
	PredIsLocationOf = "rec:isLocationOf"
	PredSameAs       = "owl:sameAs"

	PredExternalRef  = "ref:hasExternalReference"
	PredTimeseriesID = "ref:hasTimeseriesId"
	PredStoredAt     = "ref:storedAt"
)

// Metadata properties attached to building nodes.
const (
	PropArea             = "hhws:grossFloorArea"
	PropBuildingType     = "hhws:buildingType"
	PropYearBuilt        = "hhws:yearBuilt"
	PropClimateZone      = "hhws:climateZone"
	PropDesignSupplyTemp = "hhws:designSupplyTemperature"
	PropDesignReturnTemp = "hhws:designReturnTemperature"
	PropBoilerInput      = "hhws:ratedInput"
	PropBoilerOutput     = "hhws:ratedOutput"
	PropBoilerEfficiency = "hhws:ratedEfficiency"
	PropManufacturer     = "hhws:manufacturer"
	PropModel            = "hhws:model"
)

// subclassOf records the direct parent of every class the compiler can
// emit. Count validation walks this table so a graph typed with
// brick:Condensing_Natural_Gas_Boiler still counts as a brick:Boiler.
var subclassOf = map[string]string{
	ClassNaturalGasBoiler:    ClassBoiler,
	ClassCondensingBoiler:    ClassNaturalGasBoiler,
	ClassNoncondensingBoiler: ClassNaturalGasBoiler,
	ClassBoiler:              "brick:Equipment",
	ClassPump:                "brick:Equipment",
	ClassHeatExchanger:       "brick:Equipment",
	ClassWeatherStation:      "brick:Equipment",
	ClassDistrictConnection:  "brick:Equipment",
	ClassHotWaterLoop:        "brick:Water_Loop",
	ClassHotWaterSystem:      "brick:Water_System",

	ClassSupplyWaterTempSensor: "brick:Water_Temperature_Sensor",
	ClassReturnWaterTempSensor: "brick:Water_Temperature_Sensor",
	"brick:Water_Temperature_Sensor": "brick:Temperature_Sensor",
	"brick:Temperature_Sensor":       "brick:Sensor",
	ClassWaterFlowSensor:             "brick:Flow_Sensor",
	"brick:Flow_Sensor":              "brick:Sensor",
	ClassSupplyWaterPressure:         "brick:Pressure_Sensor",
	ClassReturnWaterPressure:         "brick:Pressure_Sensor",
	"brick:Pressure_Sensor":          "brick:Sensor",
	ClassElectricalPowerSensor:       "brick:Power_Sensor",
	"brick:Power_Sensor":             "brick:Sensor",
	ClassSpeedSensor:                 "brick:Sensor",
	ClassFrequencySensor:             "brick:Sensor",
	ClassOutsideAirTempSensor:        "brick:Temperature_Sensor",
	ClassFiringRateSensor:            "brick:Sensor",
	ClassOnOffStatus:                 "brick:Status",
	ClassEnableCommand:               "brick:Command",
	"brick:Sensor":                   ClassPoint,
	"brick:Status":                   ClassPoint,
	"brick:Command":                  ClassPoint,
}

// IsSubclassOf reports whether class equals ancestor or is a transitive
// subclass of it according to the built-in hierarchy.
func IsSubclassOf(class, ancestor string) bool {
	for c := class; c != ""; c = subclassOf[c] {
		if c == ancestor {
			return true
		}
	}
	return false
}

// ParentClass returns the direct superclass of class, or "" when the
// hierarchy does not know it.
func ParentClass(class string) string {
	return subclassOf[class]
}
