package validation

import (
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// CountCheck compares one expected count against the graph.
type CountCheck struct {
	Expected int     `json:"expected"`
	Actual   int     `json:"actual"`
	Match    bool    `json:"match"`
	Accuracy float64 `json:"accuracy"`
}

// CountResult is the structural validation of one graph against its
// ground truth record.
type CountResult struct {
	Tag             string     `json:"tag"`
	Points          CountCheck `json:"points"`
	Boilers         CountCheck `json:"boilers"`
	Pumps           CountCheck `json:"pumps"`
	WeatherStations CountCheck `json:"weather_stations"`
	OverallSuccess  bool       `json:"overall_success"`
}

// ValidateCounts counts the graph's actual points and equipment and
// compares them to the oracle. Equipment counting is subclass-aware: a
// condensing boiler counts as a boiler.
func ValidateCounts(g *graph.Graph, gt GroundTruthRecord) CountResult {
	expectedWeather := 0
	if gt.WeatherStation {
		expectedWeather = 1
	}

	res := CountResult{
		Tag:             gt.Tag,
		Points:          check(gt.PointCount, g.CountPoints()),
		Boilers:         check(gt.BoilerCount, g.CountClass(vocabulary.ClassBoiler)),
		Pumps:           check(gt.PumpCount, g.CountClass(vocabulary.ClassPump)),
		WeatherStations: check(expectedWeather, g.CountClass(vocabulary.ClassWeatherStation)),
	}
	res.OverallSuccess = res.Points.Match && res.Boilers.Match &&
		res.Pumps.Match && res.WeatherStations.Match
	return res
}

// check computes the accuracy percentage for one category. Overshoot is
// reported as expected/actual so the percentage stays meaningful instead
// of exceeding 100.
func check(expected, actual int) CountCheck {
	c := CountCheck{Expected: expected, Actual: actual, Match: expected == actual}
	switch {
	case expected == actual:
		c.Accuracy = 100
	case expected == 0 || actual == 0:
		c.Accuracy = 0
	case actual < expected:
		c.Accuracy = float64(actual) / float64(expected) * 100
	default:
		c.Accuracy = float64(expected) / float64(actual) * 100
	}
	return c
}
