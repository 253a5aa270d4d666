package compiler

import (
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/source"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/template"
)

// Compile runs interpretation and synthesis for one building and merges
// the warnings from both stages.
func (s *Synthesizer) Compile(rec source.BuildingRecord, row source.AvailabilityRow, reg *template.Registry) (*graph.Graph, []Warning, error) {
	res, err := Interpret(rec, row, reg)
	if err != nil {
		return nil, nil, err
	}
	g, synthWarnings, err := s.Synthesize(rec, row, res)
	if err != nil {
		return nil, nil, err
	}
	warnings := append(append([]Warning{}, res.Warnings...), synthWarnings...)
	return g, warnings, nil
}
