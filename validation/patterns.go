package validation

import (
	"fmt"

	"github.com/katalvlaran/lvlath/bfs"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/compiler"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// Pattern names the two recognized plant topologies.
type Pattern string

const (
	PatternBoilerSystem   Pattern = "boiler system"
	PatternDistrictSystem Pattern = "district system"
	PatternNone           Pattern = ""
)

// BoilerChecks are the raw predicates of the boiler-system pattern.
type BoilerChecks struct {
	HasBoiler         bool `json:"has_boiler"`
	LoopFedByBoiler   bool `json:"loop_fed_by_boiler"`
	ExchangerBridges  bool `json:"exchanger_bridges_loops"`
	PrimaryLoopPump   bool `json:"primary_loop_pump"`
	SecondaryLoopPump bool `json:"secondary_loop_pump"`
}

// Matched reports whether every boiler-system predicate holds.
func (c BoilerChecks) Matched() bool {
	return c.HasBoiler && c.LoopFedByBoiler && c.ExchangerBridges &&
		c.PrimaryLoopPump && c.SecondaryLoopPump
}

// DistrictChecks are the raw predicates of the district-system pattern.
type DistrictChecks struct {
	ConnectionFeedsExchanger bool `json:"connection_feeds_exchanger"`
	ExchangerFeedsLoop       bool `json:"exchanger_feeds_loop"`
	HasPump                  bool `json:"has_pump"`
	NoBoilers                bool `json:"no_boilers"`
	NoPrimaryLoop            bool `json:"no_primary_loop"`
}

// Matched reports whether every district-system predicate holds.
func (c DistrictChecks) Matched() bool {
	return c.ConnectionFeedsExchanger && c.ExchangerFeedsLoop &&
		c.HasPump && c.NoBoilers && c.NoPrimaryLoop
}

// PatternResult reports which topology a graph exhibits, with the raw
// predicate values for diagnostics.
type PatternResult struct {
	Matched  Pattern            `json:"matched"`
	Boiler   BoilerChecks       `json:"boiler"`
	District DistrictChecks     `json:"district"`
	Warnings []compiler.Warning `json:"warnings,omitempty"`
}

// ValidatePatterns evaluates both fixed patterns against a graph. For a
// correctly synthesized graph exactly one matches; zero or two matches is
// surfaced as a pattern-mismatch warning, never swallowed.
func ValidatePatterns(g *graph.Graph) (PatternResult, error) {
	topo, err := analyzeTopology(g)
	if err != nil {
		return PatternResult{}, err
	}

	res := PatternResult{
		Boiler:   topo.boilerChecks(),
		District: topo.districtChecks(),
	}

	boilerMatch := res.Boiler.Matched()
	districtMatch := res.District.Matched()
	switch {
	case boilerMatch && !districtMatch:
		res.Matched = PatternBoilerSystem
	case districtMatch && !boilerMatch:
		res.Matched = PatternDistrictSystem
	case boilerMatch && districtMatch:
		res.Warnings = append(res.Warnings, compiler.Warning{
			Code:    compiler.WarnPatternMismatch,
			Message: fmt.Sprintf("building %s: both topology patterns match, synthesis is ambiguous", g.Tag),
		})
	default:
		res.Warnings = append(res.Warnings, compiler.Warning{
			Code:    compiler.WarnPatternMismatch,
			Message: fmt.Sprintf("building %s: no topology pattern matches", g.Tag),
		})
	}
	return res, nil
}

// topology is the digested view of a graph that both patterns read.
type topology struct {
	boilers     []string
	connections []string
	pumps       []string

	// primaryLoops are loops reachable from a boiler via feeds edges;
	// secondaryLoops are loops fed by a heat exchanger.
	primaryLoops   map[string]bool
	secondaryLoops map[string]bool
	loops          []string

	// exchangerBridges is true when some loop feeds an exchanger that
	// feeds a different loop.
	exchangerBridges bool

	connectionFeedsHX bool

	// pumpParents maps pump ID to the loop that hasPart-owns it.
	pumpParents map[string]string
}

func analyzeTopology(g *graph.Graph) (*topology, error) {
	topo := &topology{
		primaryLoops:   make(map[string]bool),
		secondaryLoops: make(map[string]bool),
		pumpParents:    make(map[string]string),
	}

	exchangers := map[string]bool{}
	loopSet := map[string]bool{}
	for _, n := range g.NodesOfKind(graph.KindEquipment) {
		switch {
		case vocabulary.IsSubclassOf(n.Class, vocabulary.ClassBoiler):
			topo.boilers = append(topo.boilers, n.ID)
		case vocabulary.IsSubclassOf(n.Class, vocabulary.ClassDistrictConnection):
			topo.connections = append(topo.connections, n.ID)
		case vocabulary.IsSubclassOf(n.Class, vocabulary.ClassPump):
			topo.pumps = append(topo.pumps, n.ID)
		case vocabulary.IsSubclassOf(n.Class, vocabulary.ClassHeatExchanger):
			exchangers[n.ID] = true
		case vocabulary.IsSubclassOf(n.Class, vocabulary.ClassHotWaterLoop):
			loopSet[n.ID] = true
			topo.loops = append(topo.loops, n.ID)
		}
	}

	// Loops reachable from any boiler are primary loops.
	if len(topo.boilers) > 0 {
		feeds, err := g.FeedsGraph()
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", g.Tag, err)
		}
		for _, boiler := range topo.boilers {
			res, err := bfs.BFS(feeds, boiler)
			if err != nil {
				return nil, fmt.Errorf("building %s: feeds traversal from %s: %w", g.Tag, boiler, err)
			}
			for id := range res.Depth {
				if loopSet[id] && id != boiler {
					topo.primaryLoops[id] = true
				}
			}
		}
	}

	for _, e := range g.Edges() {
		switch e.Predicate {
		case vocabulary.PredFeeds:
			if exchangers[e.Object] {
				for _, conn := range topo.connections {
					if e.Subject == conn {
						topo.connectionFeedsHX = true
					}
				}
				if loopSet[e.Subject] {
					// loop -> exchanger: look for an outgoing loop.
					for _, e2 := range g.Edges() {
						if e2.Predicate == vocabulary.PredFeeds && e2.Subject == e.Object &&
							loopSet[e2.Object] && e2.Object != e.Subject {
							topo.exchangerBridges = true
						}
					}
				}
			}
			if exchangers[e.Subject] && loopSet[e.Object] {
				topo.secondaryLoops[e.Object] = true
			}
		case vocabulary.PredHasPart:
			if loopSet[e.Subject] {
				for _, pump := range topo.pumps {
					if e.Object == pump {
						topo.pumpParents[pump] = e.Subject
					}
				}
			}
		}
	}
	return topo, nil
}

func (t *topology) boilerChecks() BoilerChecks {
	c := BoilerChecks{
		HasBoiler:        len(t.boilers) > 0,
		LoopFedByBoiler:  len(t.primaryLoops) > 0,
		ExchangerBridges: t.exchangerBridges,
	}
	for _, loop := range t.pumpParents {
		if t.primaryLoops[loop] {
			c.PrimaryLoopPump = true
		}
		if t.secondaryLoops[loop] {
			c.SecondaryLoopPump = true
		}
	}
	return c
}

func (t *topology) districtChecks() DistrictChecks {
	c := DistrictChecks{
		ConnectionFeedsExchanger: t.connectionFeedsHX,
		ExchangerFeedsLoop:       len(t.secondaryLoops) > 0,
		NoBoilers:                len(t.boilers) == 0,
		NoPrimaryLoop:            len(t.primaryLoops) == 0,
	}
	for _, loop := range t.pumpParents {
		if t.secondaryLoops[loop] {
			c.HasPump = true
		}
	}
	return c
}
