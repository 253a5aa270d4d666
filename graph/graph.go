// Package graph defines the typed equipment graph produced by compilation:
// a building node, equipment-instance nodes, point nodes, and the directed
// edges between them. Node and edge sets are deterministic so repeated
// compiles of the same inputs produce identical graphs.
package graph

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/lvlath/core"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// NodeKind distinguishes the three node categories.
type NodeKind int

const (
	KindBuilding NodeKind = iota
	KindEquipment
	KindPoint
)

func (k NodeKind) String() string {
	switch k {
	case KindBuilding:
		return "building"
	case KindEquipment:
		return "equipment"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Node is one vertex of the equipment graph.
type Node struct {
	// ID is unique within the graph and stable across compiles.
	ID string
	// Kind is the node category.
	Kind NodeKind
	// Class is the semantic type, e.g. brick:Condensing_Natural_Gas_Boiler.
	Class string
	// Label is the human-readable name.
	Label string
	// Role is the sensor role a point node was created from. Empty for
	// building and equipment nodes.
	Role string
	// Unit is the QUDT unit IRI for point nodes that carry one.
	Unit string
}

// Edge is one directed, labelled edge.
type Edge struct {
	Subject   string
	Predicate string
	Object    string
}

// Literal attaches a scalar value to a node, e.g. a building's floor area.
type Literal struct {
	Subject   string
	Predicate string
	Value     any
}

// Graph is a building's equipment graph.
type Graph struct {
	// Tag is the building identifier.
	Tag string
	// Family is the resolved system family the graph was synthesized for.
	Family string

	nodes   map[string]*Node
	order   []string
	edges   []Edge
	edgeSet map[Edge]struct{}

	literals []Literal

	// canonical maps an aliased point ID to the point it shares a
	// physical sensor with. Canonical points map to themselves.
	canonical map[string]string
}

// New creates an empty graph for a building.
func New(tag, family string) *Graph {
	return &Graph{
		Tag:       tag,
		Family:    family,
		nodes:     make(map[string]*Node),
		edgeSet:   make(map[Edge]struct{}),
		canonical: make(map[string]string),
	}
}

// AddNode inserts a node. Node IDs must be unique within the graph.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("node has empty ID")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("duplicate node ID %q", n.ID)
	}
	node := n
	g.nodes[n.ID] = &node
	g.order = append(g.order, n.ID)
	if n.Kind == KindPoint {
		g.canonical[n.ID] = n.ID
	}
	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist.
// Re-adding an identical edge is a no-op.
func (g *Graph) AddEdge(subject, predicate, object string) error {
	if _, ok := g.nodes[subject]; !ok {
		return fmt.Errorf("edge subject %q not in graph", subject)
	}
	if _, ok := g.nodes[object]; !ok {
		return fmt.Errorf("edge object %q not in graph", object)
	}
	e := Edge{Subject: subject, Predicate: predicate, Object: object}
	if _, dup := g.edgeSet[e]; dup {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

// AddLiteral attaches a scalar property to an existing node.
func (g *Graph) AddLiteral(subject, predicate string, value any) error {
	if _, ok := g.nodes[subject]; !ok {
		return fmt.Errorf("literal subject %q not in graph", subject)
	}
	g.literals = append(g.literals, Literal{Subject: subject, Predicate: predicate, Value: value})
	return nil
}

// Alias marks point `id` as the same physical sensor as point `canonical`
// and records the owl:sameAs edge. Both must be point nodes.
func (g *Graph) Alias(id, canonical string) error {
	a, ok := g.nodes[id]
	if !ok || a.Kind != KindPoint {
		return fmt.Errorf("alias %q is not a point node", id)
	}
	c, ok := g.nodes[canonical]
	if !ok || c.Kind != KindPoint {
		return fmt.Errorf("alias target %q is not a point node", canonical)
	}
	g.canonical[id] = g.Canonical(canonical)
	return g.AddEdge(id, vocabulary.PredSameAs, canonical)
}

// Canonical resolves a point ID through the equivalence relation.
func (g *Graph) Canonical(id string) string {
	seen := map[string]bool{}
	for {
		next, ok := g.canonical[id]
		if !ok || next == id || seen[id] {
			return id
		}
		seen[id] = true
		id = next
	}
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns nodes of one category, in insertion order.
func (g *Graph) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Literals returns all literals in insertion order.
func (g *Graph) Literals() []Literal {
	out := make([]Literal, len(g.literals))
	copy(out, g.literals)
	return out
}

// HasEdge reports whether the exact edge exists.
func (g *Graph) HasEdge(subject, predicate, object string) bool {
	_, ok := g.edgeSet[Edge{Subject: subject, Predicate: predicate, Object: object}]
	return ok
}

// Objects returns the objects of all edges with the given subject and
// predicate, sorted.
func (g *Graph) Objects(subject, predicate string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Subject == subject && e.Predicate == predicate {
			out = append(out, e.Object)
		}
	}
	sort.Strings(out)
	return out
}

// Subjects returns the subjects of all edges with the given predicate and
// object, sorted.
func (g *Graph) Subjects(predicate, object string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Predicate == predicate && e.Object == object {
			out = append(out, e.Subject)
		}
	}
	sort.Strings(out)
	return out
}

// CountPoints returns the number of distinct physical sensors: point nodes
// counted after collapsing the equivalence relation.
func (g *Graph) CountPoints() int {
	distinct := map[string]struct{}{}
	for _, id := range g.order {
		if g.nodes[id].Kind == KindPoint {
			distinct[g.Canonical(id)] = struct{}{}
		}
	}
	return len(distinct)
}

// CountClass returns the number of equipment nodes whose class is the
// given class or a subclass of it.
func (g *Graph) CountClass(ancestor string) int {
	n := 0
	for _, id := range g.order {
		node := g.nodes[id]
		if node.Kind == KindEquipment && vocabulary.IsSubclassOf(node.Class, ancestor) {
			n++
		}
	}
	return n
}

// FeedsGraph projects the feeds-edges onto a directed lvlath graph for
// reachability queries.
func (g *Graph) FeedsGraph() (*core.Graph, error) {
	lg, err := core.NewGraph(core.WithDirected(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create feeds graph: %w", err)
	}
	for _, id := range g.order {
		if g.nodes[id].Kind != KindPoint {
			if err := lg.AddVertex(id); err != nil {
				return nil, fmt.Errorf("failed to project node %s: %w", id, err)
			}
		}
	}
	for _, e := range g.edges {
		if e.Predicate != vocabulary.PredFeeds {
			continue
		}
		if _, err := lg.AddEdge(e.Subject, e.Object, 0); err != nil {
			return nil, fmt.Errorf("failed to project edge %s feeds %s: %w", e.Subject, e.Object, err)
		}
	}
	return lg, nil
}
