// Package export serializes equipment graphs to RDF: Turtle, N-Triples,
// and JSON-LD.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/graph"
	"github.com/CenterForTheBuiltEnvironment/hhw-brick/vocabulary"
)

// Format is the serialization format for exported graphs.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSONLD   Format = "jsonld"
)

// ParseFormat resolves a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "nt", "n-triples":
		return FormatNTriples, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Ext returns the conventional file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatNTriples:
		return ".nt"
	case FormatJSONLD:
		return ".jsonld"
	default:
		return ".ttl"
	}
}

// EntityPrefix is the instance namespace for compiled buildings.
const EntityPrefix = "https://hhws.buildings.lbl.gov/building#"

// Exporter serializes equipment graphs. Prefix handling and the custom
// class declarations are shared across formats.
type Exporter struct {
	prefixes map[string]string
}

// NewExporter creates an exporter with the standard prefix table.
func NewExporter() *Exporter {
	return &Exporter{prefixes: defaultPrefixes()}
}

func defaultPrefixes() map[string]string {
	return map[string]string{
		"brick": vocabulary.PrefixBrick,
		"rec":   vocabulary.PrefixRec,
		"ref":   vocabulary.PrefixRef,
		"unit":  vocabulary.PrefixUnit,
		"owl":   vocabulary.PrefixOwl,
		"rdf":   vocabulary.PrefixRDF,
		"rdfs":  vocabulary.PrefixRDFS,
		"xsd":   vocabulary.PrefixXSD,
		"hhws":  vocabulary.PrefixHHWS,
		"bldg":  EntityPrefix,
	}
}

// Export serializes a graph to the requested format.
func (e *Exporter) Export(g *graph.Graph, format Format) (string, error) {
	doc := e.collect(g)
	switch format {
	case FormatTurtle:
		return e.toTurtle(doc), nil
	case FormatNTriples:
		return e.toNTriples(doc), nil
	case FormatJSONLD:
		return e.toJSONLD(doc), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// FileName builds the conventional output file name for a compiled
// building: building_<tag>_<family>_<org><ext>.
func FileName(tag, family, org string, format Format) string {
	slug := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
		return s
	}
	parts := []string{"building", slug(tag), slug(family)}
	if org != "" {
		parts = append(parts, slug(org))
	}
	return strings.Join(parts, "_") + format.Ext()
}

// triple is one statement ready for serialization. Objects are either
// curie strings (resolved against the prefix table), plain literals, or
// typed Go values.
type triple struct {
	Pred string
	Obj  any
}

// tsRef is the external timeseries reference attached to a point.
type tsRef struct {
	ID       string
	StoredAt string
}

// subject groups everything said about one node.
type subject struct {
	Curie   string
	Triples []triple
	TS      *tsRef
}

// document is the ordered, format-independent view of a graph.
type document struct {
	Subjects []subject
}

// customClasses declares the project extension classes so exported graphs
// stay self-describing.
var customClasses = []subject{
	{
		Curie: vocabulary.ClassFiringRateSensor,
		Triples: []triple{
			{vocabulary.PredType, "owl:Class"},
			{vocabulary.PredSubClassOf, "brick:Sensor"},
			{vocabulary.PredLabel, "Firing Rate Sensor"},
		},
	},
	{
		Curie: vocabulary.ClassDistrictConnection,
		Triples: []triple{
			{vocabulary.PredType, "owl:Class"},
			{vocabulary.PredSubClassOf, "brick:Equipment"},
			{vocabulary.PredLabel, "District Connection"},
		},
	},
}

func (e *Exporter) collect(g *graph.Graph) document {
	doc := document{Subjects: append([]subject{}, customClasses...)}

	literals := map[string][]triple{}
	refs := map[string]*tsRef{}
	for _, l := range g.Literals() {
		switch l.Predicate {
		case vocabulary.PredTimeseriesID:
			r := refOf(refs, l.Subject)
			r.ID = fmt.Sprint(l.Value)
		case vocabulary.PredStoredAt:
			r := refOf(refs, l.Subject)
			r.StoredAt = fmt.Sprint(l.Value)
		default:
			literals[l.Subject] = append(literals[l.Subject], triple{l.Predicate, l.Value})
		}
	}

	edges := map[string][]triple{}
	for _, edge := range g.Edges() {
		edges[edge.Subject] = append(edges[edge.Subject], triple{edge.Predicate, "bldg:" + edge.Object})
	}

	for _, n := range g.Nodes() {
		s := subject{Curie: "bldg:" + n.ID}
		s.Triples = append(s.Triples, triple{vocabulary.PredType, n.Class})
		if n.Label != "" {
			s.Triples = append(s.Triples, triple{vocabulary.PredLabel, n.Label})
		}
		if n.Unit != "" {
			s.Triples = append(s.Triples, triple{vocabulary.PredHasUnit, n.Unit})
		}
		s.Triples = append(s.Triples, literals[n.ID]...)
		s.Triples = append(s.Triples, edges[n.ID]...)
		s.TS = refs[n.ID]
		doc.Subjects = append(doc.Subjects, s)
	}
	return doc
}

func refOf(refs map[string]*tsRef, subject string) *tsRef {
	if r, ok := refs[subject]; ok {
		return r
	}
	r := &tsRef{}
	refs[subject] = r
	return r
}

// toTurtle serializes with prefixed names, one subject block per node.
func (e *Exporter) toTurtle(doc document) string {
	var sb strings.Builder

	prefixKeys := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		prefixKeys = append(prefixKeys, k)
	}
	sort.Strings(prefixKeys)
	for _, prefix := range prefixKeys {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, e.prefixes[prefix])
	}
	sb.WriteString("\n")

	for _, s := range doc.Subjects {
		sb.WriteString(s.Curie)
		sb.WriteString("\n")
		total := len(s.Triples)
		if s.TS != nil {
			total++
		}
		for i, t := range s.Triples {
			fmt.Fprintf(&sb, "    %s %s", turtlePredicate(t.Pred), e.formatObject(t.Obj))
			sb.WriteString(terminator(i, total))
		}
		if s.TS != nil {
			fmt.Fprintf(&sb, "    %s [ a ref:TimeseriesReference ; ref:hasTimeseriesId %q ; ref:storedAt %q ]",
				vocabulary.PredExternalRef, s.TS.ID, s.TS.StoredAt)
			sb.WriteString(terminator(total-1, total))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func terminator(i, total int) string {
	if i < total-1 {
		return " ;\n"
	}
	return " .\n"
}

// turtlePredicate renders rdf:type as "a" per Turtle convention.
func turtlePredicate(pred string) string {
	if pred == vocabulary.PredType {
		return "a"
	}
	return pred
}

// toNTriples serializes with fully expanded IRIs, one statement per line.
func (e *Exporter) toNTriples(doc document) string {
	var sb strings.Builder
	bnode := 0
	for _, s := range doc.Subjects {
		subjIRI := e.expand(s.Curie)
		for _, t := range s.Triples {
			fmt.Fprintf(&sb, "<%s> <%s> %s .\n", subjIRI, e.expand(t.Pred), e.formatObjectNTriples(t.Obj))
		}
		if s.TS != nil {
			bnode++
			b := fmt.Sprintf("_:ts%d", bnode)
			fmt.Fprintf(&sb, "<%s> <%s> %s .\n", subjIRI, e.expand(vocabulary.PredExternalRef), b)
			fmt.Fprintf(&sb, "%s <%s> <%s> .\n", b, e.expand(vocabulary.PredType), e.expand("ref:TimeseriesReference"))
			fmt.Fprintf(&sb, "%s <%s> \"%s\" .\n", b, e.expand(vocabulary.PredTimeseriesID), escapeString(s.TS.ID))
			fmt.Fprintf(&sb, "%s <%s> \"%s\" .\n", b, e.expand(vocabulary.PredStoredAt), escapeString(s.TS.StoredAt))
		}
	}
	return sb.String()
}

// toJSONLD serializes as a @context plus flat @graph.
func (e *Exporter) toJSONLD(doc document) string {
	var sb strings.Builder
	sb.WriteString("{\n  \"@context\": {\n")

	prefixKeys := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		prefixKeys = append(prefixKeys, k)
	}
	sort.Strings(prefixKeys)
	for i, prefix := range prefixKeys {
		fmt.Fprintf(&sb, "    %q: %q", prefix, e.prefixes[prefix])
		if i < len(prefixKeys)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  },\n  \"@graph\": [\n")

	for si, s := range doc.Subjects {
		fmt.Fprintf(&sb, "    {\n      \"@id\": %q", s.Curie)
		for _, t := range s.Triples {
			sb.WriteString(",\n")
			key := t.Pred
			if t.Pred == vocabulary.PredType {
				key = "@type"
			}
			fmt.Fprintf(&sb, "      %q: %s", key, e.formatObjectJSONLD(t.Obj, t.Pred == vocabulary.PredType))
		}
		if s.TS != nil {
			sb.WriteString(",\n")
			fmt.Fprintf(&sb,
				"      %q: {\"@type\": \"ref:TimeseriesReference\", \"ref:hasTimeseriesId\": %q, \"ref:storedAt\": %q}",
				vocabulary.PredExternalRef, s.TS.ID, s.TS.StoredAt)
		}
		sb.WriteString("\n    }")
		if si < len(doc.Subjects)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ]\n}\n")
	return sb.String()
}

// isCurie reports whether a string resolves against the prefix table.
func (e *Exporter) isCurie(s string) bool {
	prefix, _, ok := strings.Cut(s, ":")
	if !ok {
		return false
	}
	_, known := e.prefixes[prefix]
	return known
}

// expand resolves a curie to a full IRI; non-curies pass through.
func (e *Exporter) expand(s string) string {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return s
	}
	base, known := e.prefixes[prefix]
	if !known {
		return s
	}
	return base + local
}

// formatObject renders an object term for Turtle.
func (e *Exporter) formatObject(obj any) string {
	switch v := obj.(type) {
	case string:
		if e.isCurie(v) {
			return v
		}
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^xsd:integer", v)
	case float32, float64:
		return fmt.Sprintf("\"%v\"^^xsd:decimal", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^xsd:boolean", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// formatObjectNTriples renders an object term with expanded IRIs.
func (e *Exporter) formatObjectNTriples(obj any) string {
	switch v := obj.(type) {
	case string:
		if e.isCurie(v) {
			return fmt.Sprintf("<%s>", e.expand(v))
		}
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^<%sinteger>", v, vocabulary.PrefixXSD)
	case float32, float64:
		return fmt.Sprintf("\"%v\"^^<%sdecimal>", v, vocabulary.PrefixXSD)
	case bool:
		return fmt.Sprintf("\"%t\"^^<%sboolean>", v, vocabulary.PrefixXSD)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// formatObjectJSONLD renders an object term as a JSON value.
func (e *Exporter) formatObjectJSONLD(obj any, asType bool) string {
	switch v := obj.(type) {
	case string:
		if asType {
			return fmt.Sprintf("%q", v)
		}
		if e.isCurie(v) {
			return fmt.Sprintf("{\"@id\": %q}", v)
		}
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// escapeString escapes special characters for RDF string literals.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
