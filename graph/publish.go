package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for downstream consumers of compiled graphs and reports.
const (
	GraphSubject  = "hhw.graph.compiled"
	ReportSubject = "hhw.validation.report"
)

// GraphMessage is the payload published when a building compiles.
type GraphMessage struct {
	Tag        string    `json:"tag"`
	Family     string    `json:"family"`
	Format     string    `json:"format"`
	Serialized string    `json:"serialized"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	CompiledAt time.Time `json:"compiled_at"`
}

// PublishGraph publishes a serialized graph. A nil connection skips
// publishing so callers without messaging configured degrade gracefully.
func PublishGraph(ctx context.Context, nc *nats.Conn, g *Graph, format, serialized string) error {
	if nc == nil {
		return nil
	}
	msg := GraphMessage{
		Tag:        g.Tag,
		Family:     g.Family,
		Format:     format,
		Serialized: serialized,
		NodeCount:  len(g.Nodes()),
		EdgeCount:  len(g.Edges()),
		CompiledAt: time.Now().UTC(),
	}
	return publishJSON(ctx, nc, GraphSubject, msg)
}

// PublishReport publishes a validation report for one building. The report
// is marshalled as-is; a nil connection skips publishing.
func PublishReport(ctx context.Context, nc *nats.Conn, report any) error {
	if nc == nil {
		return nil
	}
	return publishJSON(ctx, nc, ReportSubject, report)
}

func publishJSON(ctx context.Context, nc *nats.Conn, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", subject, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
