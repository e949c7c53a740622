// Package graphstore exports the layer graph of a run into Neo4j.
package graphstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smith-xyz/pyhealth/pkg/analysis/dependency"
	"github.com/smith-xyz/pyhealth/pkg/models"
)

// Statement is one parameterised Cypher query
type Statement struct {
	Cypher string
	Params map[string]any
}

// Runner executes a statement
type Runner func(ctx context.Context, st Statement) error

// Exporter writes a project's layers, imports and cycles as a current
// snapshot, replacing any earlier export of the same project.
type Exporter struct {
	logger *slog.Logger
	run    Runner
	close  func(ctx context.Context) error
}

// Connect opens a Neo4j driver and returns an exporter backed by it.
func Connect(ctx context.Context, logger *slog.Logger, uri, user, password string) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}
	run := func(ctx context.Context, st Statement) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, st.Cypher, st.Params, neo4j.EagerResultTransformer)
		return err
	}
	return &Exporter{logger: logger, run: run, close: driver.Close}, nil
}

// NewExporter creates an exporter that sends statements to run.
func NewExporter(logger *slog.Logger, run Runner) *Exporter {
	return &Exporter{logger: logger, run: run}
}

// Close releases the driver, if any.
func (e *Exporter) Close(ctx context.Context) error {
	if e.close == nil {
		return nil
	}
	return e.close(ctx)
}

// Export replaces the stored graph of project with result.
func (e *Exporter) Export(ctx context.Context, project string, result *dependency.Result) error {
	statements := Statements(project, result)
	e.logger.Info("exporting layer graph to neo4j", "project", project, "layers", len(result.Graph.Layers), "statements", len(statements))
	for _, st := range statements {
		if err := e.run(ctx, st); err != nil {
			return fmt.Errorf("failed to export layer graph: %w", err)
		}
	}
	return nil
}

// Statements builds the queries Export runs, in order: indexes, removal of the
// previous snapshot, layer nodes, import edges.
func Statements(project string, result *dependency.Result) []Statement {
	statements := []Statement{
		{Cypher: "CREATE INDEX py_layer_key IF NOT EXISTS FOR (n:Layer) ON (n.project, n.name)"},
		{
			Cypher: "MATCH (n:Layer {project: $project}) DETACH DELETE n",
			Params: map[string]any{"project": project},
		},
	}

	graph := result.Graph.Layers
	layers := graph.Layers()
	nodes := make([]map[string]any, 0, len(layers))
	for _, layer := range layers {
		nodes = append(nodes, map[string]any{"name": layer, "imports": len(graph[layer])})
	}
	statements = append(statements, Statement{
		Cypher: `UNWIND $batch AS row
		 MERGE (n:Layer {project: $project, name: row.name})
		 SET n.import_count = row.imports`,
		Params: map[string]any{"project": project, "batch": nodes},
	})

	inCycle := cycleEdges(result.Cycles)
	var edges []map[string]any
	for _, from := range sortedKeys(graph) {
		for _, to := range graph[from] {
			row := map[string]any{"from": from, "to": to, "in_cycle": inCycle[[2]string{from, to}]}
			if ref, ok := result.Graph.Evidence(from, to); ok {
				row["path"] = ref.Path
				row["line"] = ref.Line
			}
			edges = append(edges, row)
		}
	}
	if len(edges) > 0 {
		statements = append(statements, Statement{
			Cypher: `UNWIND $batch AS row
			 MATCH (a:Layer {project: $project, name: row.from}), (b:Layer {project: $project, name: row.to})
			 MERGE (a)-[r:IMPORTS]->(b)
			 SET r.in_cycle = row.in_cycle, r.path = row.path, r.line = row.line`,
			Params: map[string]any{"project": project, "batch": edges},
		})
	}
	return statements
}

func cycleEdges(cycles []models.Cycle) map[[2]string]bool {
	edges := make(map[[2]string]bool)
	for _, c := range cycles {
		for i := 0; i+1 < len(c); i++ {
			edges[[2]string{c[i], c[i+1]}] = true
		}
	}
	return edges
}

func sortedKeys(g models.LayerGraph) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
