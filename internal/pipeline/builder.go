/*
 * Copyright 2025 The db-ontology-builder Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// Builder synthesizes pipelines and datasets from a snapshot and its
// relationship graph.
type Builder struct {
	md     *metadata.DatabaseMetadata
	graph  *Graph
	tables map[string]*metadata.Table
	logger *zap.Logger
}

// NewBuilder constructs a Builder, rebuilding the relationship graph from the
// snapshot.
func NewBuilder(md *metadata.DatabaseMetadata, logger *zap.Logger) (*Builder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g, err := BuildGraph(md)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]*metadata.Table, len(md.Tables))
	for i := range md.Tables {
		tables[md.Tables[i].Name] = &md.Tables[i]
	}
	return &Builder{md: md, graph: g, tables: tables, logger: logger}, nil
}

// Graph returns the relationship graph built from the snapshot.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// CreatePipeline builds a join pipeline over the given source tables, in
// order. Consecutive tables are connected by the cheapest path in the
// relationship graph, trying the forward direction first and the reverse
// direction second. columns optionally restricts the output columns per
// table; nil selects every column.
func (b *Builder) CreatePipeline(name string, sourceTables []string, joinType JoinType, columns map[string][]string) (*Pipeline, error) {
	if len(sourceTables) < 2 {
		return nil, fmt.Errorf("pipeline %q needs at least 2 source tables, got %d", name, len(sourceTables))
	}
	if joinType == "" {
		joinType = JoinLeft
	}
	if !joinType.Valid() {
		return nil, fmt.Errorf("unknown join type %q", joinType)
	}
	for _, t := range sourceTables {
		if _, ok := b.tables[t]; !ok {
			return nil, fmt.Errorf("unknown table %q", t)
		}
	}

	var steps []PipelineStep
	base := sourceTables[0]
	for i, next := range sourceTables[1:] {
		path := b.graph.ShortestPath(base, next)
		if path == nil {
			path = b.graph.ShortestPath(next, base)
		}
		if path == nil {
			return nil, &NoPathError{From: base, To: next}
		}

		step := PipelineStep{
			ID:          fmt.Sprintf("join_%d", i+1),
			Type:        StepJoin,
			JoinType:    joinType,
			Description: fmt.Sprintf("join %s to %s via %d hop(s)", base, next, path.Hops()),
		}
		for _, rel := range path.Relationships {
			step.Conditions = append(step.Conditions, JoinCondition{
				LeftTable:   rel.SourceTable,
				LeftColumn:  rel.SourceColumn,
				RightTable:  rel.TargetTable,
				RightColumn: rel.TargetColumn,
				Operator:    "=",
			})
		}
		steps = append(steps, step)
		base = next
	}

	return &Pipeline{
		ID:             "pipeline_" + shortID(),
		Name:           name,
		Description:    fmt.Sprintf("joins %s", strings.Join(sourceTables, ", ")),
		SourceTables:   sourceTables,
		Steps:          steps,
		ColumnMappings: b.columnMappings(sourceTables, columns),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// columnMappings selects the output columns. With more than one source table
// every target column is prefixed with its table name to avoid collisions.
func (b *Builder) columnMappings(sourceTables []string, columns map[string][]string) []ColumnMapping {
	prefix := len(sourceTables) > 1
	var mappings []ColumnMapping
	for _, tableName := range sourceTables {
		t := b.tables[tableName]
		selected := columns[tableName]
		for i := range t.Columns {
			col := &t.Columns[i]
			if selected != nil && !contains(selected, col.Name) {
				continue
			}
			target := col.Name
			if prefix {
				target = tableName + "_" + col.Name
			}
			mappings = append(mappings, ColumnMapping{
				SourceTable:  tableName,
				SourceColumn: col.Name,
				TargetColumn: target,
			})
		}
	}
	return mappings
}

// CreateStarSchemaPipeline joins a fact table with every dimension table it
// points at, where a dimension is the target of a relationship whose source
// is the fact table.
func (b *Builder) CreateStarSchemaPipeline(factTable string) (*Pipeline, error) {
	if _, ok := b.tables[factTable]; !ok {
		return nil, fmt.Errorf("unknown table %q", factTable)
	}

	seen := map[string]bool{factTable: true}
	tables := []string{factTable}
	for _, rel := range b.md.DetectedRelationships {
		if rel.SourceTable != factTable || seen[rel.TargetTable] {
			continue
		}
		if _, ok := b.tables[rel.TargetTable]; !ok {
			continue
		}
		seen[rel.TargetTable] = true
		tables = append(tables, rel.TargetTable)
	}
	if len(tables) < 2 {
		return nil, fmt.Errorf("table %q has no outgoing relationships to build a star schema from", factTable)
	}
	return b.CreatePipeline("star_"+factTable, tables, JoinLeft, nil)
}

// GenerateDatasets builds one dataset per high confidence relationship,
// deduplicated by unordered table pair. A pair whose pipeline cannot be
// built is logged and skipped.
func (b *Builder) GenerateDatasets() []Dataset {
	var datasets []Dataset
	seen := make(map[string]bool)
	for _, rel := range b.md.DetectedRelationships {
		if rel.Confidence != metadata.ConfidenceHigh {
			continue
		}
		a, c := rel.SourceTable, rel.TargetTable
		key := a + "\x00" + c
		if c < a {
			key = c + "\x00" + a
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		name := fmt.Sprintf("%s_%s_dataset", a, c)
		p, err := b.CreatePipeline(name, []string{a, c}, JoinLeft, nil)
		if err != nil {
			b.logger.Warn("skipping dataset",
				zap.String("source", a),
				zap.String("target", c),
				zap.Error(err))
			continue
		}
		datasets = append(datasets, Dataset{
			ID:           "dataset_" + shortID(),
			Name:         name,
			Description:  fmt.Sprintf("dataset joining %s with %s", a, c),
			SourceTables: []string{a, c},
			Pipeline:     p,
			Provenance:   rel.Reason,
			CreatedAt:    time.Now().UTC(),
		})
	}
	return datasets
}

// JoinRecommendations classifies tables by how the detected relationships
// use them: a table that is the source of two or more relationships is a hub,
// a table that is the source of none is isolated.
func (b *Builder) JoinRecommendations() []JoinRecommendation {
	targets := make(map[string][]string)
	for _, rel := range b.md.DetectedRelationships {
		targets[rel.SourceTable] = append(targets[rel.SourceTable], rel.TargetTable)
	}

	var recs []JoinRecommendation
	for i := range b.md.Tables {
		name := b.md.Tables[i].Name
		related := targets[name]
		switch {
		case len(related) >= 2:
			recs = append(recs, JoinRecommendation{
				Table:         name,
				Kind:          RecommendationHub,
				RelatedTables: related,
				Note:          fmt.Sprintf("%s references %d tables and is a natural join center", name, len(related)),
			})
		case len(related) == 0:
			recs = append(recs, JoinRecommendation{
				Table: name,
				Kind:  RecommendationIsolated,
				Note:  fmt.Sprintf("%s has no detected outgoing relationships", name),
			})
		}
	}
	return recs
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
