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

// Package pipeline builds a weighted relationship graph over detected
// relationships and synthesizes join pipelines and datasets from it.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// JoinType is the SQL join flavor used by a join step.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

// SQL returns the join keyword for this type.
func (j JoinType) SQL() string {
	if j == JoinCross {
		return "CROSS JOIN"
	}
	return string(j) + " JOIN"
}

// Valid reports whether j is a known join type.
func (j JoinType) Valid() bool {
	switch j {
	case JoinInner, JoinLeft, JoinRight, JoinFull, JoinCross:
		return true
	}
	return false
}

// AggregationType is the aggregation applied by an aggregate step.
type AggregationType string

const (
	AggSum     AggregationType = "sum"
	AggCount   AggregationType = "count"
	AggAvg     AggregationType = "avg"
	AggMin     AggregationType = "min"
	AggMax     AggregationType = "max"
	AggGroupBy AggregationType = "group_by"
)

// JoinCondition is a single equality predicate between two table columns.
type JoinCondition struct {
	LeftTable   string `json:"left_table"`
	LeftColumn  string `json:"left_column"`
	RightTable  string `json:"right_table"`
	RightColumn string `json:"right_column"`
	Operator    string `json:"operator"`
}

// ToSQL renders the predicate as qualified column references.
func (c JoinCondition) ToSQL() string {
	op := c.Operator
	if op == "" {
		op = "="
	}
	return fmt.Sprintf("%s.%s %s %s.%s", c.LeftTable, c.LeftColumn, op, c.RightTable, c.RightColumn)
}

// ColumnMapping maps a source column into the pipeline output, optionally
// through a transformation expression.
type ColumnMapping struct {
	SourceTable    string `json:"source_table"`
	SourceColumn   string `json:"source_column"`
	TargetColumn   string `json:"target_column"`
	Transformation string `json:"transformation,omitempty"`
}

// ToSQL renders the select-list expression for this mapping.
func (m ColumnMapping) ToSQL() string {
	expr := fmt.Sprintf("%s.%s", m.SourceTable, m.SourceColumn)
	if m.Transformation != "" {
		expr = m.Transformation
	}
	if m.TargetColumn != "" && m.TargetColumn != m.SourceColumn {
		return fmt.Sprintf("%s AS %s", expr, m.TargetColumn)
	}
	return expr
}

// Step types for PipelineStep.Type.
const (
	StepJoin      = "join"
	StepFilter    = "filter"
	StepAggregate = "aggregate"
)

// Aggregation pairs an aggregation type with the column it applies to.
type Aggregation struct {
	Type   AggregationType `json:"type"`
	Table  string          `json:"table"`
	Column string          `json:"column"`
	Alias  string          `json:"alias,omitempty"`
}

// PipelineStep is one stage of a pipeline: a join, a filter or an
// aggregation.
type PipelineStep struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	JoinType     JoinType        `json:"join_type,omitempty"`
	Conditions   []JoinCondition `json:"conditions,omitempty"`
	FilterExpr   string          `json:"filter_expr,omitempty"`
	Aggregations []Aggregation   `json:"aggregations,omitempty"`
}

// JoinPath is a path through the relationship graph between two tables,
// including every relationship traversed and the summed edge cost.
type JoinPath struct {
	Tables        []string                        `json:"tables"`
	Relationships []metadata.DetectedRelationship `json:"relationships"`
	TotalCost     int64                           `json:"total_cost"`
}

// Hops returns the number of join hops on the path.
func (p *JoinPath) Hops() int {
	return len(p.Relationships)
}

// Pipeline is an executable join pipeline over two or more source tables.
type Pipeline struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	SourceTables   []string        `json:"source_tables"`
	Steps          []PipelineStep  `json:"steps"`
	ColumnMappings []ColumnMapping `json:"column_mappings"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToSQL renders the pipeline as a single executable SELECT statement. Every
// join condition becomes its own join clause so multi hop paths remain
// runnable as written.
func (p *Pipeline) ToSQL() string {
	var b strings.Builder

	b.WriteString("SELECT\n")
	if len(p.ColumnMappings) == 0 {
		b.WriteString("    *\n")
	} else {
		for i, m := range p.ColumnMappings {
			b.WriteString("    " + m.ToSQL())
			if i < len(p.ColumnMappings)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
	}

	base := ""
	if len(p.SourceTables) > 0 {
		base = p.SourceTables[0]
	}
	b.WriteString("FROM " + base)

	var filters []string
	var groupBy []string
	for _, step := range p.Steps {
		switch step.Type {
		case StepJoin:
			for _, cond := range step.Conditions {
				b.WriteString(fmt.Sprintf("\n%s %s ON %s", step.JoinType.SQL(), cond.RightTable, cond.ToSQL()))
			}
		case StepFilter:
			if step.FilterExpr != "" {
				filters = append(filters, step.FilterExpr)
			}
		case StepAggregate:
			for _, agg := range step.Aggregations {
				if agg.Type == AggGroupBy {
					groupBy = append(groupBy, fmt.Sprintf("%s.%s", agg.Table, agg.Column))
				}
			}
		}
	}

	if len(filters) > 0 {
		b.WriteString("\nWHERE " + strings.Join(filters, "\n  AND "))
	}
	if len(groupBy) > 0 {
		b.WriteString("\nGROUP BY " + strings.Join(groupBy, ", "))
	}
	b.WriteString(";")
	return b.String()
}

// Dataset is a generated dataset definition: a pipeline plus provenance
// about why it was created.
type Dataset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SourceTables []string  `json:"source_tables"`
	Pipeline     *Pipeline `json:"pipeline"`
	Provenance   string    `json:"provenance,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// JoinRecommendation classifies a table by how it participates in the
// detected relationship set.
type JoinRecommendation struct {
	Table         string   `json:"table"`
	Kind          string   `json:"kind"`
	RelatedTables []string `json:"related_tables,omitempty"`
	Note          string   `json:"note,omitempty"`
}

// Recommendation kinds.
const (
	RecommendationHub      = "hub_table"
	RecommendationIsolated = "isolated_table"
)
