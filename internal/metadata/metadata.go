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

// Package metadata defines the schema snapshot model shared by the
// extractor, the relationship analyzer and the pipeline builder.
package metadata

import "fmt"

// Confidence is the confidence level of a detected relationship.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // from a foreign key constraint
	ConfidenceMedium Confidence = "medium" // from a naming convention
	ConfidenceLow    Confidence = "low"    // from similarity analysis
)

// Weight maps confidence to a join-path edge weight. Lower is preferred.
func (c Confidence) Weight() int64 {
	switch c {
	case ConfidenceHigh:
		return 1
	case ConfidenceMedium:
		return 2
	default:
		return 3
	}
}

// Detection methods recorded on DetectedRelationship.
const (
	MethodForeignKey       = "foreign_key_constraint"
	MethodNamingConvention = "naming_convention"
	MethodSimilarity       = "similarity_analysis"
)

// Column describes a single table column as extracted from the source system.
type Column struct {
	Name            string `json:"name"`
	DataType        string `json:"data_type"`
	Nullable        bool   `json:"nullable"`
	Default         string `json:"default,omitempty"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	IsUnique        bool   `json:"is_unique"`
	Comment         string `json:"comment,omitempty"`
	OrdinalPosition int    `json:"ordinal_position"`
}

// ForeignKey describes a declared foreign key constraint.
type ForeignKey struct {
	ConstraintName   string `json:"constraint_name"`
	Column           string `json:"column"`
	ReferencesTable  string `json:"references_table"`
	ReferencesColumn string `json:"references_column"`
	ReferencesSchema string `json:"references_schema"`
}

// Index describes an index on a table.
type Index struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
}

// Table describes a database table with its columns, constraints and indexes.
type Table struct {
	Name             string       `json:"name"`
	Schema           string       `json:"schema"`
	Columns          []Column     `json:"columns"`
	PrimaryKeys      []string     `json:"primary_keys"`
	ForeignKeys      []ForeignKey `json:"foreign_keys"`
	Indexes          []Index      `json:"indexes"`
	Comment          string       `json:"comment,omitempty"`
	RowCountEstimate int64        `json:"row_count_estimate,omitempty"`
	IsView           bool         `json:"is_view,omitempty"`
}

// FullName returns the fully qualified table name, the stable identity key
// used throughout the analyzer and builder.
func (t *Table) FullName() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// GetColumn returns the column with the given name, or nil.
func (t *Table) GetColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// DetectedRelationship is a single inferred or declared relationship between
// two tables. It is the atomic unit consumed by the graph, the ontology
// generator and the pipeline builder.
type DetectedRelationship struct {
	SourceTable     string     `json:"source_table"`
	SourceColumn    string     `json:"source_column"`
	TargetTable     string     `json:"target_table"`
	TargetColumn    string     `json:"target_column"`
	Confidence      Confidence `json:"confidence"`
	DetectionMethod string     `json:"detection_method"`
	Reason          string     `json:"reason"`
}

// DatabaseMetadata is the complete snapshot for one analysis run.
type DatabaseMetadata struct {
	DatabaseName          string                 `json:"database_name"`
	Tables                []Table                `json:"tables"`
	DetectedRelationships []DetectedRelationship `json:"detected_relationships"`
}

// GetTable returns the table with the given name in the given schema, or nil.
func (m *DatabaseMetadata) GetTable(name, schema string) *Table {
	for i := range m.Tables {
		if m.Tables[i].Name == name && m.Tables[i].Schema == schema {
			return &m.Tables[i]
		}
	}
	return nil
}

// TableCount returns the number of tables in the snapshot.
func (m *DatabaseMetadata) TableCount() int {
	return len(m.Tables)
}

// ColumnCount returns the total column count across all tables.
func (m *DatabaseMetadata) ColumnCount() int {
	n := 0
	for i := range m.Tables {
		n += len(m.Tables[i].Columns)
	}
	return n
}

// ForeignKeyCount returns the total declared foreign key count.
func (m *DatabaseMetadata) ForeignKeyCount() int {
	n := 0
	for i := range m.Tables {
		n += len(m.Tables[i].ForeignKeys)
	}
	return n
}
