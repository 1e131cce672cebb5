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

// Package ontology derives an object model from a schema snapshot: one
// object type per table, one property per column and one link type per
// detected relationship.
package ontology

import (
	"time"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// DataType is the ontology-level property type.
type DataType string

const (
	TypeString    DataType = "string"
	TypeInteger   DataType = "integer"
	TypeDouble    DataType = "double"
	TypeBoolean   DataType = "boolean"
	TypeDate      DataType = "date"
	TypeTimestamp DataType = "timestamp"
)

// PropertyType is one property of an object type, derived from a column.
type PropertyType struct {
	APIName      string   `json:"api_name"`
	DisplayName  string   `json:"display_name"`
	DataType     DataType `json:"data_type"`
	Description  string   `json:"description,omitempty"`
	Required     bool     `json:"required"`
	IsPrimaryKey bool     `json:"is_primary_key"`
	SourceColumn string   `json:"source_column"`
}

// ObjectType is one entity of the ontology, derived from a table.
type ObjectType struct {
	APIName     string         `json:"api_name"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description,omitempty"`
	PrimaryKey  string         `json:"primary_key,omitempty"`
	Properties  []PropertyType `json:"properties"`
	SourceTable string         `json:"source_table"`
}

// GetProperty returns the property with the given API name, or nil.
func (o *ObjectType) GetProperty(apiName string) *PropertyType {
	for i := range o.Properties {
		if o.Properties[i].APIName == apiName {
			return &o.Properties[i]
		}
	}
	return nil
}

// LinkType connects two object types, derived from a detected relationship.
type LinkType struct {
	APIName          string              `json:"api_name"`
	DisplayName      string              `json:"display_name"`
	SourceObjectType string              `json:"source_object_type"`
	TargetObjectType string              `json:"target_object_type"`
	Cardinality      string              `json:"cardinality"`
	SourceProperty   string              `json:"source_property"`
	TargetProperty   string              `json:"target_property"`
	Confidence       metadata.Confidence `json:"confidence"`
	CreationReason   string              `json:"creation_reason"`
}

// Ontology is the full generated object model for one database.
type Ontology struct {
	DatabaseName string       `json:"database_name"`
	ObjectTypes  []ObjectType `json:"object_types"`
	LinkTypes    []LinkType   `json:"link_types"`
	CreatedAt    time.Time    `json:"created_at"`
}

// GetObjectType returns the object type with the given API name, or nil.
func (o *Ontology) GetObjectType(apiName string) *ObjectType {
	for i := range o.ObjectTypes {
		if o.ObjectTypes[i].APIName == apiName {
			return &o.ObjectTypes[i]
		}
	}
	return nil
}

// Summary holds ontology size statistics for reporting.
type Summary struct {
	ObjectTypes int `json:"object_types"`
	Properties  int `json:"properties"`
	LinkTypes   int `json:"link_types"`
}

// Summarize counts the ontology's elements.
func (o *Ontology) Summarize() Summary {
	s := Summary{
		ObjectTypes: len(o.ObjectTypes),
		LinkTypes:   len(o.LinkTypes),
	}
	for i := range o.ObjectTypes {
		s.Properties += len(o.ObjectTypes[i].Properties)
	}
	return s
}
