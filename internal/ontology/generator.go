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

package ontology

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// sqlToDataType maps normalized SQL type names to ontology data types.
// Unlisted types fall back to string.
var sqlToDataType = map[string]DataType{
	"integer":          TypeInteger,
	"int":              TypeInteger,
	"int4":             TypeInteger,
	"int8":             TypeInteger,
	"smallint":         TypeInteger,
	"bigint":           TypeInteger,
	"serial":           TypeInteger,
	"bigserial":        TypeInteger,
	"numeric":          TypeDouble,
	"decimal":          TypeDouble,
	"real":             TypeDouble,
	"float":            TypeDouble,
	"float8":           TypeDouble,
	"double precision": TypeDouble,
	"money":            TypeDouble,
	"boolean":          TypeBoolean,
	"bool":             TypeBoolean,
	"bit":              TypeBoolean,
	"date":             TypeDate,
	"timestamp":        TypeTimestamp,
	"timestamptz":      TypeTimestamp,
	"datetime":         TypeTimestamp,
	"datetime2":        TypeTimestamp,
	"time":             TypeTimestamp,
}

var (
	fkSuffix      = regexp.MustCompile(`(?i)(_id|_fk)$`)
	wordBoundary  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)
)

// Generator derives an Ontology from a schema snapshot and its detected
// relationships.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator returns a Generator. A nil logger is replaced with a no-op.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate builds the ontology: one object type per table, one link type per
// detected relationship whose endpoints both map to object types.
func (g *Generator) Generate(md *metadata.DatabaseMetadata) *Ontology {
	ont := &Ontology{
		DatabaseName: md.DatabaseName,
		CreatedAt:    time.Now().UTC(),
	}

	byTable := make(map[string]string, len(md.Tables))
	for i := range md.Tables {
		obj := g.objectType(&md.Tables[i])
		byTable[md.Tables[i].Name] = obj.APIName
		ont.ObjectTypes = append(ont.ObjectTypes, obj)
	}

	for _, rel := range md.DetectedRelationships {
		source, okS := byTable[rel.SourceTable]
		target, okT := byTable[rel.TargetTable]
		if !okS || !okT {
			g.logger.Debug("skipping link for table outside snapshot",
				zap.String("source", rel.SourceTable),
				zap.String("target", rel.TargetTable))
			continue
		}
		ont.LinkTypes = append(ont.LinkTypes, LinkType{
			APIName:          linkName(rel.SourceColumn, target),
			DisplayName:      fmt.Sprintf("%s to %s", Humanize(rel.SourceTable), Humanize(rel.TargetTable)),
			SourceObjectType: source,
			TargetObjectType: target,
			Cardinality:      "many-to-one",
			SourceProperty:   CamelCase(rel.SourceColumn),
			TargetProperty:   CamelCase(rel.TargetColumn),
			Confidence:       rel.Confidence,
			CreationReason:   creationReason(rel),
		})
	}

	g.logger.Info("ontology generated",
		zap.String("database", md.DatabaseName),
		zap.Int("object_types", len(ont.ObjectTypes)),
		zap.Int("link_types", len(ont.LinkTypes)))
	return ont
}

func (g *Generator) objectType(t *metadata.Table) ObjectType {
	obj := ObjectType{
		APIName:     PascalCase(t.Name),
		DisplayName: Humanize(t.Name),
		Description: t.Comment,
		SourceTable: t.FullName(),
	}
	for i := range t.Columns {
		col := &t.Columns[i]
		prop := PropertyType{
			APIName:      CamelCase(col.Name),
			DisplayName:  Humanize(col.Name),
			DataType:     mapDataType(col.DataType),
			Description:  col.Comment,
			Required:     !col.Nullable,
			IsPrimaryKey: col.IsPrimaryKey,
			SourceColumn: col.Name,
		}
		if col.IsPrimaryKey && obj.PrimaryKey == "" {
			obj.PrimaryKey = prop.APIName
		}
		obj.Properties = append(obj.Properties, prop)
	}
	return obj
}

// mapDataType normalizes a SQL type (dropping any parametrization) and maps
// it to an ontology type.
func mapDataType(sqlType string) DataType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if strings.HasPrefix(t, "timestamp") {
		return TypeTimestamp
	}
	if dt, ok := sqlToDataType[t]; ok {
		return dt
	}
	return TypeString
}

// linkName derives a readable link API name from the referencing column:
// "user_id" becomes "hasUser". Columns without a recognizable suffix fall
// back to "relatesTo<Target>".
func linkName(sourceColumn, targetObjectType string) string {
	if fkSuffix.MatchString(sourceColumn) {
		entity := fkSuffix.ReplaceAllString(sourceColumn, "")
		return "has" + PascalCase(entity)
	}
	return "relatesTo" + targetObjectType
}

func creationReason(rel metadata.DetectedRelationship) string {
	switch rel.DetectionMethod {
	case metadata.MethodForeignKey:
		return fmt.Sprintf("declared foreign key from %s.%s to %s.%s",
			rel.SourceTable, rel.SourceColumn, rel.TargetTable, rel.TargetColumn)
	case metadata.MethodNamingConvention:
		return fmt.Sprintf("column %s.%s follows a foreign key naming convention",
			rel.SourceTable, rel.SourceColumn)
	case metadata.MethodSimilarity:
		return fmt.Sprintf("column %s.%s closely resembles primary key %s.%s",
			rel.SourceTable, rel.SourceColumn, rel.TargetTable, rel.TargetColumn)
	default:
		return rel.Reason
	}
}

// words splits an identifier into lowercase words on underscores, spaces and
// camelCase boundaries.
func words(s string) []string {
	s = nonIdentChars.ReplaceAllString(s, "_")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	var out []string
	for _, w := range strings.Split(s, "_") {
		if w != "" {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// PascalCase converts an identifier to PascalCase.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

// CamelCase converts an identifier to camelCase.
func CamelCase(s string) string {
	p := PascalCase(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// Humanize converts an identifier to a spaced, title-cased display name.
func Humanize(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(ws, " ")
}
