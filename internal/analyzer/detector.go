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

// Package analyzer infers relationships between tables that are not declared
// as foreign keys, using a three tier cascade: declared constraints, naming
// conventions, then column similarity.
package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// namingPatterns are the convention patterns checked against column names, in
// priority order. The first match wins and its capture group names the
// referenced entity.
var namingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(.+)_id$`),
	regexp.MustCompile(`(?i)^(.+)_fk$`),
	regexp.MustCompile(`(?i)^(.+)Id$`),
	regexp.MustCompile(`(?i)^fk_(.+)$`),
	regexp.MustCompile(`(?i)^id_(.+)$`),
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// RelationshipAnalyzer detects relationships between tables in a schema
// snapshot. Construct with NewRelationshipAnalyzer; the zero value is not
// usable.
type RelationshipAnalyzer struct {
	cfg       config.AnalysisConfig
	fkColumns []*regexp.Regexp
	logger    *zap.Logger
}

// NewRelationshipAnalyzer validates the configuration and compiles its column
// patterns. An invalid pattern or threshold is reported here, never during
// detection.
func NewRelationshipAnalyzer(cfg config.AnalysisConfig, logger *zap.Logger) (*RelationshipAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &RelationshipAnalyzer{cfg: cfg, logger: logger}
	for _, p := range cfg.FKColumnPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid fk column pattern %q: %w", p, err)
		}
		a.fkColumns = append(a.fkColumns, re)
	}
	return a, nil
}

// Analyze runs the detection cascade over the snapshot and returns the
// detected relationships. The result is also stored on md. Detection is
// deterministic for a given snapshot and configuration.
func (a *RelationshipAnalyzer) Analyze(md *metadata.DatabaseMetadata) []metadata.DetectedRelationship {
	var rels []metadata.DetectedRelationship

	// claimed tracks (table, column) pairs already explained by a higher
	// tier so lower tiers never re-derive them.
	claimed := make(map[string]bool)
	claim := func(table, column string) {
		claimed[table+"\x00"+column] = true
	}
	isClaimed := func(table, column string) bool {
		return claimed[table+"\x00"+column]
	}

	rels = append(rels, a.detectForeignKeys(md, claim)...)
	rels = append(rels, a.detectByNaming(md, claim, isClaimed)...)
	rels = append(rels, a.detectBySimilarity(md, isClaimed)...)

	a.logger.Info("relationship analysis complete",
		zap.Int("tables", md.TableCount()),
		zap.Int("relationships", len(rels)))

	md.DetectedRelationships = rels
	return rels
}

// detectForeignKeys converts declared constraints into HIGH confidence
// relationships verbatim.
func (a *RelationshipAnalyzer) detectForeignKeys(md *metadata.DatabaseMetadata, claim func(table, column string)) []metadata.DetectedRelationship {
	var rels []metadata.DetectedRelationship
	for i := range md.Tables {
		t := &md.Tables[i]
		for _, fk := range t.ForeignKeys {
			rels = append(rels, metadata.DetectedRelationship{
				SourceTable:     t.Name,
				SourceColumn:    fk.Column,
				TargetTable:     fk.ReferencesTable,
				TargetColumn:    fk.ReferencesColumn,
				Confidence:      metadata.ConfidenceHigh,
				DetectionMethod: metadata.MethodForeignKey,
				Reason:          fmt.Sprintf("declared foreign key constraint %s", fk.ConstraintName),
			})
			claim(t.Name, fk.Column)
		}
	}
	return rels
}

// detectByNaming applies the convention patterns to every unclaimed non key
// column and emits a MEDIUM confidence relationship when the derived table
// exists and has a usable primary key. Self references are emitted as-is; the
// graph layer drops self edges.
func (a *RelationshipAnalyzer) detectByNaming(md *metadata.DatabaseMetadata, claim func(table, column string), isClaimed func(table, column string) bool) []metadata.DetectedRelationship {
	var rels []metadata.DetectedRelationship
	for i := range md.Tables {
		t := &md.Tables[i]
		for j := range t.Columns {
			col := &t.Columns[j]
			if col.IsPrimaryKey || isClaimed(t.Name, col.Name) {
				continue
			}
			entity, ok := matchNamingPattern(col.Name)
			if !ok {
				continue
			}
			targetName := normalizeTableName(entity)
			target := findTableByName(md, targetName)
			if target == nil {
				continue
			}
			pkCol := findMatchingPKColumn(target)
			if pkCol == "" {
				continue
			}
			rels = append(rels, metadata.DetectedRelationship{
				SourceTable:     t.Name,
				SourceColumn:    col.Name,
				TargetTable:     target.Name,
				TargetColumn:    pkCol,
				Confidence:      metadata.ConfidenceMedium,
				DetectionMethod: metadata.MethodNamingConvention,
				Reason:          fmt.Sprintf("column name %q follows a foreign key naming convention for table %q", col.Name, target.Name),
			})
			claim(t.Name, col.Name)
		}
	}
	return rels
}

// detectBySimilarity scores every remaining non key column against the
// primary key columns of every other table and keeps the best match at or
// above the threshold. On a tie the first candidate encountered wins.
func (a *RelationshipAnalyzer) detectBySimilarity(md *metadata.DatabaseMetadata, isClaimed func(table, column string) bool) []metadata.DetectedRelationship {
	var rels []metadata.DetectedRelationship
	for i := range md.Tables {
		t := &md.Tables[i]
		for j := range t.Columns {
			col := &t.Columns[j]
			if col.IsPrimaryKey || isClaimed(t.Name, col.Name) {
				continue
			}

			var (
				best      float64
				bestTable *metadata.Table
				bestCol   *metadata.Column
			)
			for k := range md.Tables {
				other := &md.Tables[k]
				if other.Name == t.Name {
					continue
				}
				for l := range other.Columns {
					pk := &other.Columns[l]
					if !pk.IsPrimaryKey {
						continue
					}
					score := ScoreColumns(col, pk)
					if score >= a.cfg.SimilarityThreshold && score > best {
						best = score
						bestTable = other
						bestCol = pk
					}
				}
			}
			if bestTable == nil {
				continue
			}
			rels = append(rels, metadata.DetectedRelationship{
				SourceTable:     t.Name,
				SourceColumn:    col.Name,
				TargetTable:     bestTable.Name,
				TargetColumn:    bestCol.Name,
				Confidence:      metadata.ConfidenceLow,
				DetectionMethod: metadata.MethodSimilarity,
				Reason: fmt.Sprintf("column %q is %.0f%% similar to primary key %s.%s",
					col.Name, best*100, bestTable.Name, bestCol.Name),
			})
		}
	}
	return rels
}

// matchNamingPattern returns the entity fragment captured by the first
// matching convention pattern.
func matchNamingPattern(column string) (string, bool) {
	for _, re := range namingPatterns {
		if m := re.FindStringSubmatch(column); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// normalizeTableName turns a captured entity fragment into a candidate table
// name: camelCase becomes snake_case, lowercased, and a trailing "s" is
// appended unless already present. The pluralization is intentionally naive;
// irregular nouns are expected to miss and fall through to the similarity
// tier.
func normalizeTableName(entity string) string {
	name := camelBoundary.ReplaceAllString(entity, "${1}_${2}")
	name = strings.ToLower(name)
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	return name
}

// findMatchingPKColumn picks the join target on the referenced table: a
// primary key column literally named "id" if present, otherwise the first
// primary key column. Empty string when the table has no primary key.
func findMatchingPKColumn(t *metadata.Table) string {
	first := ""
	for i := range t.Columns {
		c := &t.Columns[i]
		if !c.IsPrimaryKey {
			continue
		}
		if strings.EqualFold(c.Name, "id") {
			return c.Name
		}
		if first == "" {
			first = c.Name
		}
	}
	return first
}

// findTableByName resolves a table by bare name across all extracted schemas.
func findTableByName(md *metadata.DatabaseMetadata, name string) *metadata.Table {
	for i := range md.Tables {
		if md.Tables[i].Name == name {
			return &md.Tables[i]
		}
	}
	return nil
}
