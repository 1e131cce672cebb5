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

// Package report renders the analysis results as Markdown, JSON and SQL
// files in the configured output directory.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
	"github.com/schemaplane/db-ontology-builder/internal/ontology"
	"github.com/schemaplane/db-ontology-builder/internal/pipeline"
	"github.com/schemaplane/db-ontology-builder/internal/utils"
)

// Writer renders reports into the configured output directory.
type Writer struct {
	cfg    config.OutputConfig
	logger *zap.Logger
}

// NewWriter returns a report Writer.
func NewWriter(cfg config.OutputConfig, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{cfg: cfg, logger: logger}
}

// WriteMetadataReport renders the schema snapshot, detected relationships
// and graph connectivity as Markdown. Returns the written file path.
func (w *Writer) WriteMetadataReport(md *metadata.DatabaseMetadata, stats pipeline.Stats, recs []pipeline.JoinRecommendation) (string, error) {
	content := RenderMetadataMarkdown(md, stats, recs)
	path, err := utils.WriteOutputFile(w.cfg.OutputDir, w.cfg.MetadataReportName, []byte(content))
	if err != nil {
		return "", err
	}
	w.logger.Info("metadata report written", zap.String("path", path))
	return path, nil
}

// WriteOntologyReport renders the generated ontology as Markdown.
func (w *Writer) WriteOntologyReport(ont *ontology.Ontology) (string, error) {
	content := RenderOntologyMarkdown(ont)
	path, err := utils.WriteOutputFile(w.cfg.OutputDir, w.cfg.OntologyReportName, []byte(content))
	if err != nil {
		return "", err
	}
	w.logger.Info("ontology report written", zap.String("path", path))
	return path, nil
}

// WriteOntologyJSON serializes the ontology as indented JSON.
func (w *Writer) WriteOntologyJSON(ont *ontology.Ontology) (string, error) {
	data, err := json.MarshalIndent(ont, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize ontology: %w", err)
	}
	path, err := utils.WriteOutputFile(w.cfg.OutputDir, w.cfg.OntologyJSONName, append(data, '\n'))
	if err != nil {
		return "", err
	}
	w.logger.Info("ontology JSON written", zap.String("path", path))
	return path, nil
}

// WritePipelinesSQL renders every pipeline and dataset as runnable SQL.
func (w *Writer) WritePipelinesSQL(pipelines []*pipeline.Pipeline, datasets []pipeline.Dataset) (string, error) {
	content := RenderPipelinesSQL(pipelines, datasets)
	path, err := utils.WriteOutputFile(w.cfg.OutputDir, w.cfg.PipelineSQLName, []byte(content))
	if err != nil {
		return "", err
	}
	w.logger.Info("pipeline SQL written", zap.String("path", path))
	return path, nil
}

// RenderMetadataMarkdown builds the metadata report document.
func RenderMetadataMarkdown(md *metadata.DatabaseMetadata, stats pipeline.Stats, recs []pipeline.JoinRecommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Database Metadata Report: %s\n\n", md.DatabaseName)
	fmt.Fprintf(&b, "- Tables: %d\n", md.TableCount())
	fmt.Fprintf(&b, "- Columns: %d\n", md.ColumnCount())
	fmt.Fprintf(&b, "- Declared foreign keys: %d\n", md.ForeignKeyCount())
	fmt.Fprintf(&b, "- Detected relationships: %d\n\n", len(md.DetectedRelationships))

	b.WriteString("## Relationship Graph\n\n")
	fmt.Fprintf(&b, "- Connected components: %d (largest: %d tables)\n", stats.Components, stats.LargestComponent)
	if len(stats.IsolatedTables) > 0 {
		fmt.Fprintf(&b, "- Isolated tables: %s\n", strings.Join(stats.IsolatedTables, ", "))
	}
	b.WriteString("\n")

	if len(md.DetectedRelationships) > 0 {
		b.WriteString("## Detected Relationships\n\n")
		b.WriteString("| Source | Target | Confidence | Method |\n")
		b.WriteString("|--------|--------|------------|--------|\n")
		for _, rel := range md.DetectedRelationships {
			fmt.Fprintf(&b, "| %s.%s | %s.%s | %s | %s |\n",
				rel.SourceTable, rel.SourceColumn,
				rel.TargetTable, rel.TargetColumn,
				rel.Confidence, rel.DetectionMethod)
		}
		b.WriteString("\n")
	}

	if len(recs) > 0 {
		b.WriteString("## Join Recommendations\n\n")
		for _, rec := range recs {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", rec.Table, rec.Kind, rec.Note)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Tables\n")
	for i := range md.Tables {
		t := &md.Tables[i]
		fmt.Fprintf(&b, "\n### %s\n\n", t.FullName())
		if t.Comment != "" {
			fmt.Fprintf(&b, "%s\n\n", t.Comment)
		}
		if t.IsView {
			b.WriteString("View.\n\n")
		} else if t.RowCountEstimate > 0 {
			fmt.Fprintf(&b, "Estimated rows: %d\n\n", t.RowCountEstimate)
		}
		b.WriteString("| Column | Type | Nullable | Key |\n")
		b.WriteString("|--------|------|----------|-----|\n")
		for j := range t.Columns {
			c := &t.Columns[j]
			key := ""
			switch {
			case c.IsPrimaryKey:
				key = "PK"
			case c.IsUnique:
				key = "UNIQUE"
			}
			nullable := "no"
			if c.Nullable {
				nullable = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.Name, c.DataType, nullable, key)
		}
	}
	return b.String()
}

// RenderOntologyMarkdown builds the ontology report document.
func RenderOntologyMarkdown(ont *ontology.Ontology) string {
	var b strings.Builder
	s := ont.Summarize()

	fmt.Fprintf(&b, "# Ontology Report: %s\n\n", ont.DatabaseName)
	fmt.Fprintf(&b, "- Object types: %d\n", s.ObjectTypes)
	fmt.Fprintf(&b, "- Properties: %d\n", s.Properties)
	fmt.Fprintf(&b, "- Link types: %d\n\n", s.LinkTypes)

	b.WriteString("## Object Types\n")
	for i := range ont.ObjectTypes {
		obj := &ont.ObjectTypes[i]
		fmt.Fprintf(&b, "\n### %s (%s)\n\n", obj.DisplayName, obj.APIName)
		fmt.Fprintf(&b, "Source: `%s`\n\n", obj.SourceTable)
		if obj.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", obj.Description)
		}
		b.WriteString("| Property | Type | Required | Key |\n")
		b.WriteString("|----------|------|----------|-----|\n")
		for j := range obj.Properties {
			p := &obj.Properties[j]
			required := ""
			if p.Required {
				required = "yes"
			}
			key := ""
			if p.IsPrimaryKey {
				key = "PK"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", p.APIName, p.DataType, required, key)
		}
	}

	if len(ont.LinkTypes) > 0 {
		b.WriteString("\n## Link Types\n\n")
		b.WriteString("| Link | Source | Target | Cardinality | Confidence |\n")
		b.WriteString("|------|--------|--------|-------------|------------|\n")
		for _, link := range ont.LinkTypes {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				link.APIName, link.SourceObjectType, link.TargetObjectType,
				link.Cardinality, link.Confidence)
		}
	}
	return b.String()
}

// RenderPipelinesSQL concatenates every pipeline as a commented, runnable
// SQL statement.
func RenderPipelinesSQL(pipelines []*pipeline.Pipeline, datasets []pipeline.Dataset) string {
	var b strings.Builder
	b.WriteString("-- Generated join pipelines\n")

	writeOne := func(p *pipeline.Pipeline, header string) {
		fmt.Fprintf(&b, "\n-- %s\n", header)
		if p.Description != "" {
			fmt.Fprintf(&b, "-- %s\n", p.Description)
		}
		b.WriteString(p.ToSQL())
		b.WriteString("\n")
	}

	for _, p := range pipelines {
		writeOne(p, fmt.Sprintf("pipeline: %s (%s)", p.Name, p.ID))
	}
	for i := range datasets {
		d := &datasets[i]
		if d.Pipeline == nil {
			continue
		}
		writeOne(d.Pipeline, fmt.Sprintf("dataset: %s (%s)", d.Name, d.ID))
	}
	return b.String()
}
