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
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/export"
	"github.com/schemaplane/db-ontology-builder/internal/genai"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
	"github.com/schemaplane/db-ontology-builder/internal/ontology"
	"github.com/schemaplane/db-ontology-builder/internal/report"
)

var (
	describeEntities bool
	exportToNeo4j    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract the schema, infer relationships and write all reports",
	Long: `analyze runs the full workflow: it extracts the schema snapshot, runs the
relationship detection cascade, builds the join graph, synthesizes datasets
and the ontology, and writes the Markdown, JSON and SQL reports to the
output directory. Optionally it enriches entity descriptions via Gemini and
exports the ontology meta graph to Neo4j.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&describeEntities, "describe-entities", false, "Generate entity descriptions with Gemini (requires --gemini-api-key)")
	analyzeCmd.Flags().BoolVar(&exportToNeo4j, "export-neo4j", false, "Export the ontology meta graph to Neo4j")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	md, err := analyzeSchema(ctx, cfg, logger)
	if err != nil {
		return err
	}

	b, err := newBuilder(md, logger)
	if err != nil {
		return err
	}
	stats := b.Graph().GraphStats()
	recs := b.JoinRecommendations()
	datasets := b.GenerateDatasets()

	ont := ontology.NewGenerator(logger).Generate(md)
	if describeEntities {
		if err := enrichDescriptions(ctx, cfg.GeminiAPIKey, md, ont, logger); err != nil {
			return err
		}
	}

	w := report.NewWriter(cfg.Output, logger)
	if _, err := w.WriteMetadataReport(md, stats, recs); err != nil {
		return err
	}
	if _, err := w.WriteOntologyReport(ont); err != nil {
		return err
	}
	if _, err := w.WriteOntologyJSON(ont); err != nil {
		return err
	}
	if _, err := w.WritePipelinesSQL(nil, datasets); err != nil {
		return err
	}

	if exportToNeo4j {
		exporter, err := export.NewNeo4jExporter(ctx, cfg.Neo4j, logger)
		if err != nil {
			return err
		}
		defer exporter.Close(ctx)
		if err := exporter.ExportOntology(ctx, ont); err != nil {
			return err
		}
	}

	fmt.Printf("Analyzed %d tables in %s: %d relationships detected, %d datasets, %d object types.\n",
		md.TableCount(), md.DatabaseName, len(md.DetectedRelationships), len(datasets), len(ont.ObjectTypes))
	fmt.Printf("Reports written to %s\n", cfg.Output.OutputDir)
	for _, rec := range recs {
		fmt.Printf("  [%s] %s: %s\n", rec.Kind, rec.Table, rec.Note)
	}
	return nil
}

// enrichDescriptions fills in ObjectType descriptions via Gemini. Failures
// for individual entities are logged and skipped so one flaky call does not
// abort the run.
func enrichDescriptions(ctx context.Context, apiKey string, md *metadata.DatabaseMetadata, ont *ontology.Ontology, logger *zap.Logger) error {
	client, err := genai.NewClient(ctx, genai.Config{APIKey: apiKey})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.IsAPIKeyValid(ctx); err != nil {
		return err
	}

	for i := range ont.ObjectTypes {
		obj := &ont.ObjectTypes[i]
		desc, err := client.GenerateEntityDescription(ctx, obj.APIName, schemaContextFor(md, obj.SourceTable))
		if err != nil {
			logger.Warn("entity description failed",
				zap.String("entity", obj.APIName), zap.Error(err))
			continue
		}
		obj.Description = desc
	}
	return nil
}

// schemaContextFor summarizes a table and its detected relationships as the
// prompt context for description generation.
func schemaContextFor(md *metadata.DatabaseMetadata, tableName string) string {
	var b strings.Builder
	for i := range md.Tables {
		t := &md.Tables[i]
		if t.Name != tableName {
			continue
		}
		fmt.Fprintf(&b, "Table: %s\n", t.FullName())
		if t.Comment != "" {
			fmt.Fprintf(&b, "Comment: %s\n", t.Comment)
		}
		b.WriteString("Columns:\n")
		for j := range t.Columns {
			c := &t.Columns[j]
			fmt.Fprintf(&b, "  - %s (%s)\n", c.Name, c.DataType)
		}
		break
	}
	for _, rel := range md.DetectedRelationships {
		if rel.SourceTable == tableName || rel.TargetTable == tableName {
			fmt.Fprintf(&b, "Relationship: %s.%s -> %s.%s (%s)\n",
				rel.SourceTable, rel.SourceColumn, rel.TargetTable, rel.TargetColumn, rel.DetectionMethod)
		}
	}
	return b.String()
}
