package report

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
	"github.com/schemaplane/db-ontology-builder/internal/ontology"
	"github.com/schemaplane/db-ontology-builder/internal/pipeline"
)

func reportSnapshot() *metadata.DatabaseMetadata {
	return &metadata.DatabaseMetadata{
		DatabaseName: "shop",
		Tables: []metadata.Table{
			{
				Name: "orders", Schema: "public",
				Columns: []metadata.Column{
					{Name: "id", DataType: "integer", IsPrimaryKey: true},
					{Name: "user_id", DataType: "integer", Nullable: true},
				},
				RowCountEstimate: 54000,
			},
			{
				Name: "users", Schema: "public", Comment: "Registered users",
				Columns: []metadata.Column{
					{Name: "id", DataType: "integer", IsPrimaryKey: true},
				},
			},
		},
		DetectedRelationships: []metadata.DetectedRelationship{
			{
				SourceTable: "orders", SourceColumn: "user_id",
				TargetTable: "users", TargetColumn: "id",
				Confidence:      metadata.ConfidenceHigh,
				DetectionMethod: metadata.MethodForeignKey,
			},
		},
	}
}

func TestRenderMetadataMarkdown(t *testing.T) {
	md := reportSnapshot()
	stats := pipeline.Stats{Tables: 2, Relationships: 1, Components: 1, LargestComponent: 2}
	recs := []pipeline.JoinRecommendation{
		{Table: "orders", Kind: pipeline.RecommendationHub, Note: "orders references 2 tables"},
	}

	out := RenderMetadataMarkdown(md, stats, recs)

	assert.Contains(t, out, "# Database Metadata Report: shop")
	assert.Contains(t, out, "| orders.user_id | users.id | high | foreign_key_constraint |")
	assert.Contains(t, out, "### public.orders")
	assert.Contains(t, out, "Estimated rows: 54000")
	assert.Contains(t, out, "Registered users")
	assert.Contains(t, out, "hub_table")
}

func TestRenderOntologyMarkdown(t *testing.T) {
	ont := ontology.NewGenerator(zap.NewNop()).Generate(reportSnapshot())

	out := RenderOntologyMarkdown(ont)

	assert.Contains(t, out, "# Ontology Report: shop")
	assert.Contains(t, out, "### Orders (Orders)")
	assert.Contains(t, out, "| hasUser | Orders | Users | many-to-one | high |")
}

func TestRenderPipelinesSQL(t *testing.T) {
	b, err := pipeline.NewBuilder(reportSnapshot(), zap.NewNop())
	require.NoError(t, err)
	p, err := b.CreatePipeline("orders_users", []string{"orders", "users"}, pipeline.JoinLeft, nil)
	require.NoError(t, err)

	out := RenderPipelinesSQL([]*pipeline.Pipeline{p}, b.GenerateDatasets())

	assert.Contains(t, out, "-- pipeline: orders_users")
	assert.Contains(t, out, "-- dataset: orders_users_dataset")
	assert.Contains(t, out, "LEFT JOIN users ON orders.user_id = users.id;")
}

func TestWriterRoundTrip(t *testing.T) {
	cfg := config.DefaultOutputConfig()
	cfg.OutputDir = t.TempDir()
	w := NewWriter(cfg, zap.NewNop())

	ont := ontology.NewGenerator(zap.NewNop()).Generate(reportSnapshot())
	path, err := w.WriteOntologyJSON(ont)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ontology.Ontology
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "shop", decoded.DatabaseName)
	assert.Len(t, decoded.ObjectTypes, 2)
}
