package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

func builderSnapshot() *metadata.DatabaseMetadata {
	col := func(name, typ string, pk bool) metadata.Column {
		return metadata.Column{Name: name, DataType: typ, IsPrimaryKey: pk}
	}
	return &metadata.DatabaseMetadata{
		DatabaseName: "shop",
		Tables: []metadata.Table{
			{
				Name: "orders", Schema: "public",
				Columns: []metadata.Column{
					col("id", "integer", true),
					col("user_id", "integer", false),
					col("amount", "numeric", false),
				},
			},
			{
				Name: "users", Schema: "public",
				Columns: []metadata.Column{
					col("id", "integer", true),
					col("name", "text", false),
				},
			},
			{
				Name: "products", Schema: "public",
				Columns: []metadata.Column{
					col("id", "integer", true),
				},
			},
			{
				Name: "archive", Schema: "public",
				Columns: []metadata.Column{
					col("id", "integer", true),
				},
			},
		},
		DetectedRelationships: []metadata.DetectedRelationship{
			{
				SourceTable: "orders", SourceColumn: "user_id",
				TargetTable: "users", TargetColumn: "id",
				Confidence:      metadata.ConfidenceHigh,
				DetectionMethod: metadata.MethodForeignKey,
				Reason:          "declared foreign key constraint orders_user_id_fkey",
			},
			{
				SourceTable: "orders", SourceColumn: "product_id",
				TargetTable: "products", TargetColumn: "id",
				Confidence:      metadata.ConfidenceMedium,
				DetectionMethod: metadata.MethodNamingConvention,
			},
		},
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(builderSnapshot(), zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestCreatePipelineSQL(t *testing.T) {
	b := newTestBuilder(t)

	p, err := b.CreatePipeline("orders_users", []string{"orders", "users"}, JoinLeft, nil)
	require.NoError(t, err)

	assert.Equal(t, "orders_users", p.Name)
	assert.NotEmpty(t, p.ID)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, StepJoin, p.Steps[0].Type)

	want := `SELECT
    orders.id AS orders_id,
    orders.user_id AS orders_user_id,
    orders.amount AS orders_amount,
    users.id AS users_id,
    users.name AS users_name
FROM orders
LEFT JOIN users ON orders.user_id = users.id;`
	assert.Equal(t, want, p.ToSQL())
}

func TestCreatePipelineReverseDirection(t *testing.T) {
	b := newTestBuilder(t)

	// users has no outgoing relationship to orders; the builder must walk
	// the reverse edge.
	p, err := b.CreatePipeline("users_orders", []string{"users", "orders"}, JoinInner, nil)
	require.NoError(t, err)

	require.Len(t, p.Steps, 1)
	require.Len(t, p.Steps[0].Conditions, 1)
	cond := p.Steps[0].Conditions[0]
	assert.Equal(t, "users.id = orders.user_id", cond.ToSQL())
	assert.Contains(t, p.ToSQL(), "INNER JOIN orders ON users.id = orders.user_id")
}

func TestCreatePipelineColumnSelection(t *testing.T) {
	b := newTestBuilder(t)

	p, err := b.CreatePipeline("slim", []string{"orders", "users"}, JoinLeft, map[string][]string{
		"orders": {"id", "amount"},
		"users":  {"name"},
	})
	require.NoError(t, err)

	var targets []string
	for _, m := range p.ColumnMappings {
		targets = append(targets, m.TargetColumn)
	}
	assert.Equal(t, []string{"orders_id", "orders_amount", "users_name"}, targets)
}

func TestCreatePipelineErrors(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.CreatePipeline("too_few", []string{"orders"}, JoinLeft, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2")

	_, err = b.CreatePipeline("bad_join", []string{"orders", "users"}, JoinType("SIDEWAYS"), nil)
	require.Error(t, err)

	_, err = b.CreatePipeline("ghost", []string{"orders", "ghost"}, JoinLeft, nil)
	require.Error(t, err)

	_, err = b.CreatePipeline("unreachable", []string{"orders", "archive"}, JoinLeft, nil)
	require.Error(t, err)
	var noPath *NoPathError
	require.ErrorAs(t, err, &noPath)
	assert.Equal(t, "orders", noPath.From)
	assert.Equal(t, "archive", noPath.To)
}

func TestCreatePipelineDefaultsToLeftJoin(t *testing.T) {
	b := newTestBuilder(t)

	p, err := b.CreatePipeline("default_join", []string{"orders", "users"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, JoinLeft, p.Steps[0].JoinType)
}

func TestCreateStarSchemaPipeline(t *testing.T) {
	b := newTestBuilder(t)

	p, err := b.CreateStarSchemaPipeline("orders")
	require.NoError(t, err)
	assert.Equal(t, "star_orders", p.Name)
	assert.Equal(t, []string{"orders", "users", "products"}, p.SourceTables)

	// users is never a relationship source.
	_, err = b.CreateStarSchemaPipeline("users")
	require.Error(t, err)

	_, err = b.CreateStarSchemaPipeline("ghost")
	require.Error(t, err)
}

func TestGenerateDatasets(t *testing.T) {
	md := builderSnapshot()
	// A duplicate pair in the opposite direction and a pair touching an
	// unknown table. The first must be deduplicated, the second skipped.
	md.DetectedRelationships = append(md.DetectedRelationships,
		metadata.DetectedRelationship{
			SourceTable: "users", SourceColumn: "id",
			TargetTable: "orders", TargetColumn: "user_id",
			Confidence: metadata.ConfidenceHigh,
		},
		metadata.DetectedRelationship{
			SourceTable: "orders", SourceColumn: "ghost_id",
			TargetTable: "ghost", TargetColumn: "id",
			Confidence: metadata.ConfidenceHigh,
		},
	)

	b, err := NewBuilder(md, zap.NewNop())
	require.NoError(t, err)

	datasets := b.GenerateDatasets()
	require.Len(t, datasets, 1)
	d := datasets[0]
	assert.Equal(t, "orders_users_dataset", d.Name)
	assert.Equal(t, []string{"orders", "users"}, d.SourceTables)
	require.NotNil(t, d.Pipeline)
	assert.Equal(t, "declared foreign key constraint orders_user_id_fkey", d.Provenance)
}

func TestGenerateDatasetsIgnoresLowerConfidence(t *testing.T) {
	md := builderSnapshot()
	md.DetectedRelationships[0].Confidence = metadata.ConfidenceMedium

	b, err := NewBuilder(md, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, b.GenerateDatasets())
}

func TestJoinRecommendations(t *testing.T) {
	b := newTestBuilder(t)

	recs := b.JoinRecommendations()
	byTable := map[string]JoinRecommendation{}
	for _, r := range recs {
		byTable[r.Table] = r
	}

	// orders sources two relationships, users and products source none,
	// archive sources none either.
	require.Len(t, recs, 4)
	assert.Equal(t, RecommendationHub, byTable["orders"].Kind)
	assert.ElementsMatch(t, []string{"users", "products"}, byTable["orders"].RelatedTables)
	assert.Equal(t, RecommendationIsolated, byTable["users"].Kind)
	assert.Equal(t, RecommendationIsolated, byTable["products"].Kind)
	assert.Equal(t, RecommendationIsolated, byTable["archive"].Kind)
}
