package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// fakeReader is an in-memory SchemaReader for extractor tests.
type fakeReader struct {
	tables       map[string][]TableRef
	columns      map[string][]metadata.Column
	pks          map[string][]string
	fks          map[string][]metadata.ForeignKey
	indexes      map[string][]metadata.Index
	comments     map[string]string
	rowCounts    map[string]int64
	failTables   map[string]bool
	failSchema   bool
	commentError bool
}

func (f *fakeReader) DefaultSchema() string { return "public" }

func (f *fakeReader) Ping(ctx context.Context) error { return nil }

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) ListTables(ctx context.Context, schema string, includeViews bool) ([]TableRef, error) {
	if f.failSchema {
		return nil, fmt.Errorf("schema not accessible")
	}
	return f.tables[schema], nil
}

func (f *fakeReader) ListColumns(ctx context.Context, schema, table string) ([]metadata.Column, error) {
	if f.failTables[table] {
		return nil, fmt.Errorf("permission denied")
	}
	return f.columns[table], nil
}

func (f *fakeReader) ListPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	return f.pks[table], nil
}

func (f *fakeReader) ListForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKey, error) {
	return f.fks[table], nil
}

func (f *fakeReader) ListIndexes(ctx context.Context, schema, table string) ([]metadata.Index, error) {
	return f.indexes[table], nil
}

func (f *fakeReader) GetTableComment(ctx context.Context, schema, table string) (string, error) {
	if f.commentError {
		return "", fmt.Errorf("comments unavailable")
	}
	return f.comments[table], nil
}

func (f *fakeReader) GetRowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	return f.rowCounts[table], nil
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		tables: map[string][]TableRef{
			"public": {
				{Name: "users"},
				{Name: "orders"},
				{Name: "order_summary", IsView: true},
			},
		},
		columns: map[string][]metadata.Column{
			"users": {
				{Name: "id", DataType: "integer", OrdinalPosition: 1},
				{Name: "email", DataType: "text", Nullable: true, OrdinalPosition: 2},
			},
			"orders": {
				{Name: "id", DataType: "integer", OrdinalPosition: 1},
				{Name: "user_id", DataType: "integer", OrdinalPosition: 2},
			},
			"order_summary": {
				{Name: "total", DataType: "numeric", OrdinalPosition: 1},
			},
		},
		pks: map[string][]string{
			"users":  {"id"},
			"orders": {"id"},
		},
		fks: map[string][]metadata.ForeignKey{
			"orders": {{
				ConstraintName:   "orders_user_id_fkey",
				Column:           "user_id",
				ReferencesTable:  "users",
				ReferencesColumn: "id",
				ReferencesSchema: "public",
			}},
		},
		indexes: map[string][]metadata.Index{
			"users": {
				{Name: "users_pkey", Columns: []string{"id"}, IsUnique: true, IsPrimary: true},
				{Name: "users_email_key", Columns: []string{"email"}, IsUnique: true},
			},
		},
		comments:  map[string]string{"users": "Registered users"},
		rowCounts: map[string]int64{"users": 1200, "orders": 54000},
	}
}

func defaultCfg() config.AnalysisConfig {
	cfg := config.DefaultAnalysisConfig()
	cfg.IncludeViews = true
	return cfg
}

func TestExtract(t *testing.T) {
	e, err := NewExtractor(newFakeReader(), defaultCfg(), "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "shop", md.DatabaseName)
	require.Equal(t, 3, md.TableCount())

	users := md.GetTable("users", "public")
	require.NotNil(t, users)
	assert.Equal(t, "Registered users", users.Comment)
	assert.Equal(t, int64(1200), users.RowCountEstimate)
	assert.Equal(t, []string{"id"}, users.PrimaryKeys)

	id := users.GetColumn("id")
	require.NotNil(t, id)
	assert.True(t, id.IsPrimaryKey)

	// Single column unique index marks the column unique.
	email := users.GetColumn("email")
	require.NotNil(t, email)
	assert.True(t, email.IsUnique)
	assert.False(t, email.IsPrimaryKey)

	orders := md.GetTable("orders", "public")
	require.NotNil(t, orders)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "users", orders.ForeignKeys[0].ReferencesTable)

	view := md.GetTable("order_summary", "public")
	require.NotNil(t, view)
	assert.True(t, view.IsView)
	assert.Zero(t, view.RowCountEstimate, "views are not row counted")
}

func TestExtractExcludesViewsByDefault(t *testing.T) {
	cfg := defaultCfg()
	cfg.IncludeViews = false

	reader := newFakeReader()
	// The fake returns whatever is configured; mimic a dialect honoring
	// the flag by removing the view from the listing.
	reader.tables["public"] = reader.tables["public"][:2]

	e, err := NewExtractor(reader, cfg, "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, md.TableCount())
}

func TestExtractExcludeTables(t *testing.T) {
	cfg := defaultCfg()
	cfg.ExcludeTables = []string{"orders"}

	e, err := NewExtractor(newFakeReader(), cfg, "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, md.GetTable("orders", "public"))
	assert.NotNil(t, md.GetTable("users", "public"))
}

func TestExtractMaxTables(t *testing.T) {
	cfg := defaultCfg()
	cfg.MaxTables = 1

	e, err := NewExtractor(newFakeReader(), cfg, "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, md.TableCount())
}

func TestExtractSkipsFailingTable(t *testing.T) {
	reader := newFakeReader()
	reader.failTables = map[string]bool{"orders": true}

	e, err := NewExtractor(reader, defaultCfg(), "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, md.GetTable("orders", "public"))
	assert.NotNil(t, md.GetTable("users", "public"))
}

func TestExtractSchemaListingFailureIsFatal(t *testing.T) {
	reader := newFakeReader()
	reader.failSchema = true

	e, err := NewExtractor(reader, defaultCfg(), "shop", zap.NewNop())
	require.NoError(t, err)

	_, err = e.Extract(context.Background())
	require.Error(t, err)
}

func TestExtractCommentFailureIsSoft(t *testing.T) {
	reader := newFakeReader()
	reader.commentError = true

	e, err := NewExtractor(reader, defaultCfg(), "shop", zap.NewNop())
	require.NoError(t, err)

	md, err := e.Extract(context.Background())
	require.NoError(t, err)
	users := md.GetTable("users", "public")
	require.NotNil(t, users)
	assert.Empty(t, users.Comment)
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	cfg := defaultCfg()
	cfg.SimilarityThreshold = 2.0

	_, err := NewExtractor(newFakeReader(), cfg, "shop", zap.NewNop())
	require.Error(t, err)
}
