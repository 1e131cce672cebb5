package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// stubHandler is a minimal DialectHandler for registry tests.
type stubHandler struct {
	schema string
}

func (s stubHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) { return nil, nil }
func (s stubHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) { return nil, nil }
func (s stubHandler) QuoteIdentifier(name string) string                            { return `"` + name + `"` }
func (s stubHandler) DefaultSchema() string                                         { return s.schema }
func (s stubHandler) ListTables(ctx context.Context, db *DB, schema string, includeViews bool) ([]TableRef, error) {
	return []TableRef{{Name: "users"}}, nil
}
func (s stubHandler) ListColumns(ctx context.Context, db *DB, schema, table string) ([]metadata.Column, error) {
	return nil, nil
}
func (s stubHandler) ListPrimaryKeys(ctx context.Context, db *DB, schema, table string) ([]string, error) {
	return nil, nil
}
func (s stubHandler) ListForeignKeys(ctx context.Context, db *DB, schema, table string) ([]metadata.ForeignKey, error) {
	return nil, nil
}
func (s stubHandler) ListIndexes(ctx context.Context, db *DB, schema, table string) ([]metadata.Index, error) {
	return nil, nil
}
func (s stubHandler) GetTableComment(ctx context.Context, db *DB, schema, table string) (string, error) {
	return "", nil
}
func (s stubHandler) GetRowCountEstimate(ctx context.Context, db *DB, schema, table string) (int64, error) {
	return 0, nil
}

func TestDialectHandlerRegistry(t *testing.T) {
	RegisterDialectHandler("stubdb", stubHandler{schema: "main"})

	h, err := GetDialectHandler("stubdb")
	require.NoError(t, err)
	assert.Equal(t, "main", h.DefaultSchema())

	_, err = GetDialectHandler("no-such-dialect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database dialect")
}

func TestNewUnknownDialect(t *testing.T) {
	_, err := New(config.DatabaseConfig{Dialect: "not-registered"})
	require.Error(t, err)
}

func TestDBDefaultSchemaFallsBackToDBName(t *testing.T) {
	db := &DB{
		Handler: stubHandler{schema: ""},
		Config:  config.DatabaseConfig{DBName: "inventory"},
	}
	assert.Equal(t, "inventory", db.DefaultSchema())

	db.Handler = stubHandler{schema: "public"}
	assert.Equal(t, "public", db.DefaultSchema())
}

func TestDBGuardsUninitializedHandler(t *testing.T) {
	db := &DB{}
	ctx := context.Background()

	_, err := db.ListTables(ctx, "public", false)
	require.Error(t, err)
	_, err = db.ListColumns(ctx, "public", "users")
	require.Error(t, err)
	_, err = db.ListForeignKeys(ctx, "public", "users")
	require.Error(t, err)
	require.Error(t, db.Ping(ctx))
}

func TestDBForwardsToHandler(t *testing.T) {
	db := &DB{Handler: stubHandler{schema: "main"}}

	tables, err := db.ListTables(context.Background(), "main", false)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)
}
