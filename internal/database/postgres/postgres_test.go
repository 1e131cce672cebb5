package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaplane/db-ontology-builder/internal/database"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return &database.DB{Pool: pool, Handler: postgresHandler{}}, mock
}

func TestQuoteIdentifier(t *testing.T) {
	h := postgresHandler{}
	assert.Equal(t, `"users"`, h.QuoteIdentifier("users"))
	assert.Equal(t, `"we""ird"`, h.QuoteIdentifier(`we"ird`))
}

func TestDefaultSchema(t *testing.T) {
	assert.Equal(t, "public", postgresHandler{}.DefaultSchema())
}

func TestListTables(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"table_name", "table_type"}).
		AddRow("orders", "BASE TABLE").
		AddRow("users", "BASE TABLE")
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnRows(rows)

	tables, err := db.ListTables(context.Background(), "public", false)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "orders", tables[0].Name)
	assert.False(t, tables[0].IsView)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTablesWithViews(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"table_name", "table_type"}).
		AddRow("users", "BASE TABLE").
		AddRow("user_stats", "VIEW")
	mock.ExpectQuery("FROM information_schema.tables").
		WithArgs("public").
		WillReturnRows(rows)

	tables, err := db.ListTables(context.Background(), "public", true)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.True(t, tables[1].IsView)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListColumns(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position", "description"}).
		AddRow("id", "integer", "NO", "nextval('users_id_seq')", 1, "surrogate key").
		AddRow("email", "text", "YES", "", 2, "")
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "users").
		WillReturnRows(rows)

	cols, err := db.ListColumns(context.Background(), "public", "users")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "id", cols[0].Name)
	assert.False(t, cols[0].Nullable)
	assert.Equal(t, "surrogate key", cols[0].Comment)
	assert.Equal(t, 1, cols[0].OrdinalPosition)

	assert.True(t, cols[1].Nullable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPrimaryKeys(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"column_name"}).AddRow("tenant_id").AddRow("id")
	mock.ExpectQuery("PRIMARY KEY").
		WithArgs("public", "events").
		WillReturnRows(rows)

	pks, err := db.ListPrimaryKeys(context.Background(), "public", "events")
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant_id", "id"}, pks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForeignKeys(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"constraint_name", "column_name", "ref_table", "ref_column", "ref_schema"}).
		AddRow("orders_user_id_fkey", "user_id", "users", "id", "public")
	mock.ExpectQuery("FOREIGN KEY").
		WithArgs("public", "orders").
		WillReturnRows(rows)

	fks, err := db.ListForeignKeys(context.Background(), "public", "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "orders_user_id_fkey", fks[0].ConstraintName)
	assert.Equal(t, "user_id", fks[0].Column)
	assert.Equal(t, "users", fks[0].ReferencesTable)
	assert.Equal(t, "id", fks[0].ReferencesColumn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListIndexesGroupsColumns(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"index_name", "column_name", "indisunique", "indisprimary"}).
		AddRow("events_pkey", "tenant_id", true, true).
		AddRow("events_pkey", "id", true, true).
		AddRow("events_created_idx", "created_at", false, false)
	mock.ExpectQuery("pg_index").
		WithArgs("public", "events").
		WillReturnRows(rows)

	indexes, err := db.ListIndexes(context.Background(), "public", "events")
	require.NoError(t, err)
	require.Len(t, indexes, 2)

	assert.Equal(t, "events_pkey", indexes[0].Name)
	assert.Equal(t, []string{"tenant_id", "id"}, indexes[0].Columns)
	assert.True(t, indexes[0].IsUnique)
	assert.True(t, indexes[0].IsPrimary)

	assert.Equal(t, "events_created_idx", indexes[1].Name)
	assert.False(t, indexes[1].IsUnique)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableComment(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("obj_description").
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows([]string{"comment"}).AddRow("Registered users"))

	comment, err := db.GetTableComment(context.Background(), "public", "users")
	require.NoError(t, err)
	assert.Equal(t, "Registered users", comment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableCommentMissingTable(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("obj_description").
		WithArgs("public", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"comment"}))

	comment, err := db.GetTableComment(context.Background(), "public", "ghost")
	require.NoError(t, err)
	assert.Empty(t, comment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRowCountEstimate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("reltuples").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"estimate"}).AddRow(54000))

	estimate, err := db.GetRowCountEstimate(context.Background(), "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(54000), estimate)
	require.NoError(t, mock.ExpectationsWereMet())
}
