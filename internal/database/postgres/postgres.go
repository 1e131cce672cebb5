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
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/database"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// postgresHandler implements database.DialectHandler for PostgreSQL.
type postgresHandler struct{}

var _ database.DialectHandler = (*postgresHandler)(nil)

// CreateCloudSQLPool connects through the Cloud SQL Go connector using the
// pgx stdlib driver.
func (h postgresHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.User == "" || cfg.DBName == "" || cfg.CloudSQLInstanceConnectionName == "" {
		return nil, fmt.Errorf("missing required CloudSQL connection parameter (user, db, instance)")
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", cfg.User, cfg.Password, cfg.DBName)
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	var opts []cloudsqlconn.Option
	if cfg.UsePrivateIP {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}
	instance := cfg.CloudSQLInstanceConnectionName
	pgxCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(ctx, instance)
	}

	dbURI := stdlib.RegisterConnConfig(pgxCfg)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return dbPool, nil
}

// CreateStandardPool creates a standard PostgreSQL connection pool.
func (h postgresHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode,
	)

	dbPool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for PostgreSQL.
func (h postgresHandler) QuoteIdentifier(name string) string {
	name = strings.Replace(name, `"`, `""`, -1)
	return fmt.Sprintf(`"%s"`, name)
}

// DefaultSchema for PostgreSQL.
func (h postgresHandler) DefaultSchema() string {
	return "public"
}

// ListTables returns the base tables, and optionally views, in a schema.
func (h postgresHandler) ListTables(ctx context.Context, db *database.DB, schema string, includeViews bool) ([]database.TableRef, error) {
	query := `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name;`
	if includeViews {
		query = `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name;`
	}

	rows, err := db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []database.TableRef
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, database.TableRef{Name: name, IsView: tableType == "VIEW"})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

// ListColumns returns the columns of a table in ordinal order, including
// their comments.
func (h postgresHandler) ListColumns(ctx context.Context, db *database.DB, schema, table string) ([]metadata.Column, error) {
	query := `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable,
		       COALESCE(c.column_default, ''),
		       c.ordinal_position,
		       COALESCE(pgd.description, '')
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st
		    ON st.schemaname = c.table_schema AND st.relname = c.table_name
		LEFT JOIN pg_catalog.pg_description pgd
		    ON pgd.objoid = st.relid AND pgd.objsubid = c.ordinal_position
		WHERE c.table_schema = $1
		AND c.table_name = $2
		ORDER BY c.ordinal_position;`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []metadata.Column
	for rows.Next() {
		var col metadata.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &col.OrdinalPosition, &col.Comment); err != nil {
			return nil, fmt.Errorf("error scanning column: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// ListPrimaryKeys returns the primary key column names in key order.
func (h postgresHandler) ListPrimaryKeys(ctx context.Context, db *database.DB, schema, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		    ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		    AND tc.table_schema = $1
		    AND tc.table_name = $2
		ORDER BY kcu.ordinal_position;`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying primary keys for table %s: %w", table, err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning primary key column: %w", err)
		}
		pks = append(pks, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary key rows: %w", err)
	}
	return pks, nil
}

// ListForeignKeys returns the declared foreign key constraints of a table.
func (h postgresHandler) ListForeignKeys(ctx context.Context, db *database.DB, schema, table string) ([]metadata.ForeignKey, error) {
	query := `
		SELECT tc.constraint_name,
		       kcu.column_name,
		       ccu.table_name AS ref_table,
		       ccu.column_name AS ref_column,
		       ccu.table_schema AS ref_schema
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		    ON tc.constraint_name = kcu.constraint_name
		    AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		    ON ccu.constraint_name = tc.constraint_name
		    AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		    AND tc.table_schema = $1
		    AND kcu.table_name = $2;`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying foreign keys for table %s: %w", table, err)
	}
	defer rows.Close()

	var fks []metadata.ForeignKey
	for rows.Next() {
		var fk metadata.ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.Column, &fk.ReferencesTable, &fk.ReferencesColumn, &fk.ReferencesSchema); err != nil {
			return nil, fmt.Errorf("error scanning foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign key rows: %w", err)
	}
	return fks, nil
}

// ListIndexes returns the indexes of a table with their column lists.
func (h postgresHandler) ListIndexes(ctx context.Context, db *database.DB, schema, table string) ([]metadata.Index, error) {
	query := `
		SELECT i.relname AS index_name,
		       a.attname AS column_name,
		       ix.indisunique,
		       ix.indisprimary
		FROM pg_catalog.pg_class t
		JOIN pg_catalog.pg_index ix ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
		AND t.relname = $2
		ORDER BY i.relname, a.attnum;`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying indexes for table %s: %w", table, err)
	}
	defer rows.Close()

	var order []string
	byName := make(map[string]*metadata.Index)
	for rows.Next() {
		var name, column string
		var isUnique, isPrimary bool
		if err := rows.Scan(&name, &column, &isUnique, &isPrimary); err != nil {
			return nil, fmt.Errorf("error scanning index row: %w", err)
		}
		idx, ok := byName[name]
		if !ok {
			idx = &metadata.Index{Name: name, IsUnique: isUnique, IsPrimary: isPrimary}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index rows: %w", err)
	}

	indexes := make([]metadata.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}

// GetTableComment returns the table comment, empty if none is set.
func (h postgresHandler) GetTableComment(ctx context.Context, db *database.DB, schema, table string) (string, error) {
	query := `
		SELECT COALESCE(obj_description(c.oid), '')
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		AND c.relname = $2;`

	var comment string
	err := db.QueryRowContext(ctx, query, schema, table).Scan(&comment)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to retrieve table comment: %w", err)
	}
	return comment, nil
}

// GetRowCountEstimate returns the planner's row estimate, avoiding a full
// count on large tables.
func (h postgresHandler) GetRowCountEstimate(ctx context.Context, db *database.DB, schema, table string) (int64, error) {
	query := `
		SELECT COALESCE(c.reltuples::bigint, 0)
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		AND c.relname = $2;`

	var estimate int64
	err := db.QueryRowContext(ctx, query, schema, table).Scan(&estimate)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to retrieve row count estimate: %w", err)
	}
	if estimate < 0 {
		estimate = 0
	}
	return estimate, nil
}

func init() {
	database.RegisterDialectHandler("postgres", postgresHandler{})
	database.RegisterDialectHandler("cloudsqlpostgres", postgresHandler{})
}
