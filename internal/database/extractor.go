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

package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// Extractor builds a full schema snapshot through a SchemaReader. A table
// that fails to extract is logged and skipped; a schema listing failure is
// fatal.
type Extractor struct {
	reader SchemaReader
	cfg    config.AnalysisConfig
	dbName string
	logger *zap.Logger
}

// NewExtractor validates the analysis configuration and returns an Extractor.
func NewExtractor(reader SchemaReader, cfg config.AnalysisConfig, dbName string, logger *zap.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{reader: reader, cfg: cfg, dbName: dbName, logger: logger}, nil
}

// Extract walks the configured schemas and returns the snapshot.
func (e *Extractor) Extract(ctx context.Context) (*metadata.DatabaseMetadata, error) {
	schemas := e.cfg.Schemas
	if len(schemas) == 0 {
		schemas = []string{e.reader.DefaultSchema()}
	}
	excluded := make(map[string]bool, len(e.cfg.ExcludeTables))
	for _, t := range e.cfg.ExcludeTables {
		excluded[t] = true
	}

	md := &metadata.DatabaseMetadata{DatabaseName: e.dbName}
	for _, schema := range schemas {
		refs, err := e.reader.ListTables(ctx, schema, e.cfg.IncludeViews)
		if err != nil {
			return nil, fmt.Errorf("listing tables in schema %q: %w", schema, err)
		}
		for _, ref := range refs {
			if excluded[ref.Name] {
				e.logger.Debug("table excluded by configuration",
					zap.String("schema", schema), zap.String("table", ref.Name))
				continue
			}
			if e.cfg.MaxTables > 0 && len(md.Tables) >= e.cfg.MaxTables {
				e.logger.Warn("table limit reached, remaining tables skipped",
					zap.Int("max_tables", e.cfg.MaxTables))
				return md, nil
			}
			table, err := e.extractTable(ctx, schema, ref)
			if err != nil {
				e.logger.Warn("skipping table",
					zap.String("schema", schema),
					zap.String("table", ref.Name),
					zap.Error(err))
				continue
			}
			md.Tables = append(md.Tables, *table)
		}
	}

	e.logger.Info("schema extraction complete",
		zap.String("database", e.dbName),
		zap.Int("tables", md.TableCount()),
		zap.Int("columns", md.ColumnCount()),
		zap.Int("foreign_keys", md.ForeignKeyCount()))
	return md, nil
}

func (e *Extractor) extractTable(ctx context.Context, schema string, ref TableRef) (*metadata.Table, error) {
	table := &metadata.Table{
		Name:   ref.Name,
		Schema: schema,
		IsView: ref.IsView,
	}

	columns, err := e.reader.ListColumns(ctx, schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	table.Columns = columns

	pks, err := e.reader.ListPrimaryKeys(ctx, schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("listing primary keys: %w", err)
	}
	table.PrimaryKeys = pks
	for _, pk := range pks {
		if col := table.GetColumn(pk); col != nil {
			col.IsPrimaryKey = true
		}
	}

	fks, err := e.reader.ListForeignKeys(ctx, schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("listing foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := e.reader.ListIndexes(ctx, schema, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	table.Indexes = indexes
	for _, idx := range indexes {
		if idx.IsUnique && len(idx.Columns) == 1 {
			if col := table.GetColumn(idx.Columns[0]); col != nil {
				col.IsUnique = true
			}
		}
	}

	// Comments and row estimates are nice to have; their failure never
	// blocks the table.
	if comment, err := e.reader.GetTableComment(ctx, schema, ref.Name); err != nil {
		e.logger.Debug("table comment unavailable",
			zap.String("table", ref.Name), zap.Error(err))
	} else {
		table.Comment = comment
	}
	if !ref.IsView {
		if rows, err := e.reader.GetRowCountEstimate(ctx, schema, ref.Name); err != nil {
			e.logger.Debug("row count estimate unavailable",
				zap.String("table", ref.Name), zap.Error(err))
		} else {
			table.RowCountEstimate = rows
		}
	}
	return table, nil
}
