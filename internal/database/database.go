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

// Package database connects to the source database through a dialect handler
// registry and exposes the schema introspection operations the extractor
// needs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// TableRef identifies a table or view within a schema.
type TableRef struct {
	Name   string
	IsView bool
}

// SchemaReader is the introspection surface consumed by the extractor.
type SchemaReader interface {
	ListTables(ctx context.Context, schema string, includeViews bool) ([]TableRef, error)
	ListColumns(ctx context.Context, schema, table string) ([]metadata.Column, error)
	ListPrimaryKeys(ctx context.Context, schema, table string) ([]string, error)
	ListForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKey, error)
	ListIndexes(ctx context.Context, schema, table string) ([]metadata.Index, error)
	GetTableComment(ctx context.Context, schema, table string) (string, error)
	GetRowCountEstimate(ctx context.Context, schema, table string) (int64, error)
	DefaultSchema() string
	Ping(ctx context.Context) error
	Close() error
}

var _ SchemaReader = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
}

// DialectHandler implements pool creation and introspection for one SQL
// dialect. Handlers register themselves in init.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	DefaultSchema() string
	ListTables(ctx context.Context, db *DB, schema string, includeViews bool) ([]TableRef, error)
	ListColumns(ctx context.Context, db *DB, schema, table string) ([]metadata.Column, error)
	ListPrimaryKeys(ctx context.Context, db *DB, schema, table string) ([]string, error)
	ListForeignKeys(ctx context.Context, db *DB, schema, table string) ([]metadata.ForeignKey, error)
	ListIndexes(ctx context.Context, db *DB, schema, table string) ([]metadata.Index, error)
	GetTableComment(ctx context.Context, db *DB, schema, table string) (string, error)
	GetRowCountEstimate(ctx context.Context, db *DB, schema, table string) (int64, error)
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

// RegisterDialectHandler registers a handler under a dialect name.
func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		log.Printf("WARN: Dialect handler for '%s' is being overwritten.", dialect)
	}
	dialectHandlers[dialect] = handler
}

// GetDialectHandler returns the handler registered for the dialect.
func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// New opens a connection pool for the configured dialect and verifies it
// with a ping.
func New(cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	ctx := context.Background()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

// Ping verifies the connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

// Close releases the pool.
func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	log.Println("WARN: Attempted to close a nil database connection pool.")
	return nil
}

// DefaultSchema returns the dialect's default schema name. Dialects where
// schema and database coincide report the configured database name.
func (db *DB) DefaultSchema() string {
	if db.Handler == nil {
		return ""
	}
	if s := db.Handler.DefaultSchema(); s != "" {
		return s
	}
	return db.Config.DBName
}

func (db *DB) ListTables(ctx context.Context, schema string, includeViews bool) ([]TableRef, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListTables(ctx, db, schema, includeViews)
}

func (db *DB) ListColumns(ctx context.Context, schema, table string) ([]metadata.Column, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListColumns(ctx, db, schema, table)
}

func (db *DB) ListPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListPrimaryKeys(ctx, db, schema, table)
}

func (db *DB) ListForeignKeys(ctx context.Context, schema, table string) ([]metadata.ForeignKey, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListForeignKeys(ctx, db, schema, table)
}

func (db *DB) ListIndexes(ctx context.Context, schema, table string) ([]metadata.Index, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListIndexes(ctx, db, schema, table)
}

func (db *DB) GetTableComment(ctx context.Context, schema, table string) (string, error) {
	if db.Handler == nil {
		return "", fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.GetTableComment(ctx, db, schema, table)
}

func (db *DB) GetRowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	if db.Handler == nil {
		return 0, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.GetRowCountEstimate(ctx, db, schema, table)
}
