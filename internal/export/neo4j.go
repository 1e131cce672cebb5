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

// Package export pushes the generated ontology into Neo4j as a meta graph:
// one node per object type, one relationship per link type, plus uniqueness
// constraints for future data loads.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/ontology"
)

// Neo4jExporter writes the ontology meta graph to a Neo4j instance.
type Neo4jExporter struct {
	driver neo4j.DriverWithContext
	cfg    config.Neo4jConfig
	logger *zap.Logger
}

// NewNeo4jExporter connects to Neo4j and verifies connectivity.
func NewNeo4jExporter(ctx context.Context, cfg config.Neo4jConfig, logger *zap.Logger) (*Neo4jExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Neo4j at %s: %w", cfg.URI, err)
	}
	return &Neo4jExporter{driver: driver, cfg: cfg, logger: logger}, nil
}

// Close releases the driver.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// ExportOntology writes constraints, entity nodes and link relationships.
func (e *Neo4jExporter) ExportOntology(ctx context.Context, ont *ontology.Ontology) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.cfg.Database})
	defer session.Close(ctx)

	if err := e.createConstraints(ctx, session, ont); err != nil {
		return err
	}
	if err := e.createEntityNodes(ctx, session, ont); err != nil {
		return err
	}
	if err := e.createLinkRelationships(ctx, session, ont); err != nil {
		return err
	}

	e.logger.Info("ontology exported to Neo4j",
		zap.String("uri", e.cfg.URI),
		zap.Int("object_types", len(ont.ObjectTypes)),
		zap.Int("link_types", len(ont.LinkTypes)))
	return nil
}

// createConstraints adds a uniqueness constraint on the primary key property
// of every object type, so later data loads stay deduplicated.
func (e *Neo4jExporter) createConstraints(ctx context.Context, session neo4j.SessionWithContext, ont *ontology.Ontology) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i := range ont.ObjectTypes {
			obj := &ont.ObjectTypes[i]
			if obj.PrimaryKey == "" {
				continue
			}
			// Labels and property names cannot be parameters in Cypher.
			query := fmt.Sprintf(
				"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
				quoteCypherName("uniq_"+obj.APIName+"_"+obj.PrimaryKey),
				quoteCypherName(obj.APIName),
				quoteCypherName(obj.PrimaryKey),
			)
			if _, err := tx.Run(ctx, query, nil); err != nil {
				return nil, fmt.Errorf("creating constraint for %s: %w", obj.APIName, err)
			}
		}
		return nil, nil
	})
	return err
}

func (e *Neo4jExporter) createEntityNodes(ctx context.Context, session neo4j.SessionWithContext, ont *ontology.Ontology) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i := range ont.ObjectTypes {
			obj := &ont.ObjectTypes[i]
			query := `MERGE (e:Entity {name: $name})
				SET e.displayName = $displayName,
				    e.sourceTable = $sourceTable,
				    e.primaryKey = $primaryKey,
				    e.propertyCount = $propertyCount,
				    e.description = $description`
			params := map[string]any{
				"name":          obj.APIName,
				"displayName":   obj.DisplayName,
				"sourceTable":   obj.SourceTable,
				"primaryKey":    obj.PrimaryKey,
				"propertyCount": len(obj.Properties),
				"description":   obj.Description,
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("merging entity %s: %w", obj.APIName, err)
			}
		}
		return nil, nil
	})
	return err
}

func (e *Neo4jExporter) createLinkRelationships(ctx context.Context, session neo4j.SessionWithContext, ont *ontology.Ontology) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, link := range ont.LinkTypes {
			query := `MATCH (s:Entity {name: $source}), (t:Entity {name: $target})
				MERGE (s)-[r:LINKS_TO {name: $name}]->(t)
				SET r.cardinality = $cardinality,
				    r.confidence = $confidence,
				    r.creationReason = $reason`
			params := map[string]any{
				"source":      link.SourceObjectType,
				"target":      link.TargetObjectType,
				"name":        link.APIName,
				"cardinality": link.Cardinality,
				"confidence":  string(link.Confidence),
				"reason":      link.CreationReason,
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("merging link %s: %w", link.APIName, err)
			}
		}
		return nil, nil
	})
	return err
}

// quoteCypherName escapes an identifier for use as a label or property name.
func quoteCypherName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
