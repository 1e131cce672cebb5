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
package config

import (
	"fmt"
	"regexp"
)

// Config holds all configuration for the application.
type Config struct {
	Database     DatabaseConfig
	Analysis     AnalysisConfig
	Output       OutputConfig
	Neo4j        Neo4jConfig
	GeminiAPIKey string
	Verbose      bool
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Dialect                        string
	Host                           string
	Port                           int
	User                           string
	Password                       string
	DBName                         string
	SSLMode                        string
	CloudSQLInstanceConnectionName string
	UsePrivateIP                   bool
}

// AnalysisConfig controls relationship detection and schema extraction.
// The zero value is not usable; call DefaultAnalysisConfig and override.
type AnalysisConfig struct {
	// FKColumnPatterns are regex patterns a column name must match to be
	// considered a foreign key candidate. Validated eagerly.
	FKColumnPatterns []string

	// SimilarityThreshold is the minimum similarity score (0-1) for the
	// similarity detection tier. A pair scoring exactly at the threshold
	// is included.
	SimilarityThreshold float64

	// Schemas to analyze. Empty means the dialect default schema.
	Schemas []string

	// ExcludeTables are table names skipped during extraction.
	ExcludeTables []string

	// MaxTables caps the number of tables processed per schema. 0 = unlimited.
	MaxTables int

	// IncludeViews includes views in the extracted snapshot.
	IncludeViews bool
}

// DefaultAnalysisConfig returns the documented defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		FKColumnPatterns:    []string{"_id$", "_fk$", "Id$"},
		SimilarityThreshold: 0.8,
		Schemas:             []string{"public"},
	}
}

// Validate checks the analysis configuration eagerly. Detection never runs
// with a config that failed validation.
func (c *AnalysisConfig) Validate() error {
	for _, pattern := range c.FKColumnPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid fk column pattern %q: %w", pattern, err)
		}
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range [0,1]", c.SimilarityThreshold)
	}
	if c.MaxTables < 0 {
		return fmt.Errorf("max tables must not be negative, got %d", c.MaxTables)
	}
	return nil
}

// OutputConfig controls report generation.
type OutputConfig struct {
	OutputDir string

	MetadataReportName string
	OntologyReportName string
	OntologyJSONName   string
	PipelineSQLName    string
}

// DefaultOutputConfig returns the default report file layout.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		OutputDir:          "./output",
		MetadataReportName: "metadata_report.md",
		OntologyReportName: "ontology_report.md",
		OntologyJSONName:   "ontology.json",
		PipelineSQLName:    "pipelines.sql",
	}
}

// Neo4jConfig holds Neo4j export configuration.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
}

// DefaultNeo4jConfig returns defaults for a local Neo4j instance.
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:      "bolt://localhost:7687",
		User:     "neo4j",
		Database: "neo4j",
	}
}
