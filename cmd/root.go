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
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/schemaplane/db-ontology-builder/internal/analyzer"
	"github.com/schemaplane/db-ontology-builder/internal/config"
	"github.com/schemaplane/db-ontology-builder/internal/database"
	_ "github.com/schemaplane/db-ontology-builder/internal/database/mysql"
	_ "github.com/schemaplane/db-ontology-builder/internal/database/postgres"
	_ "github.com/schemaplane/db-ontology-builder/internal/database/sqlserver"
	"github.com/schemaplane/db-ontology-builder/internal/metadata"
	"github.com/schemaplane/db-ontology-builder/internal/pipeline"
)

var supportedDialects = []string{
	"postgres", "cloudsqlpostgres",
	"mysql", "cloudsqlmysql",
	"sqlserver", "cloudsqlsqlserver",
}

var (
	// Database connection flags
	dialect                        string
	host                           string
	port                           int
	username                       string
	password                       string
	dbName                         string
	cloudSQLInstanceConnectionName string
	cloudSQLUsePrivateIP           bool

	// Analysis flags
	schemas             []string
	excludeTables       []string
	maxTables           int
	includeViews        bool
	similarityThreshold float64

	// Output and integration flags
	outputDir     string
	geminiAPIKey  string
	neo4jURI      string
	neo4jUser     string
	neo4jPassword string
	neo4jDatabase string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "db_ontology_builder",
	Short: "Infer relationships from a database schema and build an ontology",
	Long: `db_ontology_builder is a CLI tool that inspects a relational database's
schema, infers relationships between tables that are not declared as foreign
keys, and synthesizes an ontology plus ready-to-run join pipelines.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the application logger. Verbose switches to the human
// oriented development encoder with debug level.
func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildConfig assembles the run configuration from flags and DOB_* env vars
// and validates it eagerly.
func buildConfig() (*config.Config, error) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Dialect:                        viper.GetString("dialect"),
			Host:                           viper.GetString("host"),
			Port:                           viper.GetInt("port"),
			User:                           viper.GetString("username"),
			Password:                       viper.GetString("password"),
			DBName:                         viper.GetString("database"),
			CloudSQLInstanceConnectionName: viper.GetString("cloudsql-instance-connection-name"),
			UsePrivateIP:                   viper.GetBool("cloudsql-use-private-ip"),
		},
		Analysis:     config.DefaultAnalysisConfig(),
		Output:       config.DefaultOutputConfig(),
		Neo4j:        config.DefaultNeo4jConfig(),
		GeminiAPIKey: viper.GetString("gemini-api-key"),
		Verbose:      viper.GetBool("verbose"),
	}

	if len(schemas) > 0 {
		cfg.Analysis.Schemas = schemas
	}
	cfg.Analysis.ExcludeTables = excludeTables
	cfg.Analysis.MaxTables = maxTables
	cfg.Analysis.IncludeViews = includeViews
	cfg.Analysis.SimilarityThreshold = viper.GetFloat64("similarity-threshold")

	if dir := viper.GetString("output-dir"); dir != "" {
		cfg.Output.OutputDir = dir
	}
	if uri := viper.GetString("neo4j-uri"); uri != "" {
		cfg.Neo4j.URI = uri
	}
	if user := viper.GetString("neo4j-user"); user != "" {
		cfg.Neo4j.User = user
	}
	cfg.Neo4j.Password = viper.GetString("neo4j-password")
	if db := viper.GetString("neo4j-database"); db != "" {
		cfg.Neo4j.Database = db
	}

	if err := validateDialect(cfg.Database.Dialect); err != nil {
		return nil, err
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateDialect(dialect string) error {
	for _, supported := range supportedDialects {
		if dialect == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported dialect: %s (only %s are supported)",
		dialect, strings.Join(supportedDialects, ", "))
}

// analyzeSchema connects to the database, extracts the snapshot and runs
// relationship detection. The caller owns closing nothing; the connection is
// released before returning.
func analyzeSchema(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*metadata.DatabaseMetadata, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	extractor, err := database.NewExtractor(db, cfg.Analysis, cfg.Database.DBName, logger)
	if err != nil {
		return nil, err
	}
	md, err := extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema extraction failed: %w", err)
	}

	a, err := analyzer.NewRelationshipAnalyzer(cfg.Analysis, logger)
	if err != nil {
		return nil, err
	}
	a.Analyze(md)
	return md, nil
}

// newBuilder wraps pipeline.NewBuilder for the subcommands.
func newBuilder(md *metadata.DatabaseMetadata, logger *zap.Logger) (*pipeline.Builder, error) {
	b, err := pipeline.NewBuilder(md, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build relationship graph: %w", err)
	}
	return b, nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	// Database connection flags
	pf.StringVar(&dialect, "dialect", "", fmt.Sprintf("Database dialect (%s) - MANDATORY", strings.Join(supportedDialects, ", ")))
	pf.StringVar(&host, "host", "", "Database host")
	pf.IntVar(&port, "port", 0, "Database port")
	pf.StringVar(&username, "username", "", "Database username")
	pf.StringVar(&password, "password", "", "Database password")
	pf.StringVar(&dbName, "database", "", "Database name - MANDATORY")
	pf.StringVar(&cloudSQLInstanceConnectionName, "cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects)")
	pf.BoolVar(&cloudSQLUsePrivateIP, "cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection")

	// Analysis flags
	pf.StringSliceVar(&schemas, "schemas", nil, "Schemas to analyze (default: dialect default schema)")
	pf.StringSliceVar(&excludeTables, "exclude-tables", nil, "Table names to skip")
	pf.IntVar(&maxTables, "max-tables", 0, "Maximum number of tables to process (0 = unlimited)")
	pf.BoolVar(&includeViews, "include-views", false, "Include views in the analysis")
	pf.Float64Var(&similarityThreshold, "similarity-threshold", 0.8, "Minimum similarity score (0-1) for inferred relationships")

	// Output and integration flags
	pf.StringVar(&outputDir, "output-dir", "./output", "Directory for generated reports")
	pf.StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key for entity descriptions (also DOB_GEMINI_API_KEY)")
	pf.StringVar(&neo4jURI, "neo4j-uri", "", "Neo4j bolt URI for ontology export")
	pf.StringVar(&neo4jUser, "neo4j-user", "", "Neo4j user")
	pf.StringVar(&neo4jPassword, "neo4j-password", "", "Neo4j password (also DOB_NEO4J_PASSWORD)")
	pf.StringVar(&neo4jDatabase, "neo4j-database", "", "Neo4j database name")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")

	// Every flag can come from a DOB_* environment variable, for example
	// DOB_PASSWORD or DOB_CLOUDSQL_INSTANCE_CONNECTION_NAME.
	viper.SetEnvPrefix("DOB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	pf.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(starSchemaCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(recommendCmd)
}
