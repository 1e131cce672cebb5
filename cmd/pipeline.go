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
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemaplane/db-ontology-builder/internal/pipeline"
	"github.com/schemaplane/db-ontology-builder/internal/utils"
)

var (
	pipelineName   string
	pipelineTables string
	pipelineJoin   string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Build a join pipeline across the given tables and print its SQL",
	Long: `pipeline connects the requested tables through the relationship graph and
prints the resulting SQL statement. Tables may carry an optional column
selection in brackets, for example:

  db_ontology_builder pipeline --tables "orders[id,amount],users"`,
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineName, "name", "", "Pipeline name (default: derived from the tables)")
	pipelineCmd.Flags().StringVar(&pipelineTables, "tables", "", "Comma separated tables, optionally with [column,...] selections - MANDATORY")
	pipelineCmd.Flags().StringVar(&pipelineJoin, "join-type", "LEFT", "Join type (INNER, LEFT, RIGHT, FULL)")
	pipelineCmd.MarkFlagRequired("tables")
}

func parseJoinType(s string) (pipeline.JoinType, error) {
	jt := pipeline.JoinType(strings.ToUpper(strings.TrimSpace(s)))
	if !jt.Valid() {
		return "", fmt.Errorf("invalid join type: %q", s)
	}
	return jt, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	columns, err := utils.ParseTablesFlag(pipelineTables)
	if err != nil {
		return err
	}
	tables := utils.TableOrder(pipelineTables)
	joinType, err := parseJoinType(pipelineJoin)
	if err != nil {
		return err
	}

	md, err := analyzeSchema(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	b, err := newBuilder(md, logger)
	if err != nil {
		return err
	}

	name := pipelineName
	if name == "" {
		name = strings.Join(tables, "_")
	}
	p, err := b.CreatePipeline(name, tables, joinType, columns)
	if err != nil {
		var noPath *pipeline.NoPathError
		if errors.As(err, &noPath) {
			return fmt.Errorf("%w (the tables are in disconnected parts of the relationship graph)", err)
		}
		return err
	}

	fmt.Printf("-- pipeline: %s (%s)\n", p.Name, p.ID)
	fmt.Println(p.ToSQL())
	return nil
}
