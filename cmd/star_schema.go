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
	"fmt"

	"github.com/spf13/cobra"
)

var starSchemaCmd = &cobra.Command{
	Use:   "star-schema <fact-table>",
	Short: "Build a star schema pipeline around a fact table",
	Long: `star-schema treats the given table as a fact table, joins every dimension
table it references through detected relationships, and prints the SQL.`,
	Args: cobra.ExactArgs(1),
	RunE: runStarSchema,
}

func runStarSchema(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	md, err := analyzeSchema(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	b, err := newBuilder(md, logger)
	if err != nil {
		return err
	}

	p, err := b.CreateStarSchemaPipeline(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("-- star schema: %s (%s)\n", p.Name, p.ID)
	fmt.Println(p.ToSQL())
	return nil
}
