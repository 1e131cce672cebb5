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

	"github.com/schemaplane/db-ontology-builder/internal/report"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Generate joined datasets for every high confidence relationship",
	Long: `datasets builds one two-table dataset per high confidence relationship
and writes the SQL to the output directory.`,
	RunE: runDatasets,
}

func runDatasets(cmd *cobra.Command, args []string) error {
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

	datasets := b.GenerateDatasets()
	if len(datasets) == 0 {
		fmt.Println("No high confidence relationships found; no datasets generated.")
		return nil
	}

	w := report.NewWriter(cfg.Output, logger)
	path, err := w.WritePipelinesSQL(nil, datasets)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d datasets:\n", len(datasets))
	for i := range datasets {
		d := &datasets[i]
		fmt.Printf("  %s (%s)\n", d.Name, d.Provenance)
	}
	fmt.Printf("SQL written to %s\n", path)
	return nil
}
