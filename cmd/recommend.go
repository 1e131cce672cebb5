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

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print join recommendations and graph connectivity",
	RunE:  runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
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

	stats := b.Graph().GraphStats()
	fmt.Printf("Graph: %d tables, %d relationships, %d components (largest: %d)\n",
		stats.Tables, stats.Relationships, stats.Components, stats.LargestComponent)
	if len(stats.IsolatedTables) > 0 {
		fmt.Printf("Isolated tables: %v\n", stats.IsolatedTables)
	}

	for _, rec := range b.JoinRecommendations() {
		fmt.Printf("  [%s] %s: %s\n", rec.Kind, rec.Table, rec.Note)
	}
	return nil
}
