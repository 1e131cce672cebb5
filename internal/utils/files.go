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
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureOutputDir creates the output directory if it does not exist.
func EnsureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}
	return nil
}

// WriteOutputFile writes content to dir/name, creating dir if needed.
func WriteOutputFile(dir, name string, content []byte) (string, error) {
	if err := EnsureOutputDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

// ParseTablesFlag parses a table selection like
// "orders[id,amount],users,products[id]" into a table to columns map. A
// table without brackets maps to nil, meaning all columns.
func ParseTablesFlag(tablesFlag string) (map[string][]string, error) {
	tableColumns := make(map[string][]string)
	if tablesFlag == "" {
		return tableColumns, nil
	}

	tablesFlag = strings.ReplaceAll(tablesFlag, " ", "")
	parts := SplitOutsideBrackets(tablesFlag)

	for _, part := range parts {
		part = strings.TrimSpace(part)
		bracketStart := strings.Index(part, "[")
		if bracketStart == -1 {
			tableColumns[part] = nil
			continue
		}
		bracketEnd := strings.Index(part, "]")
		if bracketEnd == -1 {
			return nil, fmt.Errorf("missing closing bracket in: %s", part)
		}

		tableName := strings.TrimSpace(part[:bracketStart])
		columnsStr := strings.TrimSpace(part[bracketStart+1 : bracketEnd])

		columns := strings.Split(columnsStr, ",")
		var trimmedColumns []string
		for _, col := range columns {
			if c := strings.TrimSpace(col); c != "" {
				trimmedColumns = append(trimmedColumns, c)
			}
		}
		tableColumns[tableName] = trimmedColumns
	}
	return tableColumns, nil
}

// TableOrder returns the table names of a selection flag in their original
// order, since map iteration loses it.
func TableOrder(tablesFlag string) []string {
	if tablesFlag == "" {
		return nil
	}
	tablesFlag = strings.ReplaceAll(tablesFlag, " ", "")
	var names []string
	for _, part := range SplitOutsideBrackets(tablesFlag) {
		if i := strings.Index(part, "["); i != -1 {
			part = part[:i]
		}
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// SplitOutsideBrackets splits a string by commas that are not within square
// brackets.
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	inBrackets := false

	for _, char := range s {
		switch char {
		case '[':
			inBrackets = true
			current.WriteRune(char)
		case ']':
			inBrackets = false
			current.WriteRune(char)
		case ',':
			if inBrackets {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}
