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

package pipeline

import (
	"fmt"
	"sort"

	"github.com/yourbasic/graph"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// edgeInfo records the winning relationship for a directed edge. When
// parallel relationships connect the same pair of tables, the one with the
// lowest weight (highest confidence) is kept.
type edgeInfo struct {
	rel    metadata.DetectedRelationship
	weight int64
}

// Graph is a weighted, bidirectional relationship graph over table names.
// It is rebuilt from scratch for every analysis run.
type Graph struct {
	g     *graph.Mutable
	index map[string]int
	names []string
	edges map[[2]int]edgeInfo
}

// BuildGraph constructs the relationship graph from a snapshot. Every table
// becomes a vertex; every detected relationship becomes a pair of directed
// edges (one per direction, columns swapped on the reverse edge) weighted by
// confidence.
func BuildGraph(md *metadata.DatabaseMetadata) (*Graph, error) {
	index := make(map[string]int)
	var names []string
	addVertex := func(name string) (int, error) {
		if name == "" {
			return 0, fmt.Errorf("relationship graph: empty table name")
		}
		if v, ok := index[name]; ok {
			return v, nil
		}
		v := len(names)
		index[name] = v
		names = append(names, name)
		return v, nil
	}

	for i := range md.Tables {
		if _, err := addVertex(md.Tables[i].Name); err != nil {
			return nil, err
		}
	}
	// Relationships may reference tables outside the extracted set, for
	// example when a schema filter cut the referenced table. They still
	// get a vertex so paths through them stay resolvable.
	for _, rel := range md.DetectedRelationships {
		if _, err := addVertex(rel.SourceTable); err != nil {
			return nil, err
		}
		if _, err := addVertex(rel.TargetTable); err != nil {
			return nil, err
		}
	}

	rg := &Graph{
		g:     graph.New(len(names)),
		index: index,
		names: names,
		edges: make(map[[2]int]edgeInfo),
	}

	for _, rel := range md.DetectedRelationships {
		v := index[rel.SourceTable]
		w := index[rel.TargetTable]
		if v == w {
			continue
		}
		rg.addEdge(v, w, rel)

		reverse := rel
		reverse.SourceTable, reverse.TargetTable = rel.TargetTable, rel.SourceTable
		reverse.SourceColumn, reverse.TargetColumn = rel.TargetColumn, rel.SourceColumn
		rg.addEdge(w, v, reverse)
	}
	return rg, nil
}

// addEdge inserts or replaces the directed edge (v,w), keeping the lowest
// weight among parallel relationships.
func (rg *Graph) addEdge(v, w int, rel metadata.DetectedRelationship) {
	weight := rel.Confidence.Weight()
	key := [2]int{v, w}
	if existing, ok := rg.edges[key]; ok && existing.weight <= weight {
		return
	}
	rg.edges[key] = edgeInfo{rel: rel, weight: weight}
	rg.g.AddCost(v, w, weight)
}

// HasTable reports whether the table is a vertex in the graph.
func (rg *Graph) HasTable(name string) bool {
	_, ok := rg.index[name]
	return ok
}

// Tables returns all vertex names in insertion order.
func (rg *Graph) Tables() []string {
	out := make([]string, len(rg.names))
	copy(out, rg.names)
	return out
}

// ShortestPath returns the cheapest join path between two tables, or nil when
// either table is unknown, the tables are identical, or no path exists.
func (rg *Graph) ShortestPath(from, to string) *JoinPath {
	v, okV := rg.index[from]
	w, okW := rg.index[to]
	if !okV || !okW || v == w {
		return nil
	}
	path, dist := graph.ShortestPath(rg.g, v, w)
	if dist < 0 || len(path) < 2 {
		return nil
	}
	return rg.joinPath(path, dist)
}

func (rg *Graph) joinPath(path []int, dist int64) *JoinPath {
	jp := &JoinPath{TotalCost: dist}
	for _, v := range path {
		jp.Tables = append(jp.Tables, rg.names[v])
	}
	for i := 0; i+1 < len(path); i++ {
		info := rg.edges[[2]int{path[i], path[i+1]}]
		jp.Relationships = append(jp.Relationships, info.rel)
	}
	return jp
}

// FindAllJoinPaths returns the shortest path from the given table to every
// other reachable table within maxDepth hops, sorted by ascending cost.
func (rg *Graph) FindAllJoinPaths(from string, maxDepth int) []*JoinPath {
	if _, ok := rg.index[from]; !ok {
		return nil
	}
	var paths []*JoinPath
	for _, name := range rg.names {
		if name == from {
			continue
		}
		jp := rg.ShortestPath(from, name)
		if jp == nil || jp.Hops() > maxDepth {
			continue
		}
		paths = append(paths, jp)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].TotalCost < paths[j].TotalCost
	})
	return paths
}

// Stats summarizes graph connectivity.
type Stats struct {
	Tables           int      `json:"tables"`
	Relationships    int      `json:"relationships"`
	IsolatedTables   []string `json:"isolated_tables"`
	Components       int      `json:"components"`
	LargestComponent int      `json:"largest_component"`
}

// GraphStats computes connectivity statistics. The graph is symmetric, so
// strongly connected components coincide with connected components.
func (rg *Graph) GraphStats() Stats {
	s := Stats{
		Tables:        len(rg.names),
		Relationships: len(rg.edges) / 2,
	}

	degree := make([]int, len(rg.names))
	for key := range rg.edges {
		degree[key[0]]++
	}
	for v, name := range rg.names {
		if degree[v] == 0 {
			s.IsolatedTables = append(s.IsolatedTables, name)
		}
	}
	sort.Strings(s.IsolatedTables)

	for _, comp := range graph.StrongComponents(rg.g) {
		s.Components++
		if len(comp) > s.LargestComponent {
			s.LargestComponent = len(comp)
		}
	}
	return s
}
