package analyzer

import (
	"strings"

	"github.com/schemaplane/db-ontology-builder/internal/metadata"
)

// Weights for the three similarity signals.
const (
	nameWeight    = 0.5
	typeWeight    = 0.3
	integerWeight = 0.2
)

var integerTypes = map[string]bool{
	"integer":   true,
	"int":       true,
	"int4":      true,
	"smallint":  true,
	"bigint":    true,
	"int8":      true,
	"serial":    true,
	"bigserial": true,
}

var textTypes = map[string]bool{
	"varchar":           true,
	"character varying": true,
	"text":              true,
	"char":              true,
	"character":         true,
	"name":              true,
}

// ScoreColumns computes a similarity score in [0,1] for two columns.
// The score is a weighted sum of name similarity, type compatibility and an
// integer-affinity bonus (two integer columns are more likely a FK pair).
// Pure function of its inputs.
func ScoreColumns(a, b *metadata.Column) float64 {
	score := MatchRatio(strings.ToLower(a.Name), strings.ToLower(b.Name)) * nameWeight

	if TypesCompatible(a.DataType, b.DataType) {
		score += typeWeight
	}
	if IsIntegerType(a.DataType) && IsIntegerType(b.DataType) {
		score += integerWeight
	}
	return score
}

// TypesCompatible reports whether two declared SQL types belong to the same
// compatibility family. Parametrization like "(255)" is stripped first.
func TypesCompatible(type1, type2 string) bool {
	t1 := baseType(type1)
	t2 := baseType(type2)

	if t1 == t2 {
		return true
	}
	if integerTypes[t1] && integerTypes[t2] {
		return true
	}
	if textTypes[t1] && textTypes[t2] {
		return true
	}
	if strings.Contains(t1, "uuid") && strings.Contains(t2, "uuid") {
		return true
	}
	return false
}

// IsIntegerType reports whether the declared type is an integer type.
func IsIntegerType(dataType string) bool {
	return integerTypes[baseType(dataType)]
}

func baseType(dataType string) string {
	t := strings.ToLower(dataType)
	if i := strings.Index(t, "("); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// MatchRatio is a character-level sequence-matching ratio in [0,1]:
// twice the number of matched characters divided by the total length of both
// strings, with matches found by recursively locating the longest common
// contiguous block.
func MatchRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(totalMatching(a, b)) / float64(total)
}

func totalMatching(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return totalMatching(a[:ai], b[:bi]) + size + totalMatching(a[ai+size:], b[bi+size:])
}

// longestMatch returns the start offsets and length of the longest block of
// characters common to a and b. Ties resolve to the earliest position in a,
// then in b.
func longestMatch(a, b string) (bestA, bestB, bestSize int) {
	// lengths[j] holds the length of the common suffix ending at a[i], b[j]
	// for the current i.
	lengths := make([]int, len(b))
	for i := 0; i < len(a); i++ {
		prev := 0
		for j := 0; j < len(b); j++ {
			cur := lengths[j]
			if a[i] == b[j] {
				lengths[j] = prev + 1
				if lengths[j] > bestSize {
					bestSize = lengths[j]
					bestA = i - bestSize + 1
					bestB = j - bestSize + 1
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return bestA, bestB, bestSize
}
