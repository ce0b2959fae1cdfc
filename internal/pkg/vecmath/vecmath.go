// Package vecmath parses query vectors and ranks candidates by cosine
// similarity when the database cannot do it.
package vecmath

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
)

// Parse reads a comma and/or whitespace separated list of numbers and
// requires exactly dim of them.
func Parse(input string, dim int) ([]float32, error) {
	tokens := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return nil, appErr.NewValidationError("please enter a query vector")
	}
	values := make([]float32, 0, len(tokens))
	for _, tok := range tokens {
		v, err := ParseComponent(tok)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := CheckDimension(values, dim); err != nil {
		return nil, err
	}
	return values, nil
}

// ParseComponent parses one finite vector component.
func ParseComponent(token string) (float32, error) {
	token = strings.TrimSpace(token)
	f, err := strconv.ParseFloat(token, 32)
	if err != nil {
		return 0, appErr.NewValidationError("invalid vector component %q", token)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, appErr.NewValidationError("vector component %q is not finite", token)
	}
	return float32(f), nil
}

func CheckDimension(values []float32, dim int) error {
	if len(values) != dim {
		return appErr.NewValidationError("query vector must have exactly %d dimensions, got %d", dim, len(values))
	}
	return nil
}

// IsZero reports whether every component is zero. Such vectors have no
// direction and cannot be ranked.
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp rounding drift so identical directions score exactly 1
	return math.Max(-1, math.Min(1, score))
}

type Candidate struct {
	ID     int64
	Vector []float32
}

type Match struct {
	ID    int64
	Score float64
}

// Rank scores every candidate against query and returns the best k,
// highest score first, ties by ascending ID.
func Rank(query []float32, candidates []Candidate, k int) []Match {
	if k <= 0 || len(candidates) == 0 {
		return []Match{}
	}
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{ID: c.ID, Score: Cosine(query, c.Vector)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
