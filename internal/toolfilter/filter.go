// Package toolfilter narrows the compiled operation set before tools are
// registered on a front-end.
package toolfilter

import (
	"fmt"
	"strings"

	"github.com/guillaumegay13/fieldflow/internal/spec"
)

// ParseList splits a comma-separated string into a deduplicated, trimmed
// list of operation names. Empty entries are removed and order is preserved
// (first occurrence wins on duplicates).
func ParseList(csv string) []string {
	if csv == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	seen := make(map[string]struct{})
	var result []string
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

// Filter applies include or exclude filtering to the operation set.
//
// Rules:
//   - include and exclude are mutually exclusive.
//   - Include mode keeps only the named operations, in the include order.
//     An unknown name is an error, with a close-match suggestion when one
//     exists (Levenshtein <= 3).
//   - Exclude mode removes the named operations; removing everything is an
//     error.
//   - With both lists empty, the set passes through unchanged.
func Filter(operations []*spec.Operation, include, exclude []string) ([]*spec.Operation, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("include and exclude filters cannot be used together")
	}
	if len(include) == 0 && len(exclude) == 0 {
		return operations, nil
	}

	byName := make(map[string]*spec.Operation, len(operations))
	available := make([]string, 0, len(operations))
	for _, op := range operations {
		byName[op.Name] = op
		available = append(available, op.Name)
	}

	if len(include) > 0 {
		result := make([]*spec.Operation, 0, len(include))
		for _, name := range include {
			op, ok := byName[name]
			if !ok {
				msg := fmt.Sprintf("operation '%s' not found in spec. Available operations: %s",
					name, strings.Join(available, ", "))
				if suggestion := suggest(name, available); suggestion != "" {
					msg += fmt.Sprintf(" Did you mean '%s'?", suggestion)
				}
				return nil, fmt.Errorf("%s", msg)
			}
			result = append(result, op)
		}
		return result, nil
	}

	excludeSet := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excludeSet[name] = struct{}{}
	}
	var result []*spec.Operation
	for _, op := range operations {
		if _, skip := excludeSet[op.Name]; !skip {
			result = append(result, op)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("all operations excluded, nothing to register")
	}
	return result, nil
}

// suggest finds the closest operation name within Levenshtein distance 3.
func suggest(name string, available []string) string {
	bestDist := -1
	bestName := ""
	for _, candidate := range available {
		d := levenshtein(name, candidate)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestName = candidate
		}
	}
	if bestDist >= 0 && bestDist <= 3 {
		return bestName
	}
	return ""
}

// levenshtein computes the edit distance with two rolling rows.
// Comparison is case-sensitive.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			min := prev[j] + 1
			if del := curr[j-1] + 1; del < min {
				min = del
			}
			if sub := prev[j-1] + cost; sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
