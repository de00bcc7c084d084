package metadata

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a 0..1 closeness measure between two strings:
// one minus the normalized edit distance over the lowercased inputs.
// It is symmetric and deterministic; Similarity(a, a) == 1 for any a,
// including Similarity("", "") which is defined as 1.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
