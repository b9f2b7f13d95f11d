// Package fuzzy implements the edit-distance helper used for typo-tolerant
// candidate generation and scoring.
package fuzzy

// Distance returns the Levenshtein distance between a and b with unit cost
// insertions, deletions and substitutions. It keeps two rows sized by the
// shorter string.
func Distance(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// WithinOne reports whether a and b are at most one edit apart. Lengths that
// differ by more than one are rejected before the distance is computed.
func WithinOne(a, b string) bool {
	diff := len(a) - len(b)
	if diff > 1 || diff < -1 {
		return false
	}
	return Distance(a, b) <= 1
}
