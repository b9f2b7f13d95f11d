// Package ranker turns a document score map into the ordered result list.
package ranker

import (
	"cmp"
	"slices"
)

// tieTolerance is the score difference below which two documents are
// ordered by id instead.
const tieTolerance = 1e-9

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Compare orders a before b when it scores higher by more than the tie
// tolerance, and by ascending id otherwise. Near-ties are not transitive,
// so callers must feed it a deterministic input order.
func Compare(a, b ScoredDoc) int {
	switch d := a.Score - b.Score; {
	case d > tieTolerance:
		return -1
	case d < -tieTolerance:
		return 1
	}
	return cmp.Compare(a.DocID, b.DocID)
}

// Rank orders scores by descending score, breaking ties by ascending id, and
// keeps the first limit entries. A limit of zero or less yields no results.
// Zero and negative scores are kept when they fit.
//
// Entries are put in id order before a stable sort, so the same map always
// ranks the same way even when scores form near-tie chains.
func Rank(scores map[int]float64, limit int) []ScoredDoc {
	if limit <= 0 {
		return []ScoredDoc{}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}
	slices.SortFunc(result, func(a, b ScoredDoc) int { return cmp.Compare(a.DocID, b.DocID) })
	slices.SortStableFunc(result, Compare)
	if limit < len(result) {
		result = result[:limit]
	}
	return result
}
