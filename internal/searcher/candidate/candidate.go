// Package candidate assembles the set of documents worth scoring for a
// query. Four independent strategies contribute to the union: index lookup,
// substring and phrase scan, acronym scan, and edit-distance-1 expansion of
// unknown query tokens.
package candidate

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

type Set map[int]struct{}

func (s Set) Add(ids ...int) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Result reports the candidate set and which strategies contributed.
type Result struct {
	IDs      Set
	Indexed  int
	Text     int
	Acronym  int
	Fuzzy    int
	Fallback bool
}

// Generate returns the union of all strategies over docs. When nothing
// matches, every document becomes a candidate so similarity can still rank
// them.
func Generate(plan *parser.QueryPlan, docs []*store.Document, idx *index.Index) Result {
	res := Result{IDs: make(Set)}
	res.Indexed = lookupTokens(plan, idx, res.IDs)
	res.Text = scanText(plan, docs, res.IDs)
	res.Acronym = scanAcronyms(plan, docs, res.IDs)
	res.Fuzzy = expandFuzzy(plan, idx, res.IDs)
	if len(res.IDs) == 0 {
		for _, d := range docs {
			res.IDs.Add(d.ID)
		}
		res.Fallback = true
	}
	return res
}

func lookupTokens(plan *parser.QueryPlan, idx *index.Index, out Set) int {
	n := 0
	for _, t := range plan.Tokens {
		ids := idx.Postings(t).DocIDs()
		out.Add(ids...)
		n += len(ids)
	}
	return n
}

func scanText(plan *parser.QueryPlan, docs []*store.Document, out Set) int {
	n := 0
	for _, d := range docs {
		if strings.Contains(d.FullText, plan.Lowered) ||
			(plan.HasPhrase && strings.Contains(d.FullText, plan.Phrase)) {
			out.Add(d.ID)
			n++
		}
	}
	return n
}

func scanAcronyms(plan *parser.QueryPlan, docs []*store.Document, out Set) int {
	if plan.Acronym == "" {
		return 0
	}
	n := 0
	for _, d := range docs {
		if strings.Contains(d.Acronym, plan.Acronym) {
			out.Add(d.ID)
			n++
		}
	}
	return n
}

// expandFuzzy adds documents holding any indexed term one edit away from a
// query token the index does not know.
func expandFuzzy(plan *parser.QueryPlan, idx *index.Index, out Set) int {
	n := 0
	for _, t := range plan.Tokens {
		if idx.Contains(t) {
			continue
		}
		for _, term := range idx.Vocabulary() {
			if !fuzzy.WithinOne(term, t) {
				continue
			}
			ids := idx.Postings(term).DocIDs()
			out.Add(ids...)
			n += len(ids)
		}
	}
	return n
}
