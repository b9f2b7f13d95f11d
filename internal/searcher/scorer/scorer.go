// Package scorer blends the matching signals of one candidate document into
// a single relevance score.
//
// Signals are additive: phrase, substring and acronym boosts, a relevance
// term (cosine similarity for long queries, per-token TF-IDF with a small
// fuzzy credit for short ones) and a title bonus. The sum is then scaled by a
// mild length penalty that favours concise documents.
package scorer

import (
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/vector"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

const (
	phraseBoost     = 3.0
	substringBoost  = 2.0
	acronymBoost    = 2.0
	similarityScale = 5.0
	fuzzyCredit     = 0.3
	titleBoost      = 0.6
	lengthPivot     = 50.0
)

// Breakdown keeps every signal so callers can explain a score.
type Breakdown struct {
	Phrase       float64 `json:"phrase"`
	Substring    float64 `json:"substring"`
	Acronym      float64 `json:"acronym"`
	Relevance    float64 `json:"relevance"`
	Title        float64 `json:"title"`
	LengthFactor float64 `json:"length_factor"`
	Score        float64 `json:"score"`
}

// VectorSource returns the precomputed TF-IDF vector of a document, or
// false when none is cached.
type VectorSource func(doc *store.Document) (vector.Vector, bool)

// Scorer holds the per-query state shared by all candidates of one search.
type Scorer struct {
	plan       *parser.QueryPlan
	idx        *index.Index
	query      vector.Vector
	titleTerms []string
	docVectors VectorSource
}

func New(plan *parser.QueryPlan, idx *index.Index, docVectors VectorSource) *Scorer {
	s := &Scorer{
		plan:       plan,
		idx:        idx,
		titleTerms: distinct(plan.Tokens),
		docVectors: docVectors,
	}
	if plan.Long {
		s.query = vector.Query(idx, plan.Tokens)
	}
	return s
}

// Score evaluates one document. Signals are added to the running score in a
// fixed order, one title match at a time, so equal inputs always round the
// same way.
func (s *Scorer) Score(d *store.Document) Breakdown {
	var b Breakdown
	var score float64
	if s.plan.HasPhrase && strings.Contains(d.FullText, s.plan.Phrase) {
		b.Phrase = phraseBoost
		score += phraseBoost
	}
	if strings.Contains(d.FullText, s.plan.Lowered) {
		b.Substring = substringBoost
		score += substringBoost
	}
	if s.plan.Acronym != "" && strings.Contains(d.Acronym, s.plan.Acronym) {
		b.Acronym = acronymBoost
		score += acronymBoost
	}
	if s.plan.Long {
		b.Relevance = similarityScale * vector.Cosine(s.documentVector(d), s.query)
	} else {
		b.Relevance = s.tokenRelevance(d)
	}
	score += b.Relevance
	for _, t := range s.titleTerms {
		if _, ok := d.TitleTokens[t]; ok {
			b.Title += titleBoost
			score += titleBoost
		}
	}
	b.LengthFactor = 1 / math.Sqrt(float64(d.TokenCount())/lengthPivot+1)
	b.Score = score * b.LengthFactor
	return b
}

// tokenRelevance sums the document's TF-IDF weight of every query token; a
// token the document lacks earns a flat credit when some document term is
// one edit away.
func (s *Scorer) tokenRelevance(d *store.Document) float64 {
	var total float64
	for _, t := range s.plan.Tokens {
		if tf := s.idx.TermFreq(t, d.ID); tf > 0 {
			total += vector.Weight(tf, vector.IDF(s.idx, t))
			continue
		}
		for term := range d.TermFreqs {
			if fuzzy.WithinOne(term, t) {
				total += fuzzyCredit
				break
			}
		}
	}
	return total
}

func (s *Scorer) documentVector(d *store.Document) vector.Vector {
	if s.docVectors != nil {
		if v, ok := s.docVectors(d); ok {
			return v
		}
	}
	return vector.Build(s.idx, d.TermFreqs)
}

func distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
