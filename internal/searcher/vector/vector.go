// Package vector computes L2-normalised TF-IDF weight vectors and the cosine
// similarity between them.
package vector

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/tokenizer"
)

// Stats supplies the corpus statistics needed for IDF.
type Stats interface {
	N() int
	DocFreq(term string) int
}

// Vector maps a term to its weight.
type Vector map[string]float64

// IDF returns ln(N/df), or 0 for a term no document contains. A term present
// in every document gets 0; the value is not clamped.
func IDF(s Stats, term string) float64 {
	df := s.DocFreq(term)
	if df == 0 {
		return 0
	}
	return math.Log(float64(s.N()) / float64(df))
}

// Weight is the log-dampened term frequency scaled by idf.
func Weight(tf int, idf float64) float64 {
	if tf < 1 {
		return 0
	}
	return (1 + math.Log(float64(tf))) * idf
}

// Build weights every term of termFreqs and normalises the result to unit
// length. A zero-norm vector is returned unnormalised.
func Build(s Stats, termFreqs map[string]int) Vector {
	terms := sortedTerms(termFreqs)
	vec := make(Vector, len(terms))
	var norm float64
	for _, term := range terms {
		w := Weight(termFreqs[term], IDF(s, term))
		vec[term] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// Query builds the vector of a tokenised query, ignoring stop-words.
func Query(s Stats, tokens []string) Vector {
	return Build(s, tokenizer.TermFrequencies(tokens))
}

// Cosine returns the dot product of two normalised vectors. Only the smaller
// vector is scanned; shared terms are summed in sorted order so the result is
// independent of map iteration order.
func Cosine(a, b Vector) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := make([]string, 0, len(small))
	for term := range small {
		if _, ok := large[term]; ok {
			shared = append(shared, term)
		}
	}
	sort.Strings(shared)
	var sum float64
	for _, term := range shared {
		sum += small[term] * large[term]
	}
	return sum
}

func sortedTerms[V any](m map[string]V) []string {
	terms := make([]string, 0, len(m))
	for t := range m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
