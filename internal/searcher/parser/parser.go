// Package parser analyses a raw query string into the signals used by
// candidate generation and scoring: tokens, quoted phrase, long-query mode
// and acronym form.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/tokenizer"
)

const (
	longQueryChars   = 30
	longQueryTokens  = 3
	maxShortformSize = 6
)

type QueryPlan struct {
	RawQuery string
	// Lowered is the whole raw query lower-cased, used for substring matches.
	Lowered string
	Tokens  []string
	// Phrase is the lower-cased text between the first and last double quote.
	Phrase    string
	HasPhrase bool
	// Long selects cosine scoring instead of per-token scoring.
	Long bool
	// Acronym is empty when the query has no acronym form.
	Acronym string
}

func Parse(query string) *QueryPlan {
	lowered := tokenizer.ToLower(query)
	plan := &QueryPlan{
		RawQuery: query,
		Lowered:  lowered,
		Tokens:   tokenizer.Tokenize(lowered),
	}
	first := strings.IndexByte(query, '"')
	last := strings.LastIndexByte(query, '"')
	if first >= 0 && last > first {
		plan.HasPhrase = true
		plan.Phrase = tokenizer.ToLower(query[first+1 : last])
	}
	plan.Long = len(query) > longQueryChars || len(plan.Tokens) > longQueryTokens
	plan.Acronym = acronymOf(query, lowered, plan.Tokens)
	return plan
}

// acronymOf treats a short, space-free query without lower-case letters as a
// shortform on its own ("DSA"); otherwise it takes the first letter of every
// non stop-word token.
func acronymOf(raw, lowered string, tokens []string) string {
	if len(raw) <= maxShortformSize && !strings.Contains(raw, " ") && !hasLower(raw) {
		return lowered
	}
	acr := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		if tokenizer.IsStopWord(t) {
			continue
		}
		acr = append(acr, t[0])
	}
	return string(acr)
}

func hasLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			return true
		}
	}
	return false
}
