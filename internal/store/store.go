// Package store holds the append-only document collection that feeds the
// index builder and answers lookups by document id.
package store

import (
	"sync"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/tokenizer"
)

// Document is an immutable searchable unit. The derived fields are computed
// once by NewDocument and must not be modified afterwards.
type Document struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link"`

	// Tokens is the unfiltered token stream of title and body.
	Tokens []string `json:"-"`
	// TermFreqs counts the non stop-word tokens.
	TermFreqs map[string]int `json:"-"`
	// Acronym is built from the title's tokens, stop-words included.
	Acronym string `json:"-"`
	// FullText is the lower-cased "title body" used for substring matching.
	FullText string `json:"-"`
	// TitleTokens is the token set of the title.
	TitleTokens map[string]struct{} `json:"-"`
}

// NewDocument builds a Document and all of its derived fields.
func NewDocument(id int, title, body, link string) *Document {
	combined := title + " " + body
	tokens := tokenizer.Tokenize(combined)
	titleTokens := make(map[string]struct{})
	for _, t := range tokenizer.Tokenize(title) {
		titleTokens[t] = struct{}{}
	}
	return &Document{
		ID:          id,
		Title:       title,
		Body:        body,
		Link:        link,
		Tokens:      tokens,
		TermFreqs:   tokenizer.TermFrequencies(tokens),
		Acronym:     tokenizer.Acronym(title),
		FullText:    tokenizer.ToLower(combined),
		TitleTokens: titleTokens,
	}
}

// TokenCount returns the number of raw tokens, never less than one.
func (d *Document) TokenCount() int {
	if len(d.Tokens) == 0 {
		return 1
	}
	return len(d.Tokens)
}

// Store is an append-only document collection. Ids are assigned by the
// caller and are not checked for uniqueness: a duplicate id keeps both
// documents in the snapshot while lookups keep resolving to the first one.
type Store struct {
	mu   sync.RWMutex
	docs []*Document
	byID map[int]int
}

func New() *Store {
	return &Store{
		byID: make(map[int]int),
	}
}

// Add appends doc to the collection.
func (s *Store) Add(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[doc.ID]; !exists {
		s.byID[doc.ID] = len(s.docs)
	}
	s.docs = append(s.docs, doc)
}

// Get returns the document with the given id.
func (s *Store) Get(id int) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.docs[pos], true
}

// Snapshot returns the documents in insertion order. The slice is a copy;
// the documents themselves are shared and immutable.
func (s *Store) Snapshot() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
