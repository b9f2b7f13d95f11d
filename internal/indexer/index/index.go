// Package index builds the immutable inverted index consumed by the
// searcher. An Index is a snapshot of the document set at build time; it is
// never updated in place and is replaced wholesale on every rebuild.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

type Index struct {
	postings map[string]map[int]int
	docFreq  map[string]int
	vocab    []string
	n        int
}

// Build indexes every document's term-frequency map. Document frequency is
// incremented once per document that contains a token, regardless of how
// often it occurs there.
func Build(docs []*store.Document) *Index {
	idx := &Index{
		postings: make(map[string]map[int]int),
		docFreq:  make(map[string]int),
		n:        len(docs),
	}
	for _, d := range docs {
		for term, freq := range d.TermFreqs {
			byDoc, ok := idx.postings[term]
			if !ok {
				byDoc = make(map[int]int)
				idx.postings[term] = byDoc
			}
			byDoc[d.ID] = freq
			idx.docFreq[term]++
		}
	}
	idx.vocab = make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		idx.vocab = append(idx.vocab, term)
	}
	sort.Strings(idx.vocab)
	return idx
}

// N is the number of documents at build time.
func (i *Index) N() int {
	return i.n
}

func (i *Index) DocFreq(term string) int {
	return i.docFreq[term]
}

// Contains reports whether term occurs in at least one document.
func (i *Index) Contains(term string) bool {
	_, ok := i.postings[term]
	return ok
}

// TermFreq returns the frequency of term in document docID, or 0.
func (i *Index) TermFreq(term string, docID int) int {
	return i.postings[term][docID]
}

func (i *Index) Postings(term string) PostingList {
	docs, ok := i.postings[term]
	if !ok {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for id, freq := range docs {
		result = append(result, Posting{DocID: id, Frequency: freq})
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].DocID < result[b].DocID
	})
	return result
}

// Vocabulary returns every indexed term in ascending order. The returned
// slice is shared and must not be modified.
func (i *Index) Vocabulary() []string {
	return i.vocab
}

func (i *Index) Terms() int {
	return len(i.vocab)
}

// Snapshot returns the full index as sorted term entries.
func (i *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(i.vocab))
	for _, term := range i.vocab {
		entries = append(entries, TermEntry{
			Term:     term,
			DocFreq:  i.docFreq[term],
			Postings: i.Postings(term),
		})
	}
	return entries
}
