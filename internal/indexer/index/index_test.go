package index

import (
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

func sampleDocs() []*store.Document {
	return []*store.Document{
		store.NewDocument(1, "C++ Basics", "Learn C++ programming. Great for beginners.", ""),
		store.NewDocument(3, "Advanced Search", "Search engines use an inverted index and tf-idf search ranking.", ""),
		store.NewDocument(4, "Data Structures", "Learn arrays and trees.", ""),
	}
}

func TestBuildCountsDocFreqOncePerDocument(t *testing.T) {
	idx := Build(sampleDocs())

	if idx.N() != 3 {
		t.Fatalf("N = %d, want 3", idx.N())
	}
	if got := idx.DocFreq("search"); got != 1 {
		t.Errorf("DocFreq(search) = %d, want 1", got)
	}
	if got := idx.TermFreq("search", 3); got != 3 {
		t.Errorf("TermFreq(search, 3) = %d, want 3", got)
	}
	if got := idx.DocFreq("learn"); got != 2 {
		t.Errorf("DocFreq(learn) = %d, want 2", got)
	}
	want := PostingList{{DocID: 1, Frequency: 1}, {DocID: 4, Frequency: 1}}
	if got := idx.Postings("learn"); !reflect.DeepEqual(got, want) {
		t.Errorf("Postings(learn) = %v, want %v", got, want)
	}
}

func TestBuildExcludesStopWords(t *testing.T) {
	idx := Build(sampleDocs())
	for _, w := range []string{"and", "for", "an"} {
		if idx.Contains(w) {
			t.Errorf("stop word %q should not be indexed", w)
		}
		if idx.DocFreq(w) != 0 {
			t.Errorf("DocFreq(%q) = %d, want 0", w, idx.DocFreq(w))
		}
	}
}

func TestDocFreqMatchesPostings(t *testing.T) {
	idx := Build(sampleDocs())
	for _, entry := range idx.Snapshot() {
		if entry.DocFreq != len(entry.Postings) {
			t.Errorf("term %q: docFreq %d != postings %d", entry.Term, entry.DocFreq, len(entry.Postings))
		}
		for _, p := range entry.Postings {
			if p.Frequency <= 0 {
				t.Errorf("term %q doc %d has non-positive frequency", entry.Term, p.DocID)
			}
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	docs := sampleDocs()
	a := Build(docs)
	b := Build(docs)
	if a.N() != b.N() {
		t.Fatalf("N differs: %d vs %d", a.N(), b.N())
	}
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatal("rebuilding the same document set produced a different index")
	}
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)
	if idx.N() != 0 || idx.Terms() != 0 {
		t.Fatalf("empty build: N=%d terms=%d", idx.N(), idx.Terms())
	}
	if idx.Postings("anything") != nil {
		t.Fatal("expected nil postings for unknown term")
	}
}

func TestVocabularySorted(t *testing.T) {
	vocab := Build(sampleDocs()).Vocabulary()
	for i := 1; i < len(vocab); i++ {
		if vocab[i-1] >= vocab[i] {
			t.Fatalf("vocabulary not sorted at %d: %q >= %q", i, vocab[i-1], vocab[i])
		}
	}
}

func TestPostingListHelpers(t *testing.T) {
	pl := PostingList{{DocID: 2, Frequency: 3}, {DocID: 5, Frequency: 1}, {DocID: 9, Frequency: 2}}
	if got := pl.DocIDs(); !reflect.DeepEqual(got, []int{2, 5, 9}) {
		t.Errorf("DocIDs = %v", got)
	}
	if got := pl.CollectionFrequency(); got != 6 {
		t.Errorf("CollectionFrequency = %d, want 6", got)
	}
	if got := PostingList(nil).DocIDs(); len(got) != 0 {
		t.Errorf("nil DocIDs = %v", got)
	}
}
