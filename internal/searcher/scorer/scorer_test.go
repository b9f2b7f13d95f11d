package scorer

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/vector"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

const eps = 1e-12

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func corpus() []*store.Document {
	return []*store.Document{
		store.NewDocument(1, "Graph Search", "graph search with graph traversal", ""),
		store.NewDocument(2, "Cooking", "bread and butter", ""),
		store.NewDocument(3, "Sorting", "sorting arrays quickly", ""),
	}
}

func TestScoreShortQuery(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	b := New(parser.Parse("graph"), idx, nil).Score(docs[0])

	idf := math.Log(3.0 / 1.0)
	wantRelevance := (1 + math.Log(3)) * idf
	if !approx(b.Relevance, wantRelevance) {
		t.Errorf("relevance = %v, want %v", b.Relevance, wantRelevance)
	}
	if b.Substring != 2.0 || b.Acronym != 2.0 || b.Title != 0.6 || b.Phrase != 0 {
		t.Errorf("unexpected boosts %+v", b)
	}
	wantFactor := 1 / math.Sqrt(float64(len(docs[0].Tokens))/50+1)
	if !approx(b.LengthFactor, wantFactor) {
		t.Errorf("length factor = %v, want %v", b.LengthFactor, wantFactor)
	}
	want := (2.0 + 2.0 + wantRelevance + 0.6) * wantFactor
	if !approx(b.Score, want) {
		t.Errorf("score = %v, want %v", b.Score, want)
	}
}

func TestScoreAddsSignalsInOrder(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	b := New(parser.Parse("graph search"), idx, nil).Score(docs[0])
	if b.Title != 2*titleBoost {
		t.Fatalf("title = %v, want two matches", b.Title)
	}
	var want float64
	want += b.Phrase
	want += b.Substring
	want += b.Acronym
	want += b.Relevance
	want += titleBoost
	want += titleBoost
	want *= b.LengthFactor
	if b.Score != want {
		t.Errorf("score = %v, want exactly %v", b.Score, want)
	}
}

func TestTokenRelevanceReadsIndexFrequencies(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	b := New(parser.Parse("graph"), idx, nil).Score(docs[0])
	tf := idx.TermFreq("graph", docs[0].ID)
	if tf != 3 {
		t.Fatalf("TermFreq(graph) = %d, want 3", tf)
	}
	if want := vector.Weight(tf, vector.IDF(idx, "graph")); !approx(b.Relevance, want) {
		t.Errorf("relevance = %v, want %v", b.Relevance, want)
	}
}

func TestScoreDuplicateTokens(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	once := New(parser.Parse("graph"), idx, nil).Score(docs[0])
	twice := New(parser.Parse("graph graph"), idx, nil).Score(docs[0])
	if !approx(twice.Relevance, 2*once.Relevance) {
		t.Errorf("relevance counts every query token: %v vs %v", twice.Relevance, once.Relevance)
	}
	if !approx(twice.Title, once.Title) {
		t.Errorf("title bonus counts distinct tokens only: %v vs %v", twice.Title, once.Title)
	}
}

func TestScoreFuzzyCreditOncePerToken(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Words", "cart care card", ""),
		store.NewDocument(2, "Other", "nothing here", ""),
	}
	idx := index.Build(docs)
	b := New(parser.Parse("carx"), idx, nil).Score(docs[0])
	if !approx(b.Relevance, 0.3) {
		t.Errorf("relevance = %v, want a single 0.3 credit", b.Relevance)
	}
}

func TestScorePhraseAndAcronym(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Binary Tree Top View", "top view of a tree", ""),
		store.NewDocument(2, "Other", "view from the top", ""),
	}
	idx := index.Build(docs)
	phrase := New(parser.Parse(`"top view"`), idx, nil)
	if b := phrase.Score(docs[0]); b.Phrase != 3.0 {
		t.Errorf("phrase boost = %v, want 3", b.Phrase)
	}
	if b := phrase.Score(docs[1]); b.Phrase != 0 {
		t.Errorf("non-adjacent words must not get the phrase boost, got %v", b.Phrase)
	}
	if b := New(parser.Parse("BTTV"), idx, nil).Score(docs[0]); b.Acronym != 2.0 {
		t.Errorf("acronym boost = %v, want 2", b.Acronym)
	}
}

func TestScoreLongQueryUsesCosine(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	plan := parser.Parse("graph search traversal sorting arrays")
	if !plan.Long {
		t.Fatal("expected a long query")
	}
	b := New(plan, idx, nil).Score(docs[0])
	want := 5.0 * vector.Cosine(vector.Build(idx, docs[0].TermFreqs), vector.Query(idx, plan.Tokens))
	if !approx(b.Relevance, want) {
		t.Errorf("relevance = %v, want %v", b.Relevance, want)
	}
}

func TestScorePrefersPrecomputedVectors(t *testing.T) {
	docs := corpus()
	idx := index.Build(docs)
	plan := parser.Parse("graph search traversal sorting arrays")
	calls := 0
	source := func(d *store.Document) (vector.Vector, bool) {
		calls++
		return vector.Build(idx, d.TermFreqs), true
	}
	withCache := New(plan, idx, source).Score(docs[0])
	without := New(plan, idx, nil).Score(docs[0])
	if calls != 1 {
		t.Errorf("vector source called %d times, want 1", calls)
	}
	if !approx(withCache.Score, without.Score) {
		t.Errorf("cached vector changed the score: %v vs %v", withCache.Score, without.Score)
	}
}

func TestScoreEmptyDocument(t *testing.T) {
	docs := []*store.Document{store.NewDocument(1, "", "", "")}
	idx := index.Build(docs)
	b := New(parser.Parse("anything"), idx, nil).Score(docs[0])
	if b.LengthFactor != 1/math.Sqrt(1.0/50+1) {
		t.Errorf("empty document must count as one token, factor %v", b.LengthFactor)
	}
	if math.IsNaN(b.Score) {
		t.Fatal("score is NaN")
	}
}
