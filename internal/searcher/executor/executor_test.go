package executor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/tracing"
)

func newExecutor(t *testing.T, docs []*store.Document) *Executor {
	t.Helper()
	engine := indexer.NewEngine(config.IndexerConfig{PrecomputeVectors: true}, nil)
	for _, d := range docs {
		engine.AddDocument(d.ID, d.Title, d.Body, d.Link)
	}
	engine.BuildIndex()
	return New(engine, nil)
}

func search(t *testing.T, ex *Executor, query string, limit int) *SearchResult {
	t.Helper()
	res, err := ex.Search(context.Background(), query, limit)
	if err != nil {
		t.Fatalf("Search(%q): %v", query, err)
	}
	return res
}

func position(res *SearchResult, id int) int {
	for i, d := range res.Results {
		if d.DocID == id {
			return i
		}
	}
	return -1
}

func TestSearchTermAndSubstringMatch(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	res := search(t, ex, "tf-idf", 50)
	if len(res.Results) == 0 || res.Results[0].DocID != 3 {
		t.Fatalf("expected document 3 first, got %+v", res.Results)
	}
	if p := position(res, 1); p != -1 && p < position(res, 3) {
		t.Errorf("document 1 ranked above document 3")
	}
}

func TestSearchPhraseBeatsSeparateWords(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Tree notes", "the top of the tree has a nice view", ""),
		store.NewDocument(2, "Tree notes", "the tree has a top view of the nice", ""),
		store.NewDocument(3, "Cooking", "bread and butter", ""),
	}
	ex := newExecutor(t, docs)
	res := search(t, ex, `"top view"`, 10)
	if position(res, 2) != 0 {
		t.Fatalf("expected the adjacent phrase first, got %+v", res.Results)
	}
	if p := position(res, 1); p == -1 || res.Results[p].Score >= res.Results[0].Score {
		t.Errorf("separate words must score strictly lower: %+v", res.Results)
	}
}

func TestSearchPhraseOnSampleCorpus(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	res := search(t, ex, `"top view"`, 3)
	if len(res.Results) == 0 || res.Results[0].DocID != 7 {
		t.Fatalf("expected document 7 first, got %+v", res.Results)
	}
}

func TestSearchAcronymQuery(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Cooking", "Recipes for bread.", ""),
		store.NewDocument(2, "Data Structures Algorithms", "Notes on trees and sorting.", ""),
	}
	ex := newExecutor(t, docs)
	res := search(t, ex, "DSA", 10)
	if len(res.Results) != 1 || res.Results[0].DocID != 2 {
		t.Fatalf("expected only document 2, got %+v", res.Results)
	}
	if res.Fallback {
		t.Error("acronym match must not need the fallback candidate set")
	}
	exp, err := ex.Explain(context.Background(), "DSA", 2)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Breakdown.Acronym != 2.0 || !exp.Candidate {
		t.Errorf("unexpected explanation %+v", exp)
	}
}

func TestSearchFuzzyToken(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Graph theory", "a shortest path algorithm and another algorithm", ""),
		store.NewDocument(2, "Cooking", "bread", ""),
	}
	ex := newExecutor(t, docs)
	fuzzy := search(t, ex, "algoritm", 10)
	if len(fuzzy.Results) != 1 || fuzzy.Results[0].DocID != 1 {
		t.Fatalf("expected fuzzy match on document 1, got %+v", fuzzy.Results)
	}
	exact := search(t, ex, "algorithm", 10)
	if len(exact.Results) == 0 || exact.Results[0].DocID != 1 {
		t.Fatalf("expected exact match on document 1, got %+v", exact.Results)
	}
	if fuzzy.Results[0].Score >= exact.Results[0].Score {
		t.Errorf("fuzzy score %v should be below exact score %v", fuzzy.Results[0].Score, exact.Results[0].Score)
	}
}

func TestSearchZeroLimit(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	for _, q := range []string{"", "c++", "DSA", `"top view"`} {
		res := search(t, ex, q, 0)
		if res.Results == nil || len(res.Results) != 0 {
			t.Errorf("Search(%q, 0) = %v, want empty", q, res.Results)
		}
	}
}

func TestSearchEmptyQueryMatchesEverything(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	res := search(t, ex, "", 50)
	if len(res.Results) != 7 || res.TotalHits != 7 {
		t.Fatalf("expected all 7 documents, got %d", len(res.Results))
	}
}

func TestSearchUnmatchedQueryFallsBack(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	res := search(t, ex, "zzzzqqqq", 50)
	if !res.Fallback || res.TotalHits != 7 {
		t.Fatalf("expected fallback to the full corpus, got %+v", res)
	}
}

func TestSearchDegenerateQuery(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	ctx := context.Background()

	res := search(t, ex, "!!!", 50)
	if !res.Fallback || res.TotalHits != 7 {
		t.Fatalf("expected fallback to the full corpus, got %+v", res)
	}
	for i, d := range res.Results {
		if d.DocID != i+1 || d.Score != 0 {
			t.Fatalf("expected zero scores in id order, got %+v", res.Results)
		}
	}
	exp, err := ex.Explain(ctx, "!!!", 3)
	if err != nil {
		t.Fatal(err)
	}
	b := exp.Breakdown
	if b.Relevance != 0 || b.Title != 0 || b.Substring != 0 || b.Acronym != 0 || b.Phrase != 0 {
		t.Errorf("expected no signals, got %+v", b)
	}
	if b.LengthFactor <= 0 {
		t.Errorf("length factor = %v", b.LengthFactor)
	}

	res = search(t, ex, "&", 50)
	if res.Fallback || len(res.Results) != 1 || res.Results[0].DocID != 6 {
		t.Fatalf("expected a substring-only hit on document 6, got %+v", res)
	}
	exp, err = ex.Explain(ctx, "&", 6)
	if err != nil {
		t.Fatal(err)
	}
	b = exp.Breakdown
	if b.Substring == 0 || b.Relevance != 0 || b.Title != 0 || b.Acronym != 0 {
		t.Errorf("expected only the substring signal, got %+v", b)
	}
	if got, want := res.Results[0].Score, b.Substring*b.LengthFactor; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestSearchDeterministic(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	for _, q := range []string{"c++ tutorial", "learn data structures and algorithms in c++ quickly", "trees"} {
		first := search(t, ex, q, 50)
		for i := 0; i < 5; i++ {
			again := search(t, ex, q, 50)
			if !reflect.DeepEqual(first.Results, again.Results) {
				t.Fatalf("query %q not deterministic:\n%v\n%v", q, first.Results, again.Results)
			}
		}
	}
}

func TestSearchLongQueryUsesCosine(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	res := search(t, ex, "learn data structures and algorithms in c++", 50)
	if !res.Long {
		t.Fatal("expected long-query mode")
	}
	if len(res.Results) == 0 {
		t.Fatal("expected results")
	}
	for i := 1; i < len(res.Results); i++ {
		if res.Results[i].Score > res.Results[i-1].Score+1e-9 {
			t.Fatalf("results not ordered by score: %+v", res.Results)
		}
	}
}

func TestSearchBeforeBuild(t *testing.T) {
	engine := indexer.NewEngine(config.IndexerConfig{}, nil)
	engine.AddDocument(1, "a", "b", "")
	_, err := New(engine, nil).Search(context.Background(), "a", 10)
	if !errors.Is(err, apperrors.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestExplainMissingDocument(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	_, err := ex.Explain(context.Background(), "c++", 99)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSearchRecordsSpans(t *testing.T) {
	ex := newExecutor(t, storetest.Sample())
	ctx, root := tracing.StartSpan(context.Background(), "search", "trace-1")
	if _, err := ex.Search(ctx, "qt", 5); err != nil {
		t.Fatal(err)
	}
	root.End()
	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	want := []string{"parse", "candidates", "score", "rank"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("spans = %v, want %v", names, want)
	}
}

func BenchmarkSearch(b *testing.B) {
	engine := indexer.NewEngine(config.IndexerConfig{PrecomputeVectors: true}, nil)
	for _, d := range storetest.Sample() {
		engine.AddDocument(d.ID, d.Title, d.Body, d.Link)
	}
	engine.BuildIndex()
	ex := New(engine, nil)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ex.Search(ctx, "data structures in c++", 10); err != nil {
			b.Fatal(err)
		}
	}
}
