package candidate

import (
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store/storetest"
)

func generate(query string, docs []*store.Document) Result {
	return Generate(parser.Parse(query), docs, index.Build(docs))
}

func TestGenerateStrategies(t *testing.T) {
	docs := storetest.Sample()
	tests := []struct {
		name  string
		query string
		want  []int
		check func(Result) bool
	}{
		{"index lookup", "qt", []int{2}, func(r Result) bool { return r.Indexed == 1 }},
		{"substring", "tf-idf", []int{3}, func(r Result) bool { return r.Text == 1 }},
		{"phrase", `"top view"`, []int{7}, func(r Result) bool { return r.Text == 1 }},
		{"acronym", "BTTV", []int{7}, func(r Result) bool { return r.Acronym == 1 }},
		{"fuzzy", "qtt", []int{2}, func(r Result) bool { return r.Fuzzy == 1 && r.Indexed == 0 }},
		{"fallback", "zzzzqqqq", []int{1, 2, 3, 4, 5, 6, 7}, func(r Result) bool { return r.Fallback }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := generate(tt.query, docs)
			if got := res.IDs.Sorted(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("candidates = %v, want %v", got, tt.want)
			}
			if !tt.check(res) {
				t.Errorf("unexpected strategy counts %+v", res)
			}
		})
	}
}

func TestGenerateUnionOfStrategies(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Graph Search", "breadth first", ""),
		store.NewDocument(2, "Cooking", "the graph of bread prices", ""),
		store.NewDocument(3, "Gardening", "soil", ""),
	}
	res := generate("graph", docs)
	if got := res.IDs.Sorted(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("candidates = %v", got)
	}
	if res.Fallback {
		t.Error("unexpected fallback")
	}
}

func TestGenerateFuzzySkipsKnownTokens(t *testing.T) {
	docs := []*store.Document{
		store.NewDocument(1, "Felines", "cat", ""),
		store.NewDocument(2, "Vehicles", "car", ""),
	}
	res := generate("cat", docs)
	if res.Fuzzy != 0 {
		t.Errorf("a token present in the index must not be expanded, fuzzy = %d", res.Fuzzy)
	}
	if got := res.IDs.Sorted(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("candidates = %v, want [1]", got)
	}
}

func TestGenerateEmptyCorpus(t *testing.T) {
	res := generate("anything", nil)
	if len(res.IDs) != 0 || !res.Fallback {
		t.Fatalf("expected empty fallback, got %+v", res)
	}
}
