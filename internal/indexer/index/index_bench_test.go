package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
)

func benchCorpus(n int) []*store.Document {
	docs := make([]*store.Document, n)
	for i := range docs {
		docs[i] = store.NewDocument(i+1, fmt.Sprintf("Search Topic %d", i%50),
			"search engine with inverted indexing, tf-idf weighting and query processing over many documents", "")
	}
	return docs
}

// BenchmarkBuild measures a full rebuild at several corpus sizes.
func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		docs := benchCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Build(docs)
			}
		})
	}
}

func BenchmarkPostingsParallel(b *testing.B) {
	idx := Build(benchCorpus(10000))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = idx.Postings("search")
		}
	})
}

func BenchmarkSnapshot(b *testing.B) {
	idx := Build(benchCorpus(5000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Snapshot()
	}
}
