package analytics

import (
	"sort"
	"sync"
	"time"
)

const (
	maxLatencySamples = 10000
	maxTrackedQueries = 10000
)

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	IndexBuilds       int64        `json:"index_builds"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	FallbackCount     int64        `json:"fallback_count"`
	LongQueryCount    int64        `json:"long_query_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator keeps running totals in memory. Latencies are kept in a ring
// of the most recent samples. Each query ranking holds at most maxQueries
// distinct queries; when a new query would exceed that, the less frequent
// half is dropped.
type Aggregator struct {
	mu                sync.Mutex
	totalSearches     int64
	indexBuilds       int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	fallbacks         int64
	longQueries       int64
	latencies         []int64
	nextLatency       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	maxQueries        int
	startTime         time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		maxQueries:        maxTrackedQueries,
		startTime:         time.Now(),
	}
}

// Track records a SearchEvent or IndexEvent; other values are ignored.
func (a *Aggregator) Track(event any) {
	switch e := event.(type) {
	case SearchEvent:
		a.recordSearch(e)
	case IndexEvent:
		a.mu.Lock()
		a.indexBuilds++
		a.mu.Unlock()
	}
}

func (a *Aggregator) recordSearch(e SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	if e.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if e.Returned == 0 {
		a.zeroResults++
		a.zeroResultQueries = countQuery(a.zeroResultQueries, e.Query, a.maxQueries)
	}
	if e.Fallback {
		a.fallbacks++
	}
	if e.LongQuery {
		a.longQueries++
	}
	a.queryCounts = countQuery(a.queryCounts, e.Query, a.maxQueries)
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, e.LatencyMs)
	} else {
		a.latencies[a.nextLatency] = e.LatencyMs
		a.nextLatency = (a.nextLatency + 1) % maxLatencySamples
	}
}

const defaultTopQueries = 10

// Stats is StatsTop with the default ranking depth.
func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(defaultTopQueries)
}

// StatsTop summarizes everything recorded since creation or the last Reset,
// listing at most top entries per query ranking.
func (a *Aggregator) StatsTop(top int) AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		IndexBuilds:     a.indexBuilds,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		FallbackCount:   a.fallbacks,
		LongQueryCount:  a.longQueries,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, top)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, top)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

// Reset discards every recorded event and restarts the rate window.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches, a.indexBuilds = 0, 0
	a.cacheHits, a.cacheMisses = 0, 0
	a.zeroResults, a.fallbacks, a.longQueries = 0, 0, 0
	a.latencies = a.latencies[:0]
	a.nextLatency = 0
	a.queryCounts = make(map[string]int64)
	a.zeroResultQueries = make(map[string]int64)
	a.startTime = time.Now()
}

// countQuery increments query in counts. A query not yet tracked in a full
// map first prunes it down to its most frequent half.
func countQuery(counts map[string]int64, query string, limit int) map[string]int64 {
	if _, ok := counts[query]; !ok && limit > 0 && len(counts) >= limit {
		kept := topN(counts, limit/2)
		counts = make(map[string]int64, limit)
		for _, qc := range kept {
			counts[qc.Query] = qc.Count
		}
	}
	counts[query]++
	return counts
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then query ascending.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
