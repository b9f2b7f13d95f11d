// Command loadtest drives concurrent search traffic against a running
// searcher and reports throughput, latency percentiles, cache hit rate and
// how often the zero-result fallback fired.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-concurrency 10] [-duration 30s] [-queries file]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/handler"
)

var defaultQueries = []string{
	"tf-idf",
	"qt",
	"top view",
	"binary tree top view",
	"BTTV",
	"DSA",
	"algoritm",
	"data structures and algorithms for interviews",
	"learn c++ programming",
	"graph traversal",
	"inverted index ranking",
	"zzzz",
}

type Stats struct {
	total     atomic.Int64
	errors    atomic.Int64
	cacheHits atomic.Int64
	fallbacks atomic.Int64
	zeroHits  atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) Record(d time.Duration, status int, resp *handler.SearchResponse, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.statusCodes[status]++
	s.mu.Unlock()
	if status != http.StatusOK || resp == nil {
		s.errors.Add(1)
		return
	}
	if resp.CacheHit {
		s.cacheHits.Add(1)
	}
	if resp.Fallback {
		s.fallbacks.Add(1)
	}
	if resp.TotalHits == 0 {
		s.zeroHits.Add(1)
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 10, "limit parameter sent with every query")
	queryFile := flag.String("queries", "", "file with one query per line")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		loaded, err := readQueries(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
			os.Exit(1)
		}
		queries = loaded
	}

	fmt.Println("=== Lexical Search Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Queries:     %d unique\n", len(queries))
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	stats := run(ctx, *baseURL, *concurrency, *limit, queries)
	if !report(stats, *duration) {
		os.Exit(1)
	}
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%s holds no queries", path)
	}
	return queries, nil
}

func run(ctx context.Context, baseURL string, concurrency, limit int, queries []string) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	var g errgroup.Group
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := queries[i%len(queries)]
				searchURL := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", baseURL, url.QueryEscape(query), limit)
				start := time.Now()
				status, resp, err := search(ctx, client, searchURL)
				if ctx.Err() != nil {
					return nil
				}
				stats.Record(time.Since(start), status, resp, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

func search(ctx context.Context, client *http.Client, rawURL string) (int, *handler.SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, nil
	}
	var body handler.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, &body, nil
}

// report prints the summary and returns false when nothing completed.
func report(s *Stats, duration time.Duration) bool {
	total := s.total.Load()
	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Errors:          %d\n", s.errors.Load())
	if total == 0 {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		return false
	}
	fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	fmt.Printf("Cache Hit Rate:  %.2f%%\n", float64(s.cacheHits.Load())/float64(total)*100)
	fmt.Printf("Fallbacks:       %d\n", s.fallbacks.Load())
	fmt.Printf("Zero Results:    %d\n", s.zeroHits.Load())

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) > 0 {
		sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", s.latencies[0])
		fmt.Printf("P50:    %s\n", percentile(s.latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(s.latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(s.latencies, 99))
		fmt.Printf("Max:    %s\n", s.latencies[len(s.latencies)-1])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(s.statusCodes))
	for code := range s.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, s.statusCodes[code])
	}
	return true
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}
