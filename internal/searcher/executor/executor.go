// Package executor runs a query end to end against the current index
// snapshot: parse, gather candidates, score, rank.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/candidate"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/tracing"
)

// SnapshotSource is satisfied by *indexer.Engine.
type SnapshotSource interface {
	Snapshot() (*indexer.Snapshot, error)
}

type SearchResult struct {
	Query      string             `json:"query"`
	TotalHits  int                `json:"total_hits"`
	Results    []ranker.ScoredDoc `json:"results"`
	Generation uint64             `json:"generation"`
	Fallback   bool               `json:"fallback"`
	Long       bool               `json:"long_query"`
}

// Explanation breaks one document's score down by signal.
type Explanation struct {
	Query     string           `json:"query"`
	DocID     int              `json:"doc_id"`
	Candidate bool             `json:"candidate"`
	Long      bool             `json:"long_query"`
	Acronym   string           `json:"acronym,omitempty"`
	Phrase    string           `json:"phrase,omitempty"`
	Breakdown scorer.Breakdown `json:"breakdown"`
}

type Executor struct {
	source  SnapshotSource
	metrics *metrics.Metrics
}

// New returns an Executor reading snapshots from source. m may be nil.
func New(source SnapshotSource, m *metrics.Metrics) *Executor {
	return &Executor{source: source, metrics: m}
}

// Search ranks the documents of the current snapshot for query and keeps
// the best limit of them. A limit of zero or less yields no results.
func (e *Executor) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	start := time.Now()
	snap, err := e.source.Snapshot()
	if err != nil {
		e.countQuery("error")
		return nil, err
	}

	_, span := tracing.StartChildSpan(ctx, "parse")
	plan := parser.Parse(query)
	span.SetAttr("tokens", len(plan.Tokens))
	span.SetAttr("long", plan.Long)
	span.End()

	_, span = tracing.StartChildSpan(ctx, "candidates")
	cands := candidate.Generate(plan, snap.Docs, snap.Index)
	span.SetAttr("candidates", len(cands.IDs))
	span.SetAttr("fallback", cands.Fallback)
	span.End()

	_, span = tracing.StartChildSpan(ctx, "score")
	sc := scorer.New(plan, snap.Index, snap.Vector)
	scores := make(map[int]float64, len(cands.IDs))
	for id := range cands.IDs {
		doc, ok := snap.Document(id)
		if !ok {
			continue
		}
		scores[id] = sc.Score(doc).Score
	}
	span.End()

	_, span = tracing.StartChildSpan(ctx, "rank")
	ranked := ranker.Rank(scores, limit)
	span.SetAttr("results", len(ranked))
	span.End()

	e.observe(plan, cands, len(ranked), time.Since(start))
	logger.FromContext(ctx).Debug("query executed",
		"query", query,
		"tokens", plan.Tokens,
		"indexed", cands.Indexed,
		"text", cands.Text,
		"acronym", cands.Acronym,
		"fuzzy", cands.Fuzzy,
		"candidates", len(cands.IDs),
		"fallback", cands.Fallback,
		"results", len(ranked),
	)
	return &SearchResult{
		Query:      query,
		TotalHits:  len(cands.IDs),
		Results:    ranked,
		Generation: snap.Generation,
		Fallback:   cands.Fallback,
		Long:       plan.Long,
	}, nil
}

// Explain scores a single document for query, whether or not it would have
// been a candidate.
func (e *Executor) Explain(ctx context.Context, query string, docID int) (*Explanation, error) {
	snap, err := e.source.Snapshot()
	if err != nil {
		return nil, err
	}
	doc, ok := snap.Document(docID)
	if !ok {
		return nil, fmt.Errorf("document %d in generation %d: %w", docID, snap.Generation, apperrors.ErrDocumentNotFound)
	}
	plan := parser.Parse(query)
	cands := candidate.Generate(plan, snap.Docs, snap.Index)
	_, isCandidate := cands.IDs[docID]
	return &Explanation{
		Query:     query,
		DocID:     docID,
		Candidate: isCandidate,
		Long:      plan.Long,
		Acronym:   plan.Acronym,
		Phrase:    plan.Phrase,
		Breakdown: scorer.New(plan, snap.Index, snap.Vector).Score(doc),
	}, nil
}

func (e *Executor) observe(plan *parser.QueryPlan, cands candidate.Result, results int, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	mode := "short"
	if plan.Long {
		mode = "long"
	}
	e.metrics.SearchLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
	e.metrics.SearchResultsCount.Observe(float64(results))
	e.metrics.SearchCandidates.WithLabelValues("index").Observe(float64(cands.Indexed))
	e.metrics.SearchCandidates.WithLabelValues("text").Observe(float64(cands.Text))
	e.metrics.SearchCandidates.WithLabelValues("acronym").Observe(float64(cands.Acronym))
	e.metrics.SearchCandidates.WithLabelValues("fuzzy").Observe(float64(cands.Fuzzy))
	switch {
	case results == 0:
		e.countQuery("zero_result")
	case cands.Fallback:
		e.countQuery("fallback")
	default:
		e.countQuery("ok")
	}
}

func (e *Executor) countQuery(resultType string) {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}
