// Package indexer owns the two-phase lifecycle of the search engine:
// documents are added while loading, BuildIndex freezes them into an
// immutable Snapshot, and searches read whichever snapshot is current.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/vector"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/metrics"
)

type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Snapshot is the frozen result of one build: the document set it was built
// from, its index and, optionally, every document's TF-IDF vector.
type Snapshot struct {
	Index      *index.Index
	Docs       []*store.Document
	Generation uint64
	BuiltAt    time.Time

	byID    map[int]*store.Document
	vectors map[*store.Document]vector.Vector
}

func newSnapshot(docs []*store.Document, generation uint64, precompute bool) *Snapshot {
	s := &Snapshot{
		Index:      index.Build(docs),
		Docs:       docs,
		Generation: generation,
		BuiltAt:    time.Now(),
		byID:       make(map[int]*store.Document, len(docs)),
	}
	for _, d := range docs {
		if _, exists := s.byID[d.ID]; !exists {
			s.byID[d.ID] = d
		}
	}
	if precompute {
		s.vectors = make(map[*store.Document]vector.Vector, len(docs))
		for _, d := range docs {
			s.vectors[d] = vector.Build(s.Index, d.TermFreqs)
		}
	}
	return s
}

// Document resolves an id within the snapshot; with duplicate ids the
// first document added wins.
func (s *Snapshot) Document(id int) (*store.Document, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Vector returns the precomputed vector of d, if any.
func (s *Snapshot) Vector(d *store.Document) (vector.Vector, bool) {
	v, ok := s.vectors[d]
	return v, ok
}

// Engine accepts documents at any time and serves the latest built
// snapshot. Documents added after a build stay invisible to searches until
// the next BuildIndex.
type Engine struct {
	cfg        config.IndexerConfig
	docs       *store.Store
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	stale      atomic.Bool
	buildMu    sync.Mutex
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewEngine returns an empty engine in the loading state. m may be nil.
func NewEngine(cfg config.IndexerConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		docs:    store.New(),
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// AddDocument appends a document. Ids are not checked for uniqueness.
func (e *Engine) AddDocument(id int, title, body, link string) *store.Document {
	doc := store.NewDocument(id, title, body, link)
	e.docs.Add(doc)
	e.stale.Store(true)
	if e.metrics != nil {
		e.metrics.DocsAddedTotal.Inc()
		e.metrics.IndexStale.Set(1)
	}
	e.logger.Debug("document added", "doc_id", id, "tokens", len(doc.Tokens))
	return doc
}

// BuildIndex rebuilds the index over every document added so far and
// swaps it in atomically. Concurrent calls are serialised.
func (e *Engine) BuildIndex() *Snapshot {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	e.stale.Store(false)
	docs := e.docs.Snapshot()
	snap := newSnapshot(docs, e.generation.Add(1), e.cfg.PrecomputeVectors)
	e.current.Store(snap)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.IndexBuildsTotal.Inc()
		e.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
		e.metrics.IndexedDocuments.Set(float64(len(docs)))
		e.metrics.IndexedTerms.Set(float64(snap.Index.Terms()))
		if !e.stale.Load() {
			e.metrics.IndexStale.Set(0)
		}
	}
	e.logger.Info("index built",
		"generation", snap.Generation,
		"docs", len(docs),
		"terms", snap.Index.Terms(),
		"duration", elapsed,
	)
	return snap
}

// Snapshot returns the current snapshot, or ErrIndexNotBuilt before the
// first build.
func (e *Engine) Snapshot() (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("engine has %d documents: %w", e.docs.Len(), apperrors.ErrIndexNotBuilt)
	}
	return snap, nil
}

// GetDocumentByID looks the id up among all added documents, built or not.
func (e *Engine) GetDocumentByID(id int) (*store.Document, bool) {
	return e.docs.Get(id)
}

func (e *Engine) State() State {
	if e.current.Load() == nil {
		return StateLoading
	}
	return StateReady
}

// Stale reports whether documents were added since the last build.
func (e *Engine) Stale() bool {
	return e.stale.Load()
}

// Generation returns the generation of the current snapshot, 0 before the
// first build.
func (e *Engine) Generation() uint64 {
	if snap := e.current.Load(); snap != nil {
		return snap.Generation
	}
	return 0
}

// DocCount returns the number of documents added, including unbuilt ones.
func (e *Engine) DocCount() int {
	return e.docs.Len()
}

// StartRebuildLoop rebuilds the index every RebuildInterval while it is
// stale. It returns immediately; the loop stops with ctx. A zero interval
// disables the loop.
func (e *Engine) StartRebuildLoop(ctx context.Context) {
	if e.cfg.RebuildInterval <= 0 {
		e.logger.Info("rebuild loop disabled")
		return
	}
	ticker := time.NewTicker(e.cfg.RebuildInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("rebuild loop stopping")
				return
			case <-ticker.C:
				if e.Stale() {
					e.BuildIndex()
				}
			}
		}
	}()
}
