// Package handler exposes the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/store"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/tracing"
)

type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
	Explain(ctx context.Context, query string, docID int) (*executor.Explanation, error)
}

// Catalog is satisfied by *indexer.Engine.
type Catalog interface {
	GetDocumentByID(id int) (*store.Document, bool)
	Generation() uint64
	BuildIndex() *indexer.Snapshot
}

type Options struct {
	Search  config.SearchConfig
	Tracing config.TracingConfig
}

type Hit struct {
	DocID   int     `json:"doc_id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Snippet string  `json:"snippet"`
}

type SearchResponse struct {
	Query      string `json:"query"`
	TotalHits  int    `json:"total_hits"`
	Ranked     int    `json:"ranked"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Pages      int    `json:"pages"`
	Results    []Hit  `json:"results"`
	CacheHit   bool   `json:"cache_hit"`
	Fallback   bool   `json:"fallback"`
	Generation uint64 `json:"generation"`
	TookMs     int64  `json:"took_ms"`
}

type Handler struct {
	searcher Searcher
	catalog  Catalog
	cache    *cache.QueryCache
	tracker  analytics.Tracker
	opts     Options
	logger   *slog.Logger
}

// New builds the search handler. queryCache and tracker may be nil.
func New(searcher Searcher, catalog Catalog, queryCache *cache.QueryCache, tracker analytics.Tracker, opts Options) *Handler {
	return &Handler{
		searcher: searcher,
		catalog:  catalog,
		cache:    queryCache,
		tracker:  tracker,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the routes on mux. The mutating admin routes are wrapped
// with admin when it is non-nil.
func (h *Handler) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/explain", h.Explain)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.Handle("POST /api/v1/index/rebuild", admin(http.HandlerFunc(h.Rebuild)))
	mux.Handle("POST /api/v1/cache/invalidate", admin(http.HandlerFunc(h.CacheInvalidate)))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	if !params.Has("q") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	query := params.Get("q")
	limit, err := intParam(params.Get("limit"), h.opts.Search.DefaultLimit, 0)
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a non-negative integer"))
		return
	}
	limit = min(limit, h.opts.Search.MaxResults)
	page, err := intParam(params.Get("page"), 1, 1)
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "page must be a positive integer"))
		return
	}
	pageSize, err := intParam(params.Get("page_size"), h.opts.Search.DefaultPageSize, 1)
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "page_size must be a positive integer"))
		return
	}
	pageSize = min(pageSize, h.opts.Search.MaxResults)

	var span *tracing.Span
	if h.opts.Tracing.Enabled && tracing.Sampled(h.opts.Tracing.SampleRate) {
		ctx, span = tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	}

	result, cacheHit, err := h.execute(ctx, query, limit)
	if span != nil {
		span.SetAttr("cache_hit", cacheHit)
		span.End()
		span.Log(log)
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}

	resp := SearchResponse{
		Query:      query,
		TotalHits:  result.TotalHits,
		Ranked:     len(result.Results),
		Page:       page,
		PageSize:   pageSize,
		Pages:      (len(result.Results) + pageSize - 1) / pageSize,
		Results:    []Hit{},
		CacheHit:   cacheHit,
		Fallback:   result.Fallback,
		Generation: result.Generation,
	}
	if from := (page - 1) * pageSize; from < len(result.Results) {
		to := min(from+pageSize, len(result.Results))
		for _, sd := range result.Results[from:to] {
			hit := Hit{DocID: sd.DocID, Score: sd.Score}
			if doc, ok := h.catalog.GetDocumentByID(sd.DocID); ok {
				hit.Title = doc.Title
				hit.Link = doc.Link
				hit.Snippet = Snippet(doc.Body, h.opts.Search.SnippetLength)
			}
			resp.Results = append(resp.Results, hit)
		}
	}
	latency := time.Since(start)
	resp.TookMs = latency.Milliseconds()

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"ranked", len(result.Results),
		"page", page,
		"cache_hit", cacheHit,
		"latency", latency,
	)
	h.trackSearch(ctx, query, result, cacheHit, latency)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) execute(ctx context.Context, query string, limit int) (*executor.SearchResult, bool, error) {
	generation := h.catalog.Generation()
	if h.cache == nil || generation == 0 {
		result, err := h.searcher.Search(ctx, query, limit)
		return result, false, err
	}
	return h.cache.GetOrCompute(ctx, generation, query, limit, func() (*executor.SearchResult, error) {
		return h.searcher.Search(ctx, query, limit)
	})
}

func (h *Handler) trackSearch(ctx context.Context, query string, result *executor.SearchResult, cacheHit bool, latency time.Duration) {
	if h.tracker == nil {
		return
	}
	eventType := analytics.EventSearch
	if len(result.Results) == 0 {
		eventType = analytics.EventZeroResult
	}
	top := make([]int, 0, 3)
	for i := 0; i < len(result.Results) && i < cap(top); i++ {
		top = append(top, result.Results[i].DocID)
	}
	h.tracker.Track(analytics.SearchEvent{
		Type:       eventType,
		Query:      query,
		TotalHits:  result.TotalHits,
		Returned:   len(result.Results),
		TopDocIDs:  top,
		LatencyMs:  latency.Milliseconds(),
		CacheHit:   cacheHit,
		Fallback:   result.Fallback,
		LongQuery:  result.Long,
		Generation: result.Generation,
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	})
}

func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	docID, err := strconv.Atoi(params.Get("doc_id"))
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "doc_id must be an integer"))
		return
	}
	exp, err := h.searcher.Explain(r.Context(), params.Get("q"), docID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, exp)
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "document id must be an integer"))
		return
	}
	doc, ok := h.catalog.GetDocumentByID(id)
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "document %d", id))
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.catalog.BuildIndex()
	if h.tracker != nil {
		h.tracker.Track(analytics.IndexEvent{
			Type:       analytics.EventIndexBuild,
			Generation: snap.Generation,
			Documents:  len(snap.Docs),
			Terms:      snap.Index.Terms(),
			LatencyMs:  time.Since(start).Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"generation": snap.Generation,
		"documents":  len(snap.Docs),
		"terms":      snap.Index.Terms(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// Snippet cuts body to at most n bytes, backing off to a rune boundary,
// and appends "..." when anything was cut.
func Snippet(body string, n int) string {
	if n <= 0 || len(body) <= n {
		return body
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

func intParam(raw string, def, lowest int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lowest {
		return 0, fmt.Errorf("%d is below %d", v, lowest)
	}
	return v, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, body := apperrors.Response(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err, "status", status)
	}
	h.writeJSON(w, status, body)
}
