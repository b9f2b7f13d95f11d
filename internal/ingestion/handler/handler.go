// Package handler serves the document ingestion HTTP endpoint.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/extract"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/logger"
)

const maxRequestBytes = 2 << 20

// Ingester is satisfied by *publisher.Publisher.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error)
}

type Handler struct {
	ingester Ingester
	logger   *slog.Logger
}

func New(ing Ingester) *Handler {
	return &Handler{
		ingester: ing,
		logger:   slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the ingest route, wrapped with guard when it is non-nil.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	var ingest http.Handler = http.HandlerFunc(h.Ingest)
	if guard != nil {
		ingest = guard(ingest)
	}
	mux.Handle("POST /api/v1/documents", ingest)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Format == ingestion.FormatHTML {
		page, err := extract.HTML(req.Body)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "unparseable HTML body")
			return
		}
		req.Body = page.Text
		if req.Title == "" {
			req.Title = page.Title
		}
	}

	if err := validator.ValidateIngestRequest(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		status, body := apperrors.Response(err)
		log.Error("ingestion failed",
			"error", err,
			"status_code", status,
		)
		h.writeJSON(w, status, body)
		return
	}
	log.Info("document ingested", "doc_id", resp.DocumentID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
