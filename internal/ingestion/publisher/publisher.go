// Package publisher persists documents and publishes ingest events to Kafka
// for the searchers to index. Writes are idempotent on the caller's key.
package publisher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
)

const StatusPending = "PENDING"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Publisher coordinates document persistence and event production.
type Publisher struct {
	repo     Repository
	producer EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func New(repo Repository, producer EventPublisher) *Publisher {
	return &Publisher{
		repo:     repo,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
		now:      time.Now,
	}
}

// Ingest stores the document and publishes an IngestEvent. A repeated
// idempotency key returns the first response without inserting again. A
// failed publish is logged and the document stays PENDING.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.repo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.DocumentID,
			)
			return existing, nil
		}
	}

	docID, err := p.repo.Insert(ctx, Record{
		ID:             req.ID,
		Title:          req.Title,
		Body:           req.Body,
		Link:           req.Link,
		ContentHash:    fmt.Sprintf("%x", sha256.Sum256([]byte(req.Body))),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	event := kafka.Event{
		Key: strconv.Itoa(docID),
		Value: ingestion.IngestEvent{
			DocumentID: docID,
			Title:      req.Title,
			Body:       req.Body,
			Link:       req.Link,
			IngestedAt: p.now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, document stuck in PENDING",
			"doc_id", docID,
			"error", err,
		)
	}
	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     StatusPending,
	}, nil
}
