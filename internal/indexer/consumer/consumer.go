// Package consumer reads ingestion events from Kafka and adds them to the
// search engine's document store. The next rebuild makes them searchable.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
)

// StatusRecorder marks a catalogue document as picked up by a searcher.
type StatusRecorder interface {
	MarkIndexed(ctx context.Context, docID int) error
}

// HandleMessage returns a Kafka MessageHandler that adds every ingest event
// to engine. Redelivered events whose id is already stored are acknowledged
// without adding a second copy. When status is non-nil the catalogue row is
// marked indexed; a failure there is logged and does not block the partition.
func HandleMessage(engine *indexer.Engine, status StatusRecorder) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event", "error", err, "key", string(key))
			return kafka.ErrSkip
		}
		if event.DocumentID < 0 || event.Title == "" {
			logger.Warn("dropping malformed ingest event", "doc_id", event.DocumentID, "key", string(key))
			return kafka.ErrSkip
		}

		if _, seen := engine.GetDocumentByID(event.DocumentID); seen {
			logger.Debug("ingest event already applied", "doc_id", event.DocumentID)
			return nil
		}
		engine.AddDocument(event.DocumentID, event.Title, event.Body, event.Link)

		if status != nil {
			if err := status.MarkIndexed(ctx, event.DocumentID); err != nil {
				logger.Error("failed to update document status", "doc_id", event.DocumentID, "error", err)
			}
		}
		logger.Info("document queued for indexing",
			"doc_id", event.DocumentID,
			"lag", timeSince(event),
			"generation", engine.Generation(),
		)
		return nil
	}
}

// timeSince reports how long the event waited in the topic, or zero when the
// producer did not stamp it.
func timeSince(event ingestion.IngestEvent) time.Duration {
	if event.IngestedAt.IsZero() {
		return 0
	}
	return time.Since(event.IngestedAt).Round(time.Millisecond)
}
