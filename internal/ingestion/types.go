// Package ingestion defines the request/response types and Kafka event schema
// of the document ingestion pipeline.
package ingestion

import "time"

const (
	FormatText = "text"
	FormatHTML = "html"
)

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// ID is optional; when absent the database assigns one.
type IngestRequest struct {
	ID             *int   `json:"id,omitempty"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link"`
	Format         string `json:"format"`
	IdempotencyKey string `json:"idempotency_key"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID int    `json:"document_id"`
	Status     string `json:"status"`
}

// IngestEvent is the Kafka message payload produced after a document is
// persisted. Searchers add it to their engine.
type IngestEvent struct {
	DocumentID int       `json:"document_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Link       string    `json:"link"`
	IngestedAt time.Time `json:"ingested_at"`
}
