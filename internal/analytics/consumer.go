package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/kafka"
)

// HandleMessage returns a Kafka MessageHandler that decodes events shipped
// by a Collector and passes them to tracker. Unknown or malformed events are
// skipped.
func HandleMessage(tracker Tracker) kafka.MessageHandler {
	logger := slog.Default().With("component", "analytics-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := decodeEvent(value)
		if err != nil {
			logger.Warn("dropping analytics event", "key", string(key), "error", err)
			return kafka.ErrSkip
		}
		tracker.Track(event)
		return nil
	}
}

func decodeEvent(value []byte) (any, error) {
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(value, &head); err != nil {
		return nil, fmt.Errorf("decoding event type: %w", err)
	}
	switch head.Type {
	case EventSearch, EventZeroResult:
		return kafka.DecodeJSON[SearchEvent](value)
	case EventIndexBuild:
		return kafka.DecodeJSON[IndexEvent](value)
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}
}
