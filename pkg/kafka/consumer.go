// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. Values travel as JSON; consumers hand raw messages to
// a MessageHandler.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// ErrSkip may be returned by a MessageHandler for a message that can never
// be processed. The message is committed and consumption moves on.
var ErrSkip = errors.New("skip message")

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// messageReader is the part of *kafka.Reader the consume loop drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler.
type Consumer struct {
	reader  messageReader
	logger  *slog.Logger
	handler MessageHandler
	retry   resilience.RetryConfig
	pause   time.Duration
}

// NewConsumer creates a Consumer for topic. groupID overrides the configured
// consumer group when non-empty; every searcher replica uses its own group
// so that each one sees every document.
func NewConsumer(cfg config.KafkaConfig, topic, groupID string, handler MessageHandler) *Consumer {
	if groupID == "" {
		groupID = cfg.ConsumerGroup
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", groupID),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second},
		pause:   5 * time.Second,
	}
}

// Start enters the consume loop, fetching and processing messages until ctx
// is cancelled. A failing handler is retried with backoff. A message that
// still fails with anything but ErrSkip blocks its partition: the loop
// pauses and retries it, and never fetches or commits past it.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if !c.process(ctx, msg) {
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// process handles msg until it succeeds or is skipped. It reports false when
// ctx ends first, in which case msg must not be committed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	for {
		err := c.dispatch(ctx, msg)
		if err == nil || errors.Is(err, ErrSkip) {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("failed to process message, pausing",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"pause", c.pause,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.pause):
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message) error {
	return resilience.Retry(ctx, "kafka-handler", c.retry, func() error {
		err := c.handler(ctx, msg.Key, msg.Value)
		if errors.Is(err, ErrSkip) {
			return resilience.Permanent(err)
		}
		return err
	})
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
