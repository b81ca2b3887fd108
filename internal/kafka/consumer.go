package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

const (
	handlerAttempts = 3
	handlerBackoff  = 500 * time.Millisecond
)

// Consume hands every message value to handler and commits it once handled.
// A failing message is retried with backoff and then logged, committed and
// skipped so one bad message cannot stall the partition. Consume returns nil
// when ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := handleWithRetry(ctx, handler, msg.Value, handlerAttempts, handlerBackoff); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "kafka handler failed, skipping message",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// handleWithRetry calls handler up to attempts times, doubling the wait
// between tries. It returns the last handler error, or ctx's error when ctx
// ends while waiting.
func handleWithRetry(ctx context.Context, handler func(context.Context, []byte) error, value []byte, attempts int, backoff time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			backoff *= 2
		}
		if err = handler(ctx, value); err == nil {
			return nil
		}
	}
	return err
}
